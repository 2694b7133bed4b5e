package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricelens/internal/config"
	"pricelens/internal/services"
)

const handlerCSV = `Date,Open,High,Low,Close,Volume
02-03-2015,49,51,48,50,1000
03-03-2015,54,56,53,55,1200
04-03-2015,55,55.5,52,52.25,900
05-03-2015,52,53,51.5,52.25,1100
`

func newHandler(t *testing.T, refresh bool) *DataHandler {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(handlerCSV), 0o644))

	cfg := config.Default()
	cfg.Input.Path = path
	svc := services.NewAnalysisService(cfg, nil)
	if refresh {
		require.NoError(t, svc.Refresh(context.Background()))
	}
	return NewDataHandler(svc, nil, false)
}

func doRequest(t *testing.T, h *DataHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGetDataEmptyService(t *testing.T) {
	h := newHandler(t, false)

	rec := doRequest(t, h, "/data")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "SERVICE_UNAVAILABLE")
}

func TestGetData(t *testing.T) {
	h := newHandler(t, true)

	rec := doRequest(t, h, "/data")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
		Rows    []struct {
			Date        string  `json:"date"`
			Close       float64 `json:"close"`
			DailyReturn float64 `json:"daily_return"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Equal(t, 3, resp.Count)
	assert.Equal(t, "2015-03-03", resp.Rows[0].Date)
	assert.InDelta(t, 10.0, resp.Rows[0].DailyReturn, 1e-9)
}

func TestGetCorrelation(t *testing.T) {
	h := newHandler(t, true)

	rec := doRequest(t, h, "/correlation")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success            bool `json:"success"`
		IncludePriceChange bool `json:"include_price_change"`
		Entries            []struct {
			MetricA string   `json:"metric_a"`
			MetricB string   `json:"metric_b"`
			Value   *float64 `json:"value"`
			Defined bool     `json:"defined"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.IncludePriceChange)

	// Six metrics, full matrix in long form.
	assert.Len(t, resp.Entries, 36)
	for _, e := range resp.Entries {
		if e.MetricA == e.MetricB && e.Defined {
			require.NotNil(t, e.Value)
			assert.InDelta(t, 1.0, *e.Value, 1e-9)
		}
		if !e.Defined {
			assert.Nil(t, e.Value)
		}
	}
}

func TestGetCorrelationPriceChangeParam(t *testing.T) {
	h := newHandler(t, true)

	rec := doRequest(t, h, "/correlation?price_change=true")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		IncludePriceChange bool              `json:"include_price_change"`
		Entries            []json.RawMessage `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IncludePriceChange)
	assert.Len(t, resp.Entries, 49)
}

func TestGetCorrelationBadParam(t *testing.T) {
	h := newHandler(t, true)

	rec := doRequest(t, h, "/correlation?price_change=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_PARAMETER")
}

func TestGetHealth(t *testing.T) {
	empty := newHandler(t, false)
	rec := doRequest(t, empty, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	loaded := newHandler(t, true)
	rec = doRequest(t, loaded, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var status services.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, 3, status.Rows)
}
