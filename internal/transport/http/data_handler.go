package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"pricelens/internal/errors"
	"pricelens/internal/pipeline"
	"pricelens/internal/services"
	"pricelens/pkg/contracts/domain"
)

// DataService is the slice of the analysis service the handlers need.
type DataService interface {
	Derived() (domain.DerivedTable, error)
	Report() (pipeline.CleanReport, error)
	Correlation(ctx context.Context, includePriceChange bool) ([]domain.CorrelationEntry, error)
	Health() services.HealthStatus
}

// DataHandler serves the analysis endpoints.
type DataHandler struct {
	service DataService
	logger  *slog.Logger

	// includePriceChangeDefault is applied when the request carries no
	// price_change query parameter.
	includePriceChangeDefault bool
}

// NewDataHandler creates a handler backed by the given service.
func NewDataHandler(service DataService, logger *slog.Logger, includePriceChange bool) *DataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataHandler{
		service:                   service,
		logger:                    logger,
		includePriceChangeDefault: includePriceChange,
	}
}

// Routes returns the router for the analysis API.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/data", h.GetData)
	r.Get("/correlation", h.GetCorrelation)
	r.Get("/health", h.GetHealth)
	return r
}

// dataRow is the JSON shape of one derived record.
type dataRow struct {
	Date        string             `json:"date"`
	Open        float64            `json:"open"`
	High        float64            `json:"high"`
	Low         float64            `json:"low"`
	Close       float64            `json:"close"`
	Volume      float64            `json:"volume"`
	Extra       map[string]float64 `json:"extra,omitempty"`
	DailyReturn float64            `json:"daily_return"`
	PriceChange float64            `json:"price_change"`
}

type dataResponse struct {
	Success bool                 `json:"success"`
	Count   int                  `json:"count"`
	Report  pipeline.CleanReport `json:"report"`
	Rows    []dataRow            `json:"rows"`
}

// GetData returns the derived dataset with the missing-data report.
func (h *DataHandler) GetData(w http.ResponseWriter, r *http.Request) {
	derived, err := h.service.Derived()
	if err != nil {
		render.Render(w, r, errors.NewErrorResponse(errors.ErrServiceUnavailable))
		return
	}
	report, err := h.service.Report()
	if err != nil {
		render.Render(w, r, errors.NewErrorResponse(errors.ErrServiceUnavailable))
		return
	}

	rows := make([]dataRow, 0, derived.Len())
	for _, rec := range derived.Records {
		rows = append(rows, dataRow{
			Date:        rec.Date.Format("2006-01-02"),
			Open:        rec.Open,
			High:        rec.High,
			Low:         rec.Low,
			Close:       rec.Close,
			Volume:      rec.Volume,
			Extra:       sanitizeExtra(rec.Extra),
			DailyReturn: rec.DailyReturn,
			PriceChange: rec.PriceChange,
		})
	}

	render.JSON(w, r, dataResponse{
		Success: true,
		Count:   len(rows),
		Report:  report,
		Rows:    rows,
	})
}

// correlationCell is one matrix entry in JSON form. Undefined coefficients
// carry a null value.
type correlationCell struct {
	MetricA string   `json:"metric_a"`
	MetricB string   `json:"metric_b"`
	Value   *float64 `json:"value"`
	Defined bool     `json:"defined"`
}

type correlationResponse struct {
	Success            bool              `json:"success"`
	IncludePriceChange bool              `json:"include_price_change"`
	Entries            []correlationCell `json:"entries"`
}

// GetCorrelation returns the long-form correlation matrix. The price_change
// query parameter overrides the configured default.
func (h *DataHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	includePriceChange := h.includePriceChangeDefault
	if raw := r.URL.Query().Get("price_change"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			render.Render(w, r, errors.NewErrorResponse(errors.InvalidParameterError("price_change", err)))
			return
		}
		includePriceChange = parsed
	}

	entries, err := h.service.Correlation(r.Context(), includePriceChange)
	if err != nil {
		render.Render(w, r, errors.NewErrorResponse(errors.ErrServiceUnavailable))
		return
	}

	cells := make([]correlationCell, 0, len(entries))
	for _, e := range entries {
		cell := correlationCell{MetricA: e.MetricA, MetricB: e.MetricB, Defined: e.Defined}
		if e.Defined {
			v := e.Value
			cell.Value = &v
		}
		cells = append(cells, cell)
	}

	render.JSON(w, r, correlationResponse{
		Success:            true,
		IncludePriceChange: includePriceChange,
		Entries:            cells,
	})
}

// GetHealth reports whether a dataset is loaded.
func (h *DataHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := h.service.Health()
	if status.Status != "ok" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

// sanitizeExtra drops NaN extras so the row stays encodable as JSON.
func sanitizeExtra(extra map[string]float64) map[string]float64 {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]float64, len(extra))
	for k, v := range extra {
		if math.IsNaN(v) {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
