package pipeline

import (
	"pricelens/pkg/contracts/domain"
)

// FilterYears returns the sub-sequence of records whose date's calendar
// year falls within the inclusive [from, to] range. An empty result is
// valid; relative record order is preserved, so the operation is
// idempotent.
func FilterYears(t domain.PriceTable, from, to int) domain.PriceTable {
	out := domain.PriceTable{
		Records:      make([]domain.PriceRecord, 0, t.Len()),
		ExtraColumns: t.ExtraColumns,
	}
	for _, rec := range t.Records {
		year := rec.Date.Year()
		if year >= from && year <= to {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}
