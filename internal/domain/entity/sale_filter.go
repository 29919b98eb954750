package entity

import (
	"strings"
	"time"
)

// DateRangeFilter holds optional inclusive calendar-date bounds.
type DateRangeFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// NewDateRangeFilter parses YYYY-MM-DD bounds. Empty strings leave the bound
// open. An end before the start is accepted and matches nothing.
func NewDateRangeFilter(start, end string) (DateRangeFilter, error) {
	var f DateRangeFilter

	if s := strings.TrimSpace(start); s != "" {
		d, err := time.Parse(DateLayout, s)
		if err != nil {
			return f, NewValidationError("start_date", "start_date must use the YYYY-MM-DD format")
		}
		f.StartDate = &d
	}
	if e := strings.TrimSpace(end); e != "" {
		d, err := time.Parse(DateLayout, e)
		if err != nil {
			return f, NewValidationError("end_date", "end_date must use the YYYY-MM-DD format")
		}
		f.EndDate = &d
	}
	return f, nil
}

// IsEmpty reports whether neither bound is set.
func (f DateRangeFilter) IsEmpty() bool {
	return f.StartDate == nil && f.EndDate == nil
}

// Matches reports whether a sale falls inside the range. Sales without a
// readable date only match an empty range.
func (f DateRangeFilter) Matches(s Sale) bool {
	if f.IsEmpty() {
		return true
	}
	date, ok := s.Date()
	if !ok {
		return false
	}
	if f.StartDate != nil && date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && date.After(*f.EndDate) {
		return false
	}
	return true
}

// FilterSales keeps the sales inside the range, in their original order.
// With no bounds the input is returned unchanged.
func FilterSales(sales []Sale, f DateRangeFilter) []Sale {
	if f.IsEmpty() {
		return sales
	}
	out := make([]Sale, 0, len(sales))
	for _, s := range sales {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}
