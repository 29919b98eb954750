package request

import "github.com/sangkips/pos-terminal-api/pkg/pagination"

// SalesQueryRequest represents sales report filter parameters
type SalesQueryRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	SortOrder string `form:"sort_order"`
	pagination.PaginationParams
}
