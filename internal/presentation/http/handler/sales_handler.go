package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sangkips/pos-terminal-api/internal/application/service"
	"github.com/sangkips/pos-terminal-api/internal/presentation/http/dto/request"
	"github.com/sangkips/pos-terminal-api/internal/presentation/http/dto/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SalesHandler handles sales report HTTP requests
type SalesHandler struct {
	reportService *service.SalesReportService
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(reportService *service.SalesReportService) *SalesHandler {
	return &SalesHandler{reportService: reportService}
}

// List handles the filtered, sorted and paginated sales report
func (h *SalesHandler) List(c *gin.Context) {
	query, ok := bindSalesQuery(c)
	if !ok {
		return
	}

	report, err := h.reportService.Query(requestContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sales retrieved successfully", report)
}

// Summary handles the aggregates of the filtered sales
func (h *SalesHandler) Summary(c *gin.Context) {
	query, ok := bindSalesQuery(c)
	if !ok {
		return
	}

	summary, err := h.reportService.Summary(requestContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Sales summary retrieved successfully", summary)
}

// Export handles the XLSX download of the filtered sales
func (h *SalesHandler) Export(c *gin.Context) {
	query, ok := bindSalesQuery(c)
	if !ok {
		return
	}

	buf, err := h.reportService.Export(requestContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("ventas-%s.xlsx", time.Now().Format("20060102-150405"))
	response.Attachment(c, filename, xlsxContentType, buf.Bytes())
}

// Delete handles removing a sale
func (h *SalesHandler) Delete(c *gin.Context) {
	saleID, ok := pathInt(c, "id", "sale ID")
	if !ok {
		return
	}

	deletion, err := h.reportService.DeleteSale(requestContext(c), saleID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, deletion.Confirmation, deletion)
}

func bindSalesQuery(c *gin.Context) (service.SalesQuery, bool) {
	var req request.SalesQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters: "+err.Error())
		return service.SalesQuery{}, false
	}
	req.PaginationParams.Validate()

	return service.SalesQuery{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PerPage:   req.PerPage,
	}, true
}
