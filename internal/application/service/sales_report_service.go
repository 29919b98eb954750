package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	"github.com/sangkips/pos-terminal-api/internal/domain/repository"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/metrics"
	"github.com/sangkips/pos-terminal-api/internal/infrastructure/remote"
	"github.com/sangkips/pos-terminal-api/pkg/apperror"
	"github.com/sangkips/pos-terminal-api/pkg/pagination"
)

// Sort orders accepted by the sales report
const (
	SortDesc = "desc"
	SortAsc  = "asc"
)

// SalesQuery holds the report parameters
type SalesQuery struct {
	StartDate string
	EndDate   string
	SortOrder string
	Page      int
	PerPage   int
}

// SalesReport is one page of filtered sales with the summary of the whole
// filtered set.
type SalesReport struct {
	Sales      []entity.Sale          `json:"sales"`
	Summary    entity.SalesSummary    `json:"summary"`
	Pagination *pagination.Pagination `json:"pagination"`
}

// SalesReportService builds reports over the sales recorded remotely
type SalesReportService struct {
	sales   repository.SalesGateway
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewSalesReportService creates a new sales report service
func NewSalesReportService(sales repository.SalesGateway, m *metrics.Metrics, logger *zap.Logger) *SalesReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesReportService{
		sales:   sales,
		metrics: m,
		logger:  logger.Named("sales_report"),
	}
}

// Query fetches all sales, filters them by date, sorts them by opening time
// and returns the requested page. The summary covers every filtered sale, not
// only the page.
func (s *SalesReportService) Query(ctx context.Context, q SalesQuery) (*SalesReport, error) {
	filtered, err := s.filtered(ctx, q)
	if err != nil {
		return nil, err
	}

	view := pagination.NewViewFromParams(&pagination.PaginationParams{Page: q.Page, PerPage: q.PerPage})
	window := view.Window(len(filtered))

	return &SalesReport{
		Sales:      pagination.Slice(filtered, window),
		Summary:    entity.SummarizeSales(filtered),
		Pagination: window.Pagination(),
	}, nil
}

// Summary returns only the aggregates of the filtered sales.
func (s *SalesReportService) Summary(ctx context.Context, q SalesQuery) (*entity.SalesSummary, error) {
	filtered, err := s.filtered(ctx, q)
	if err != nil {
		return nil, err
	}
	summary := entity.SummarizeSales(filtered)
	return &summary, nil
}

// Export renders the filtered sales and their summary as an XLSX workbook.
func (s *SalesReportService) Export(ctx context.Context, q SalesQuery) (*bytes.Buffer, error) {
	filtered, err := s.filtered(ctx, q)
	if err != nil {
		return nil, err
	}

	buf, err := buildSalesWorkbook(filtered, entity.SummarizeSales(filtered))
	if err != nil {
		s.logger.Error("failed to build sales workbook", zap.Error(err))
		return nil, apperror.ErrInternalServer
	}
	return buf, nil
}

// DeleteSale removes a sale remotely and returns the cascaded counts.
func (s *SalesReportService) DeleteSale(ctx context.Context, saleID int64) (*entity.SaleDeletion, error) {
	if saleID <= 0 {
		return nil, apperror.NewBadRequestError("Invalid sale ID")
	}

	deletion, err := s.sales.DeleteSale(ctx, saleID)
	if err != nil {
		if remote.IsNotFound(err) {
			return nil, apperror.NewNotFoundError("Sale")
		}
		return nil, toAppError(err)
	}
	deletion.Confirmation = deletion.ConfirmationText()

	s.logger.Info("sale deleted",
		zap.Int64("sale_id", saleID),
		zap.Int("items_deleted", deletion.ItemsDeleted),
		zap.Int("payments_deleted", deletion.PaymentsDeleted),
	)
	return deletion, nil
}

func (s *SalesReportService) filtered(ctx context.Context, q SalesQuery) ([]entity.Sale, error) {
	filter, err := entity.NewDateRangeFilter(q.StartDate, q.EndDate)
	if err != nil {
		return nil, toAppError(err)
	}
	order, err := parseSortOrder(q.SortOrder)
	if err != nil {
		return nil, err
	}

	sales, err := s.sales.ListSales(ctx)
	s.metrics.SalesFetched(err == nil)
	if err != nil {
		s.logger.Warn("failed to fetch sales", zap.Error(err))
		return nil, toAppError(err)
	}

	filtered := entity.FilterSales(sales, filter)
	// FilterSales may hand back the input slice
	out := make([]entity.Sale, len(filtered))
	copy(out, filtered)
	sortSales(out, order)
	return out, nil
}

func parseSortOrder(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", SortDesc:
		return SortDesc, nil
	case SortAsc:
		return SortAsc, nil
	default:
		return "", apperror.NewFieldError("sort_order", "sort_order must be asc or desc")
	}
}

// sortSales orders sales by opening time; ties and undated sales fall back
// to the id.
func sortSales(sales []entity.Sale, order string) {
	sort.SliceStable(sales, func(i, j int) bool {
		a, b := sales[i], sales[j]
		ta, tb := a.OpenedTime(), b.OpenedTime()
		if !ta.Equal(tb) {
			if order == SortAsc {
				return ta.Before(tb)
			}
			return ta.After(tb)
		}
		if order == SortAsc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
}

const (
	salesSheet   = "Ventas"
	summarySheet = "Resumen"
)

func buildSalesWorkbook(sales []entity.Sale, summary entity.SalesSummary) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	headers := []interface{}{"ID", "Fecha", "Estado", "Metodos de pago", "Observacion", "Items", "Total"}
	if err := f.SetSheetRow(salesSheet, "A1", &headers); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(salesSheet, "A1", "G1", bold); err != nil {
		return nil, err
	}

	for i, sale := range sales {
		observation := ""
		if sale.Observation != nil {
			observation = *sale.Observation
		}
		total, _ := sale.Total.Round(2).Float64()
		row := []interface{}{
			sale.ID,
			sale.OpenedOn(),
			sale.Status,
			paymentMethods(sale),
			observation,
			len(sale.Items),
			total,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(salesSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	totalAmount, _ := summary.TotalAmount.Round(2).Float64()
	rows := [][]interface{}{
		{"Total de ventas", summary.TotalCount},
		{"Monto total", totalAmount},
		{},
		{"Metodo de pago", "Monto"},
	}
	for _, m := range summary.ByPaymentMethod {
		amount, _ := m.Amount.Round(2).Float64()
		rows = append(rows, []interface{}{m.Method, amount})
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		r := row
		if err := f.SetSheetRow(summarySheet, cell, &r); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A2", bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "A4", "B4", bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

func paymentMethods(sale entity.Sale) string {
	methods := make([]string, 0, len(sale.Payments))
	for _, p := range sale.Payments {
		methods = append(methods, p.Method)
	}
	return strings.Join(methods, ", ")
}
