package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sangkips/pos-terminal-api/internal/domain/entity"
	"github.com/sangkips/pos-terminal-api/pkg/money"
	"github.com/sangkips/pos-terminal-api/pkg/printer"
	"github.com/sangkips/pos-terminal-api/pkg/utils"
)

// PrinterService formats settlement receipts and sends them to the
// configured receipt printer.
type PrinterService struct {
	printer     printer.Printer
	printerType string
	header      entity.ReceiptHeader
	width       int
	logger      *zap.Logger
}

// NewPrinterService creates a new printer service.
func NewPrinterService(p printer.Printer, printerType string, header entity.ReceiptHeader, width int, logger *zap.Logger) *PrinterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrinterService{
		printer:     p,
		printerType: printerType,
		header:      header,
		width:       width,
		logger:      logger.Named("printer"),
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus() *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != "none" && s.printerType != "",
		Connected:  s.printer.IsConnected(),
		Type:       s.printerType,
	}
}

// TestPrint sends a sample receipt. The receipt is returned even when
// printing fails so the caller can show it.
func (s *PrinterService) TestPrint(ctx context.Context) (*entity.Receipt, error) {
	sample := entity.CartItem{
		ProductName: "Test",
		VariantName: "Item",
		Quantity:    2,
		UnitPrice:   money.Coerce("5.00"),
	}
	req := &entity.SettlementRequest{
		Payments: []entity.SettlementPayment{{Method: "EFECTIVO", Amount: sample.LineTotal()}},
	}
	receipt := entity.NewSettlementReceipt(s.header, "TEST-001", []entity.CartItem{sample}, req, nil)

	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.width)); err != nil {
		return receipt, fmt.Errorf("test print failed: %w", err)
	}
	return receipt, nil
}

// PrintSettlement prints the receipt of a confirmed settlement.
func (s *PrinterService) PrintSettlement(ctx context.Context, operator string, items []entity.CartItem, req *entity.SettlementRequest, sale *entity.SubmittedSale) (*entity.Receipt, error) {
	receipt := entity.NewSettlementReceipt(s.header, utils.GenerateReceiptNo(time.Now()), items, req, sale)
	receipt.Operator = operator

	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.width)); err != nil {
		s.logger.Warn("receipt not printed",
			zap.String("receipt_no", receipt.ReceiptNo),
			zap.Int64("sale_id", receipt.SaleID),
			zap.Error(err),
		)
		return receipt, fmt.Errorf("failed to print receipt: %w", err)
	}
	return receipt, nil
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.Header.StoreName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	if r.Header.Address != "" {
		doc.Text(r.Header.Address)
	}
	if r.Header.Phone != "" {
		doc.Text(r.Header.Phone)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-')

	doc.KeyValue("Receipt:", r.ReceiptNo)
	if r.SaleID != 0 {
		doc.KeyValue("Sale:", fmt.Sprintf("#%d", r.SaleID))
	}
	doc.KeyValue("Date:", r.Date.Format("2006-01-02 15:04"))
	if r.Operator != "" {
		doc.KeyValue("Cashier:", r.Operator)
	}
	if r.PaymentType != "" {
		doc.KeyValue("Payment:", r.PaymentType)
	}

	doc.Separator('-')

	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Name, money.Format(item.Total))
		if item.Quantity > 1 {
			doc.TextF("  @ %s each", money.Format(item.UnitPrice))
		}
	}

	doc.Separator('-')

	doc.SetBold(true).
		KeyValue("TOTAL:", money.Format(r.Total)).
		SetBold(false)

	if r.Observation != "" {
		doc.Separator('-').
			Text(r.Observation)
	}

	doc.SetAlign(printer.AlignCenter).
		LineFeed().
		Text("Thank you!").
		LineFeed().
		SetAlign(printer.AlignLeft)

	doc.FeedLines(3).
		PartialCut()

	return doc.Bytes()
}
