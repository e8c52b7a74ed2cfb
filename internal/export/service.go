package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/repository"
)

// Service is a tiny façade over the order repository that produces XLSX bytes
// for exports.
type Service struct {
	pos    repository.PurchaseOrderRepository
	logger *slog.Logger
}

func NewService(pos repository.PurchaseOrderRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pos: pos, logger: logger}
}

// ExportPurchaseOrdersXLSX returns an XLSX workbook (as bytes) for the given
// tenant and creation-date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all orders for the tenant.
func (s *Service) ExportPurchaseOrdersXLSX(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	orders, err := s.pos.ListPurchaseOrdersBetween(ctx, tenantID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query purchase orders: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Purchase Orders"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"PO Number",
		"Vendor",
		"Amount",
		"Currency",
		"Status",
		"Email Subject",
		"Failure Reason",
		"ERP Reference",
		"Created",
		"Processed",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, po := range orders {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		amount := ""
		if po.TotalAmount != nil {
			amount = po.TotalAmount.StringFixed(2)
		}
		failureReason := ""
		if po.FailureReason != nil {
			failureReason = *po.FailureReason
		}
		erpRef := ""
		if po.ERPPushResult != nil {
			erpRef = po.ERPPushResult.ERPID
		}
		processed := ""
		if po.ProcessedAt != nil {
			processed = po.ProcessedAt.Format("2006-01-02 15:04")
		}

		write(1, po.PONumber)
		write(2, po.VendorName)
		write(3, amount)
		write(4, po.Currency)
		write(5, string(po.Status))
		write(6, truncate(po.EmailSubject, 80))
		write(7, truncate(failureReason, 140))
		write(8, erpRef)
		write(9, po.CreatedAt.Format("2006-01-02 15:04"))
		write(10, processed)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 16) // po number
	_ = f.SetColWidth(sheet, "B", "B", 28) // vendor
	_ = f.SetColWidth(sheet, "C", "D", 12) // amount, currency
	_ = f.SetColWidth(sheet, "E", "E", 12) // status
	_ = f.SetColWidth(sheet, "F", "F", 40) // subject
	_ = f.SetColWidth(sheet, "G", "G", 48) // failure reason
	_ = f.SetColWidth(sheet, "H", "H", 18) // erp ref
	_ = f.SetColWidth(sheet, "I", "J", 18) // dates

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"tenant_id", tenantID.String(),
		"rows", len(orders),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
