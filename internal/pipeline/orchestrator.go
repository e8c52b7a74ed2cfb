// Package pipeline drives a purchase order through validation, formatting,
// and ERP submission, one ProcessingLog entry per stage attempt. Stage
// failures park the order for human review instead of bubbling up as errors;
// only infrastructure faults (DB writes) return error.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/erp"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/notify"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/repository"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/vendorcheck"
)

type Orchestrator struct {
	pos      repository.PurchaseOrderRepository
	logs     repository.ProcessingLogRepository
	vendors  repository.VendorRepository
	erps     repository.ERPSystemRepository
	registry *erp.Registry
	notifier *notify.Notifier
	logger   *slog.Logger
}

func NewOrchestrator(
	pos repository.PurchaseOrderRepository,
	logs repository.ProcessingLogRepository,
	vendors repository.VendorRepository,
	erps repository.ERPSystemRepository,
	registry *erp.Registry,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		pos:      pos,
		logs:     logs,
		vendors:  vendors,
		erps:     erps,
		registry: registry,
		notifier: notifier,
		logger:   logger,
	}
}

// Process runs the order from vendor validation through ERP submission. The
// order must already hold extracted data. On any stage failure the order ends
// up failed + flagged for review with exactly one failure notification; it is
// never left in processing.
func (o *Orchestrator) Process(ctx context.Context, po *entity.PurchaseOrder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline.panic", "po_id", po.ID, "panic", r)
			err = o.fail(ctx, po, fmt.Sprintf("internal error: %v", r))
		}
	}()

	po.Status = constants.POStatusProcessing
	if err := o.pos.UpdatePurchaseOrder(ctx, po); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	o.logger.Info("pipeline.start", "po_id", po.ID, "po_number", po.PONumber, "vendor", po.VendorName)

	ok, err := o.validateVendor(ctx, po)
	if err != nil || !ok {
		return err
	}
	formatted, ok, err := o.formatForERP(ctx, po)
	if err != nil || !ok {
		return err
	}
	ok, err = o.pushToERP(ctx, po, formatted)
	if err != nil || !ok {
		return err
	}

	now := time.Now()
	po.Status = constants.POStatusCompleted
	po.ProcessedAt = &now
	if err := o.pos.UpdatePurchaseOrder(ctx, po); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	o.logger.Info("pipeline.completed", "po_id", po.ID, "po_number", po.PONumber, "erp_id", po.ERPPushResult.ERPID)
	o.notifier.Notify(ctx, po.TenantID, constants.NotifySuccess,
		"Purchase order processed",
		fmt.Sprintf("PO %s from %s was pushed to the ERP system (reference %s).", po.PONumber, po.VendorName, po.ERPPushResult.ERPID),
		po.ID.String())
	return nil
}

func (o *Orchestrator) validateVendor(ctx context.Context, po *entity.PurchaseOrder) (bool, error) {
	logID, err := o.startStage(ctx, po, constants.StageDataValidation)
	if err != nil {
		return false, err
	}

	vendors, err := o.vendors.ListActiveVendors(ctx, po.TenantID)
	if err != nil {
		reason := fmt.Sprintf("load vendors: %v", err)
		o.closeStage(ctx, logID, constants.StageFailed, nil, &reason)
		return false, o.fail(ctx, po, reason)
	}

	result := vendorcheck.Validate(po.VendorName, vendors)
	po.ValidationResults = &result
	details, _ := json.Marshal(result)

	if !result.Valid {
		o.closeStage(ctx, logID, constants.StageFailed, details, &result.Reason)
		return false, o.fail(ctx, po, result.Reason)
	}
	o.closeStage(ctx, logID, constants.StageCompleted, details, nil)
	o.logger.Info("pipeline.vendor_validated", "po_id", po.ID, "matched", result.MatchedVendor.Name, "confidence", result.Confidence)
	return true, nil
}

func (o *Orchestrator) formatForERP(ctx context.Context, po *entity.PurchaseOrder) (map[string]any, bool, error) {
	logID, err := o.startStage(ctx, po, constants.StageERPFormatting)
	if err != nil {
		return nil, false, err
	}
	formatted := erp.FormatForERP(po)
	details, _ := json.Marshal(formatted)
	o.closeStage(ctx, logID, constants.StageCompleted, details, nil)
	return formatted, true, nil
}

func (o *Orchestrator) pushToERP(ctx context.Context, po *entity.PurchaseOrder, formatted map[string]any) (bool, error) {
	logID, err := o.startStage(ctx, po, constants.StageERPIntegration)
	if err != nil {
		return false, err
	}

	sys, err := o.erps.GetActiveERPSystem(ctx, po.TenantID)
	if err != nil {
		reason := fmt.Sprintf("load ERP system: %v", err)
		o.closeStage(ctx, logID, constants.StageFailed, nil, &reason)
		return false, o.fail(ctx, po, reason)
	}
	if sys == nil {
		reason := "no active ERP system configured"
		o.closeStage(ctx, logID, constants.StageFailed, nil, &reason)
		return false, o.fail(ctx, po, reason)
	}

	adapter, err := o.registry.ForType(sys.Type)
	if err != nil {
		reason := err.Error()
		o.closeStage(ctx, logID, constants.StageFailed, nil, &reason)
		return false, o.fail(ctx, po, reason)
	}

	result := adapter.Push(ctx, sys, po)
	po.ERPPushResult = &result
	details, _ := json.Marshal(result)

	if !result.Success {
		reason := fmt.Sprintf("ERP push failed: %s", result.Error)
		o.closeStage(ctx, logID, constants.StageFailed, details, &reason)
		return false, o.fail(ctx, po, reason)
	}
	o.closeStage(ctx, logID, constants.StageCompleted, details, nil)
	return true, nil
}

// Reprocess re-enters a reviewed order at the validation stage, applying any
// corrections first. Orders still in flight are rejected.
func (o *Orchestrator) Reprocess(ctx context.Context, id uuid.UUID, overrides map[string]any) (*entity.PurchaseOrder, error) {
	po, err := o.pos.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status == constants.POStatusProcessing {
		return nil, fmt.Errorf("purchase order %s is already processing", id)
	}

	applyOverrides(po, overrides)
	po.FailureReason = nil
	po.HumanReviewRequired = false
	po.ValidationResults = nil
	po.ERPPushResult = nil

	o.logger.Info("pipeline.reprocess", "po_id", po.ID, "overrides", len(overrides))
	if err := o.Process(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// applyOverrides merges human corrections into both the order columns and the
// retained extracted snapshot.
func applyOverrides(po *entity.PurchaseOrder, overrides map[string]any) {
	if po.ExtractedData == nil {
		po.ExtractedData = &entity.ExtractedPO{}
	}
	for key, value := range overrides {
		switch key {
		case "poNumber":
			if s, ok := value.(string); ok {
				po.PONumber = s
				po.ExtractedData.PONumber = s
			}
		case "vendorName", "supplier":
			if s, ok := value.(string); ok {
				po.VendorName = s
				po.ExtractedData.Supplier = s
			}
		case "buyer":
			if s, ok := value.(string); ok {
				po.ExtractedData.Buyer = s
			}
		case "date":
			if s, ok := value.(string); ok {
				po.ExtractedData.Date = s
			}
		case "currency":
			if s, ok := value.(string); ok {
				po.Currency = s
				po.ExtractedData.Currency = s
			}
		case "totalAmount", "amount":
			if d, ok := toDecimal(value); ok {
				po.TotalAmount = &d
				po.ExtractedData.Amount = &d
			}
		default:
			if po.ExtractedData.Extra == nil {
				po.ExtractedData.Extra = map[string]any{}
			}
			po.ExtractedData.Extra[key] = value
		}
	}
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

// fail parks the order for human review. DB errors are returned; the
// notification is best effort.
func (o *Orchestrator) fail(ctx context.Context, po *entity.PurchaseOrder, reason string) error {
	po.Status = constants.POStatusFailed
	po.FailureReason = &reason
	po.HumanReviewRequired = true
	if err := o.pos.UpdatePurchaseOrder(ctx, po); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	o.logger.Warn("pipeline.failed", "po_id", po.ID, "po_number", po.PONumber, "reason", reason)
	o.notifier.Notify(ctx, po.TenantID, constants.NotifyFailure,
		"Purchase order needs review",
		fmt.Sprintf("PO %s from %s failed processing: %s", po.PONumber, po.VendorName, reason),
		po.ID.String())
	return nil
}

func (o *Orchestrator) startStage(ctx context.Context, po *entity.PurchaseOrder, stage constants.Stage) (uuid.UUID, error) {
	entry := &entity.ProcessingLog{
		ID:              uuid.New(),
		TenantID:        po.TenantID,
		PurchaseOrderID: &po.ID,
		Stage:           stage,
		Status:          constants.StageStarted,
		StartTime:       time.Now(),
	}
	if err := o.logs.CreateProcessingLog(ctx, entry); err != nil {
		return uuid.Nil, fmt.Errorf("create %s log: %w", stage, err)
	}
	return entry.ID, nil
}

func (o *Orchestrator) closeStage(ctx context.Context, id uuid.UUID, status constants.StageStatus, details json.RawMessage, errorMessage *string) {
	if err := o.logs.CloseProcessingLog(ctx, id, status, details, errorMessage); err != nil {
		o.logger.Error("pipeline.close_log_failed", "log_id", id, "error", err)
	}
}
