package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/classify"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/extract"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/llm"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/repository"
)

// Classifier decides whether a candidate email is PO-related.
type Classifier interface {
	IsPORelated(ctx context.Context, msg *entity.EmailMessage, aiCfg *entity.AIConfiguration) bool
}

// TextExtractor pulls plain text out of an attachment.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, contentType, filename string) string
}

// DataExtractor turns document text into a structured purchase order.
type DataExtractor interface {
	ExtractPurchaseOrder(ctx context.Context, text string, aiCfg *entity.AIConfiguration) (*entity.ExtractedPO, json.RawMessage, error)
}

// AttachmentProcessor handles one candidate email end to end: classification,
// text extraction, structured extraction, order creation, then hands the new
// order to the Orchestrator. A purchase order row is created only once
// structured extraction yields data; earlier failures land in processing_logs
// with no order attached.
type AttachmentProcessor struct {
	classifier   Classifier
	texts        TextExtractor
	data         DataExtractor
	pos          repository.PurchaseOrderRepository
	logs         repository.ProcessingLogRepository
	ais          repository.AIConfigurationRepository
	orchestrator *Orchestrator
	logger       *slog.Logger
}

func NewAttachmentProcessor(
	classifier Classifier,
	texts TextExtractor,
	data DataExtractor,
	pos repository.PurchaseOrderRepository,
	logs repository.ProcessingLogRepository,
	ais repository.AIConfigurationRepository,
	orchestrator *Orchestrator,
	logger *slog.Logger,
) *AttachmentProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttachmentProcessor{
		classifier:   classifier,
		texts:        texts,
		data:         data,
		pos:          pos,
		logs:         logs,
		ais:          ais,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// HandleEmail processes one candidate email and returns how many purchase
// orders it produced. Per-attachment failures are logged and skipped so one
// bad document never blocks its siblings.
func (p *AttachmentProcessor) HandleEmail(ctx context.Context, acct *entity.EmailAccount, msg *entity.EmailMessage) (int, error) {
	aiCfg, err := p.ais.GetActiveAIConfiguration(ctx, acct.TenantID)
	if err != nil {
		return 0, fmt.Errorf("load AI configuration: %w", err)
	}

	detectStart := time.Now()
	if !p.classifier.IsPORelated(ctx, msg, aiCfg) {
		p.logger.Debug("intake.not_po_related", "subject", msg.Subject, "from", msg.From)
		return 0, nil
	}
	detectEnd := time.Now()

	if aiCfg == nil {
		p.logger.Warn("intake.no_ai_configuration", "tenant_id", acct.TenantID, "subject", msg.Subject)
		return 0, nil
	}

	created := 0
	for _, att := range msg.Attachments {
		if !constants.IsSupportedAttachment(att.Filename, att.ContentType) {
			p.logger.Debug("intake.attachment_skipped", "filename", att.Filename, "content_type", att.ContentType)
			continue
		}
		if p.handleAttachment(ctx, acct, msg, att, aiCfg, detectStart, detectEnd) {
			created++
		}
	}
	return created, nil
}

func (p *AttachmentProcessor) handleAttachment(ctx context.Context, acct *entity.EmailAccount, msg *entity.EmailMessage, att entity.Attachment, aiCfg *entity.AIConfiguration, detectStart, detectEnd time.Time) bool {
	ocrStart := time.Now()
	text := p.texts.ExtractText(ctx, att.Data, att.ContentType, att.Filename)
	quality := extract.CheckQuality(text)
	ocrEnd := time.Now()

	if strings.TrimSpace(text) == "" {
		reason := fmt.Sprintf("no text extracted from %s", att.Filename)
		p.logger.Warn("intake.text_empty", "filename", att.Filename)
		p.recordStage(ctx, acct.TenantID, nil, constants.StageOCRProcessing, constants.StageFailed,
			ocrStart, ocrEnd, stageDetails(msg, att, map[string]any{"confidence": quality.Confidence}), &reason)
		return false
	}
	// Low quality informs the stage record but never blocks extraction; the
	// model often recovers fields from text the heuristics score poorly.
	if !quality.Valid {
		p.logger.Warn("intake.text_quality_low", "filename", att.Filename, "issues", quality.Issues, "confidence", quality.Confidence)
	}

	llmStart := time.Now()
	extracted, raw, err := p.data.ExtractPurchaseOrder(ctx, text, aiCfg)
	llmEnd := time.Now()
	if err != nil {
		reason := fmt.Sprintf("structured extraction failed for %s: %v", att.Filename, err)
		p.logger.Warn("intake.extraction_failed", "filename", att.Filename, "error", err)
		p.recordStage(ctx, acct.TenantID, nil, constants.StageDataExtraction, constants.StageFailed,
			llmStart, llmEnd, stageDetails(msg, att, nil), &reason)
		return false
	}
	if extracted == nil {
		return false
	}

	po := p.newPurchaseOrder(acct, msg, extracted)
	if err := p.pos.CreatePurchaseOrder(ctx, po); err != nil {
		p.logger.Error("intake.create_po_failed", "po_number", po.PONumber, "error", err)
		return false
	}
	p.logger.Info("intake.po_created", "po_id", po.ID, "po_number", po.PONumber, "vendor", po.VendorName, "filename", att.Filename)

	// Stages that ran before the order row existed get their entries now.
	p.recordStage(ctx, acct.TenantID, &po.ID, constants.StageEmailDetection, constants.StageCompleted,
		detectStart, detectEnd, stageDetails(msg, att, nil), nil)
	p.recordStage(ctx, acct.TenantID, &po.ID, constants.StageOCRProcessing, constants.StageCompleted,
		ocrStart, ocrEnd, stageDetails(msg, att, map[string]any{"confidence": quality.Confidence, "issues": quality.Issues, "text_length": len(text)}), nil)
	p.recordStage(ctx, acct.TenantID, &po.ID, constants.StageDataExtraction, constants.StageCompleted,
		llmStart, llmEnd, raw, nil)

	if err := p.orchestrator.Process(ctx, po); err != nil {
		p.logger.Error("intake.process_failed", "po_id", po.ID, "error", err)
	}
	return true
}

func (p *AttachmentProcessor) newPurchaseOrder(acct *entity.EmailAccount, msg *entity.EmailMessage, extracted *entity.ExtractedPO) *entity.PurchaseOrder {
	currency := strings.ToUpper(extracted.Currency)
	if currency == "" {
		currency = "USD"
	}
	return &entity.PurchaseOrder{
		ID:            uuid.New(),
		TenantID:      acct.TenantID,
		PONumber:      extracted.PONumber,
		VendorName:    extracted.Supplier,
		TotalAmount:   extracted.Amount,
		Currency:      currency,
		Status:        constants.POStatusPending,
		EmailSource:   msg.ProviderID,
		EmailSubject:  msg.Subject,
		EmailFrom:     msg.From,
		ExtractedData: extracted,
	}
}

func (p *AttachmentProcessor) recordStage(ctx context.Context, tenantID uuid.UUID, poID *uuid.UUID, stage constants.Stage, status constants.StageStatus, start, end time.Time, details json.RawMessage, errorMessage *string) {
	duration := end.Sub(start).Milliseconds()
	entry := &entity.ProcessingLog{
		ID:              uuid.New(),
		TenantID:        tenantID,
		PurchaseOrderID: poID,
		Stage:           stage,
		Status:          status,
		StartTime:       start,
		EndTime:         &end,
		DurationMS:      &duration,
		Details:         details,
		ErrorMessage:    errorMessage,
	}
	if err := p.logs.CreateProcessingLog(ctx, entry); err != nil {
		p.logger.Error("intake.record_stage_failed", "stage", stage, "error", err)
	}
}

func stageDetails(msg *entity.EmailMessage, att entity.Attachment, extra map[string]any) json.RawMessage {
	details := map[string]any{
		"subject":  msg.Subject,
		"from":     msg.From,
		"filename": att.Filename,
	}
	for k, v := range extra {
		details[k] = v
	}
	b, _ := json.Marshal(details)
	return b
}

// compile-time checks that the concrete implementations satisfy the intake
// contracts.
var (
	_ Classifier    = (*classify.Classifier)(nil)
	_ TextExtractor = (*extract.Extractor)(nil)
	_ DataExtractor = (*llm.Extractor)(nil)
)
