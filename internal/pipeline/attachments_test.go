package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

func (f *fakeStore) GetActiveAIConfiguration(ctx context.Context, tenantID uuid.UUID) (*entity.AIConfiguration, error) {
	return f.aiConfig, nil
}

func (f *fakeStore) ActivateAIConfiguration(ctx context.Context, tenantID, id uuid.UUID) error {
	return nil
}

type fakeClassifier struct{ decision bool }

func (f *fakeClassifier) IsPORelated(ctx context.Context, msg *entity.EmailMessage, aiCfg *entity.AIConfiguration) bool {
	return f.decision
}

type fakeTextExtractor struct{ text string }

func (f *fakeTextExtractor) ExtractText(ctx context.Context, data []byte, contentType, filename string) string {
	return f.text
}

type fakeDataExtractor struct {
	extracted *entity.ExtractedPO
	err       error
}

func (f *fakeDataExtractor) ExtractPurchaseOrder(ctx context.Context, text string, aiCfg *entity.AIConfiguration) (*entity.ExtractedPO, json.RawMessage, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	raw, _ := json.Marshal(f.extracted)
	return f.extracted, raw, nil
}

const usableText = "PURCHASE ORDER 4521 from Acme Supplies Company, total 1200.50 USD"

func testEmail() *entity.EmailMessage {
	return &entity.EmailMessage{
		ProviderID: "msg-1",
		Subject:    "Purchase Order 4521",
		From:       "orders@acme.example",
		Attachments: []entity.Attachment{
			{Filename: "po.pdf", ContentType: "application/pdf", Data: []byte("%PDF-")},
		},
	}
}

func testAccount() *entity.EmailAccount {
	return &entity.EmailAccount{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Email:    "buyer@example.com",
		Provider: constants.ProviderGmail,
	}
}

func extractedAcme() *entity.ExtractedPO {
	amount := decimal.NewFromFloat(1200.50)
	return &entity.ExtractedPO{
		PONumber: "4521",
		Supplier: "Acme Supplies Company",
		Amount:   &amount,
		Currency: "usd",
	}
}

func newIntake(store *fakeStore, classifier Classifier, texts TextExtractor, data DataExtractor, erpStatus int) (*AttachmentProcessor, func()) {
	srv := erpServer(erpStatus, `{"id": "ns-1"}`)
	store.erpSystem = activeNetSuite(srv.URL)
	o := newTestOrchestrator(store)
	return NewAttachmentProcessor(classifier, texts, data, store, store, store, o, nil), srv.Close
}

func TestHandleEmail_CreatesAndProcessesOrder(t *testing.T) {
	store := newFakeStore()
	store.vendors = []entity.Vendor{{Name: "Acme Supplies Company"}}
	store.aiConfig = &entity.AIConfiguration{Provider: "openai", ModelName: "gpt-4o-mini"}

	intake, done := newIntake(store,
		&fakeClassifier{decision: true},
		&fakeTextExtractor{text: usableText},
		&fakeDataExtractor{extracted: extractedAcme()},
		http.StatusCreated)
	defer done()

	created, err := intake.HandleEmail(context.Background(), testAccount(), testEmail())
	if err != nil {
		t.Fatalf("HandleEmail failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("got %d orders, want 1", created)
	}

	var po *entity.PurchaseOrder
	for _, p := range store.pos {
		po = p
	}
	if po.PONumber != "4521" || po.VendorName != "Acme Supplies Company" {
		t.Errorf("order fields = %q / %q", po.PONumber, po.VendorName)
	}
	if po.Currency != "USD" {
		t.Errorf("currency should be uppercased/defaulted, got %q", po.Currency)
	}
	if po.EmailSource != "msg-1" || po.EmailSubject != "Purchase Order 4521" {
		t.Errorf("email provenance = %q / %q", po.EmailSource, po.EmailSubject)
	}
	if po.Status != constants.POStatusCompleted {
		t.Errorf("got status %s, want completed", po.Status)
	}

	stages := store.stageStatuses(po.ID)
	for _, stage := range []constants.Stage{
		constants.StageEmailDetection,
		constants.StageOCRProcessing,
		constants.StageDataExtraction,
		constants.StageDataValidation,
		constants.StageERPFormatting,
		constants.StageERPIntegration,
	} {
		if stages[stage] != constants.StageCompleted {
			t.Errorf("stage %s = %q, want completed", stage, stages[stage])
		}
	}
}

func TestHandleEmail_NotPORelated(t *testing.T) {
	store := newFakeStore()
	store.aiConfig = &entity.AIConfiguration{Provider: "openai"}

	intake, done := newIntake(store,
		&fakeClassifier{decision: false},
		&fakeTextExtractor{text: usableText},
		&fakeDataExtractor{extracted: extractedAcme()},
		http.StatusCreated)
	defer done()

	created, err := intake.HandleEmail(context.Background(), testAccount(), testEmail())
	if err != nil {
		t.Fatalf("HandleEmail failed: %v", err)
	}
	if created != 0 || len(store.pos) != 0 {
		t.Errorf("rejected email must not create orders, got %d", created)
	}
}

func TestHandleEmail_EmptyText(t *testing.T) {
	store := newFakeStore()
	store.aiConfig = &entity.AIConfiguration{Provider: "openai"}

	intake, done := newIntake(store,
		&fakeClassifier{decision: true},
		&fakeTextExtractor{text: ""},
		&fakeDataExtractor{extracted: extractedAcme()},
		http.StatusCreated)
	defer done()

	created, err := intake.HandleEmail(context.Background(), testAccount(), testEmail())
	if err != nil {
		t.Fatalf("HandleEmail failed: %v", err)
	}
	if created != 0 || len(store.pos) != 0 {
		t.Error("empty text must not create an order")
	}

	var failedOCR bool
	for _, l := range store.logs {
		if l.Stage == constants.StageOCRProcessing && l.Status == constants.StageFailed && l.PurchaseOrderID == nil {
			failedOCR = true
		}
	}
	if !failedOCR {
		t.Error("expected a failed ocr_processing log with no order attached")
	}
}

// Garbled OCR output still goes to the model; the quality score is advisory.
func TestHandleEmail_LowQualityTextStillExtracted(t *testing.T) {
	store := newFakeStore()
	store.vendors = []entity.Vendor{{Name: "Acme Supplies Company"}}
	store.aiConfig = &entity.AIConfiguration{Provider: "openai"}

	intake, done := newIntake(store,
		&fakeClassifier{decision: true},
		&fakeTextExtractor{text: "##4521## 1200.50 @@@@ ||| 8821 9932 0044 1102 5567"},
		&fakeDataExtractor{extracted: extractedAcme()},
		http.StatusCreated)
	defer done()

	created, err := intake.HandleEmail(context.Background(), testAccount(), testEmail())
	if err != nil {
		t.Fatalf("HandleEmail failed: %v", err)
	}
	if created != 1 || len(store.pos) != 1 {
		t.Fatalf("low-quality text must still produce an order, got %d", created)
	}

	for _, l := range store.logs {
		if l.Stage == constants.StageOCRProcessing && l.Status == constants.StageFailed {
			t.Error("low-quality text must not fail the ocr_processing stage")
		}
	}
}

func TestHandleEmail_ExtractionError(t *testing.T) {
	store := newFakeStore()
	store.aiConfig = &entity.AIConfiguration{Provider: "openai"}

	intake, done := newIntake(store,
		&fakeClassifier{decision: true},
		&fakeTextExtractor{text: usableText},
		&fakeDataExtractor{err: errors.New("model unavailable")},
		http.StatusCreated)
	defer done()

	created, err := intake.HandleEmail(context.Background(), testAccount(), testEmail())
	if err != nil {
		t.Fatalf("HandleEmail failed: %v", err)
	}
	if created != 0 || len(store.pos) != 0 {
		t.Error("extraction error must not create an order")
	}

	var failedExtraction bool
	for _, l := range store.logs {
		if l.Stage == constants.StageDataExtraction && l.Status == constants.StageFailed && l.PurchaseOrderID == nil {
			failedExtraction = true
		}
	}
	if !failedExtraction {
		t.Error("expected a failed data_extraction log with no order attached")
	}
}

func TestHandleEmail_NoAIConfiguration(t *testing.T) {
	store := newFakeStore()

	intake, done := newIntake(store,
		&fakeClassifier{decision: true},
		&fakeTextExtractor{text: usableText},
		&fakeDataExtractor{extracted: extractedAcme()},
		http.StatusCreated)
	defer done()

	created, err := intake.HandleEmail(context.Background(), testAccount(), testEmail())
	if err != nil {
		t.Fatalf("HandleEmail failed: %v", err)
	}
	if created != 0 {
		t.Error("missing AI configuration must skip the email, not fail it")
	}
}

func TestHandleEmail_UnsupportedAttachmentSkipped(t *testing.T) {
	store := newFakeStore()
	store.aiConfig = &entity.AIConfiguration{Provider: "openai"}

	intake, done := newIntake(store,
		&fakeClassifier{decision: true},
		&fakeTextExtractor{text: usableText},
		&fakeDataExtractor{extracted: extractedAcme()},
		http.StatusCreated)
	defer done()

	msg := testEmail()
	msg.Attachments = []entity.Attachment{{Filename: "notes.txt", ContentType: "text/plain"}}

	created, err := intake.HandleEmail(context.Background(), testAccount(), msg)
	if err != nil {
		t.Fatalf("HandleEmail failed: %v", err)
	}
	if created != 0 || len(store.pos) != 0 {
		t.Error("unsupported attachment must be skipped")
	}
}
