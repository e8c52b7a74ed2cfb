package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/common"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/erp"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/notify"
)

// fakeStore is an in-memory stand-in for the repository interfaces the
// orchestrator touches.
type fakeStore struct {
	mu            sync.Mutex
	pos           map[uuid.UUID]*entity.PurchaseOrder
	logs          []*entity.ProcessingLog
	vendors       []entity.Vendor
	erpSystem     *entity.ERPSystem
	aiConfig      *entity.AIConfiguration
	notifications []*entity.Notification
}

func newFakeStore() *fakeStore {
	return &fakeStore{pos: map[uuid.UUID]*entity.PurchaseOrder{}}
}

func (f *fakeStore) CreatePurchaseOrder(ctx context.Context, po *entity.PurchaseOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *po
	f.pos[po.ID] = &cp
	return nil
}

func (f *fakeStore) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*entity.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.pos[id]
	return &cp, nil
}

func (f *fakeStore) UpdatePurchaseOrder(ctx context.Context, po *entity.PurchaseOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *po
	f.pos[po.ID] = &cp
	return nil
}

func (f *fakeStore) ListPurchaseOrders(ctx context.Context, tenantID uuid.UUID, reviewOnly bool) ([]entity.PurchaseOrder, error) {
	return nil, nil
}

func (f *fakeStore) ListPurchaseOrdersBetween(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]entity.PurchaseOrder, error) {
	return nil, nil
}

func (f *fakeStore) CreateProcessingLog(ctx context.Context, l *entity.ProcessingLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *l
	f.logs = append(f.logs, &cp)
	return nil
}

func (f *fakeStore) CloseProcessingLog(ctx context.Context, id uuid.UUID, status constants.StageStatus, details json.RawMessage, errorMessage *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.logs {
		if l.ID == id {
			now := time.Now()
			l.Status = status
			l.EndTime = &now
			l.Details = details
			l.ErrorMessage = errorMessage
			return nil
		}
	}
	return nil
}

func (f *fakeStore) ListProcessingLogs(ctx context.Context, purchaseOrderID uuid.UUID) ([]entity.ProcessingLog, error) {
	return nil, nil
}

func (f *fakeStore) ListActiveVendors(ctx context.Context, tenantID uuid.UUID) ([]entity.Vendor, error) {
	return f.vendors, nil
}

func (f *fakeStore) GetActiveERPSystem(ctx context.Context, tenantID uuid.UUID) (*entity.ERPSystem, error) {
	return f.erpSystem, nil
}

func (f *fakeStore) GetERPSystem(ctx context.Context, id uuid.UUID) (*entity.ERPSystem, error) {
	return f.erpSystem, nil
}

func (f *fakeStore) CreateNotification(ctx context.Context, n *entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeStore) stageStatuses(poID uuid.UUID) map[constants.Stage]constants.StageStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[constants.Stage]constants.StageStatus{}
	for _, l := range f.logs {
		if l.PurchaseOrderID != nil && *l.PurchaseOrderID == poID {
			out[l.Stage] = l.Status
		}
	}
	return out
}

func newTestOrchestrator(store *fakeStore) *Orchestrator {
	notifier := notify.New(store, nil, "notifications", nil)
	registry := erp.NewRegistry(common.ERPConfig{})
	return NewOrchestrator(store, store, store, store, registry, notifier, nil)
}

func pendingPO(vendor string) *entity.PurchaseOrder {
	amount := decimal.NewFromFloat(1200.50)
	return &entity.PurchaseOrder{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		PONumber:    "4521",
		VendorName:  vendor,
		TotalAmount: &amount,
		Currency:    "USD",
		Status:      constants.POStatusPending,
		ExtractedData: &entity.ExtractedPO{
			PONumber: "4521",
			Supplier: vendor,
			Amount:   &amount,
			Currency: "USD",
		},
	}
}

func erpServer(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func activeNetSuite(endpoint string) *entity.ERPSystem {
	return &entity.ERPSystem{
		ID:       uuid.New(),
		Name:     "NetSuite Prod",
		Type:     constants.ERPNetSuite,
		Endpoint: endpoint,
		Active:   true,
	}
}

func TestProcess_Success(t *testing.T) {
	srv := erpServer(http.StatusCreated, `{"id": "ns-1"}`)
	defer srv.Close()

	store := newFakeStore()
	store.vendors = []entity.Vendor{{Name: "Acme Supplies Company"}}
	store.erpSystem = activeNetSuite(srv.URL)
	o := newTestOrchestrator(store)

	po := pendingPO("Acme Supplies Company")
	_ = store.CreatePurchaseOrder(context.Background(), po)

	if err := o.Process(context.Background(), po); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	saved, _ := store.GetPurchaseOrder(context.Background(), po.ID)
	if saved.Status != constants.POStatusCompleted {
		t.Errorf("got status %s, want completed", saved.Status)
	}
	if saved.ProcessedAt == nil {
		t.Error("completed order must carry ProcessedAt")
	}
	if saved.ERPPushResult == nil || saved.ERPPushResult.ERPID != "ns-1" {
		t.Errorf("push result = %+v", saved.ERPPushResult)
	}
	if saved.ValidationResults == nil || !saved.ValidationResults.Valid {
		t.Errorf("validation results = %+v", saved.ValidationResults)
	}

	stages := store.stageStatuses(po.ID)
	for _, stage := range []constants.Stage{constants.StageDataValidation, constants.StageERPFormatting, constants.StageERPIntegration} {
		if stages[stage] != constants.StageCompleted {
			t.Errorf("stage %s = %s, want completed", stage, stages[stage])
		}
	}

	if len(store.notifications) != 1 || store.notifications[0].Type != constants.NotifySuccess {
		t.Errorf("notifications = %+v", store.notifications)
	}
}

func TestProcess_UnknownVendor(t *testing.T) {
	srv := erpServer(http.StatusCreated, `{"id": "ns-1"}`)
	defer srv.Close()

	store := newFakeStore()
	store.vendors = []entity.Vendor{{Name: "Other Corp"}}
	store.erpSystem = activeNetSuite(srv.URL)
	o := newTestOrchestrator(store)

	po := pendingPO("Globex")
	_ = store.CreatePurchaseOrder(context.Background(), po)

	if err := o.Process(context.Background(), po); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	saved, _ := store.GetPurchaseOrder(context.Background(), po.ID)
	if saved.Status != constants.POStatusFailed {
		t.Errorf("got status %s, want failed", saved.Status)
	}
	if !saved.HumanReviewRequired {
		t.Error("failed validation must flag human review")
	}
	if saved.FailureReason == nil || *saved.FailureReason == "" {
		t.Error("failed order must carry a reason")
	}
	if saved.ProcessedAt != nil {
		t.Error("failed order must not be marked processed")
	}

	stages := store.stageStatuses(po.ID)
	if stages[constants.StageDataValidation] != constants.StageFailed {
		t.Errorf("data_validation = %s, want failed", stages[constants.StageDataValidation])
	}
	if _, ran := stages[constants.StageERPIntegration]; ran {
		t.Error("erp_integration must not run after validation fails")
	}

	if len(store.notifications) != 1 || store.notifications[0].Type != constants.NotifyFailure {
		t.Errorf("want exactly one failure notification, got %+v", store.notifications)
	}
}

func TestProcess_NoActiveERPSystem(t *testing.T) {
	store := newFakeStore()
	store.vendors = []entity.Vendor{{Name: "Acme Supplies Company"}}
	o := newTestOrchestrator(store)

	po := pendingPO("Acme Supplies Company")
	_ = store.CreatePurchaseOrder(context.Background(), po)

	if err := o.Process(context.Background(), po); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	saved, _ := store.GetPurchaseOrder(context.Background(), po.ID)
	if saved.Status != constants.POStatusFailed {
		t.Errorf("got status %s, want failed", saved.Status)
	}
	if saved.FailureReason == nil || *saved.FailureReason != "no active ERP system configured" {
		t.Errorf("failure reason = %v", saved.FailureReason)
	}
}

func TestProcess_ERPRejection(t *testing.T) {
	srv := erpServer(http.StatusInternalServerError, `duplicate document number`)
	defer srv.Close()

	store := newFakeStore()
	store.vendors = []entity.Vendor{{Name: "Acme Supplies Company"}}
	store.erpSystem = activeNetSuite(srv.URL)
	o := newTestOrchestrator(store)

	po := pendingPO("Acme Supplies Company")
	_ = store.CreatePurchaseOrder(context.Background(), po)

	if err := o.Process(context.Background(), po); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	saved, _ := store.GetPurchaseOrder(context.Background(), po.ID)
	if saved.Status != constants.POStatusFailed {
		t.Errorf("got status %s, want failed", saved.Status)
	}
	if saved.ERPPushResult == nil || saved.ERPPushResult.Success {
		t.Errorf("push result = %+v", saved.ERPPushResult)
	}
	if len(store.notifications) != 1 || store.notifications[0].Type != constants.NotifyFailure {
		t.Errorf("want exactly one failure notification, got %d", len(store.notifications))
	}
}

func TestProcess_NeverLeftProcessing(t *testing.T) {
	// Every terminal path must leave the order in completed or failed.
	srv := erpServer(http.StatusBadGateway, `upstream down`)
	defer srv.Close()

	store := newFakeStore()
	store.vendors = []entity.Vendor{{Name: "Acme Supplies Company"}}
	store.erpSystem = activeNetSuite(srv.URL)
	o := newTestOrchestrator(store)

	po := pendingPO("Acme Supplies Company")
	_ = store.CreatePurchaseOrder(context.Background(), po)
	_ = o.Process(context.Background(), po)

	saved, _ := store.GetPurchaseOrder(context.Background(), po.ID)
	if saved.Status == constants.POStatusProcessing || saved.Status == constants.POStatusPending {
		t.Errorf("order left in non-terminal status %s", saved.Status)
	}
}

func TestReprocess_AppliesOverridesAndCompletes(t *testing.T) {
	srv := erpServer(http.StatusCreated, `{"id": "ns-2"}`)
	defer srv.Close()

	store := newFakeStore()
	store.vendors = []entity.Vendor{{Name: "Acme Supplies Company"}}
	store.erpSystem = activeNetSuite(srv.URL)
	o := newTestOrchestrator(store)

	po := pendingPO("Acme Suplies Compny") // typo from OCR
	_ = store.CreatePurchaseOrder(context.Background(), po)
	_ = o.Process(context.Background(), po)

	failed, _ := store.GetPurchaseOrder(context.Background(), po.ID)
	if failed.Status != constants.POStatusFailed {
		t.Fatalf("setup: got status %s, want failed", failed.Status)
	}

	fixed, err := o.Reprocess(context.Background(), po.ID, map[string]any{
		"vendorName":  "Acme Supplies Company",
		"totalAmount": 1300.00,
	})
	if err != nil {
		t.Fatalf("Reprocess failed: %v", err)
	}
	if fixed.Status != constants.POStatusCompleted {
		t.Errorf("got status %s, want completed", fixed.Status)
	}
	if fixed.VendorName != "Acme Supplies Company" {
		t.Errorf("vendor override not applied: %q", fixed.VendorName)
	}
	if fixed.TotalAmount == nil || fixed.TotalAmount.StringFixed(2) != "1300.00" {
		t.Errorf("amount override not applied: %v", fixed.TotalAmount)
	}
	if fixed.FailureReason != nil || fixed.HumanReviewRequired {
		t.Error("reprocess must clear failure state")
	}
}

func TestReprocess_RejectsInFlightOrder(t *testing.T) {
	store := newFakeStore()
	o := newTestOrchestrator(store)

	po := pendingPO("Acme Supplies Company")
	po.Status = constants.POStatusProcessing
	_ = store.CreatePurchaseOrder(context.Background(), po)

	if _, err := o.Reprocess(context.Background(), po.ID, nil); err == nil {
		t.Fatal("expected rejection of an in-flight order")
	}
}
