package erp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/common"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

func testPO() *entity.PurchaseOrder {
	amount := decimal.NewFromFloat(1200.50)
	return &entity.PurchaseOrder{
		PONumber:    "4521",
		VendorName:  "Acme Supplies Company",
		TotalAmount: &amount,
		Currency:    "USD",
		ExtractedData: &entity.ExtractedPO{
			PONumber: "4521",
			Supplier: "Acme Supplies Company",
			Amount:   &amount,
			Currency: "USD",
			LineItems: []entity.LineItem{
				{Description: "Widgets", Quantity: 10, UnitPrice: 120.05, TotalPrice: 1200.50},
			},
		},
	}
}

func testSystem(endpoint string, typ constants.ERPType) *entity.ERPSystem {
	return &entity.ERPSystem{
		Type:     typ,
		Endpoint: endpoint,
		Credentials: entity.ERPCredentials{
			Token:     "tok-123",
			AccountID: "ACCT1",
			BasicAuth: "dXNlcjpwYXNz",
		},
	}
}

func adapterFor(t *testing.T, typ constants.ERPType) Adapter {
	t.Helper()
	a, err := NewRegistry(common.ERPConfig{}).ForType(typ)
	if err != nil {
		t.Fatalf("ForType(%s): %v", typ, err)
	}
	return a
}

func TestNetSuitePush(t *testing.T) {
	var gotPath, gotAuth, gotAccount string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccount = r.Header.Get("NetSuite-Account")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotPayload)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "ns-789"}`))
	}))
	defer srv.Close()

	result := adapterFor(t, constants.ERPNetSuite).Push(context.Background(), testSystem(srv.URL, constants.ERPNetSuite), testPO())
	if !result.Success {
		t.Fatalf("push failed: %s", result.Error)
	}
	if result.ERPID != "ns-789" {
		t.Errorf("got ERPID %q, want ns-789", result.ERPID)
	}
	if gotPath != "/services/rest/record/v1/purchaseorder" {
		t.Errorf("got path %q", gotPath)
	}
	if gotAuth != "Bearer tok-123" || gotAccount != "ACCT1" {
		t.Errorf("auth headers = %q / %q", gotAuth, gotAccount)
	}
	entityField, _ := gotPayload["entity"].(map[string]any)
	if entityField["internalId"] != "acme-supplies-company" {
		t.Errorf("vendor internalId = %v", entityField["internalId"])
	}
}

func TestNetSuitePush_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid entity reference", http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := adapterFor(t, constants.ERPNetSuite).Push(context.Background(), testSystem(srv.URL, constants.ERPNetSuite), testPO())
	if result.Success {
		t.Fatal("HTTP 500 must surface as a failed PushResult")
	}
	if result.Error == "" {
		t.Error("failed push must carry the response body as error")
	}
}

func TestNetSuitePush_Unreachable(t *testing.T) {
	sys := testSystem("http://127.0.0.1:1", constants.ERPNetSuite)
	result := adapterFor(t, constants.ERPNetSuite).Push(context.Background(), sys, testPO())
	if result.Success {
		t.Fatal("connection error must surface as a failed PushResult")
	}
}

func TestSAPPush(t *testing.T) {
	var gotPath, gotAuth, gotCSRF string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotCSRF = r.Header.Get("X-CSRF-Token")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotPayload)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"d": {"PurchaseOrder": "4500012345"}}`))
	}))
	defer srv.Close()

	result := adapterFor(t, constants.ERPSAP).Push(context.Background(), testSystem(srv.URL, constants.ERPSAP), testPO())
	if !result.Success {
		t.Fatalf("push failed: %s", result.Error)
	}
	if result.ERPID != "4500012345" {
		t.Errorf("got ERPID %q, want 4500012345", result.ERPID)
	}
	if gotPath != "/sap/opu/odata/sap/API_PURCHASEORDER_PROCESS_SRV/A_PurchaseOrder" {
		t.Errorf("got path %q", gotPath)
	}
	if gotAuth != "Basic dXNlcjpwYXNz" || gotCSRF != "fetch" {
		t.Errorf("auth headers = %q / %q", gotAuth, gotCSRF)
	}
	items, _ := gotPayload["PurchaseOrderItem"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %v", items)
	}
	first, _ := items[0].(map[string]any)
	if first["PurchaseOrderItem"] != "10" {
		t.Errorf("item numbering should start at 10, got %v", first["PurchaseOrderItem"])
	}
}

func TestOraclePush(t *testing.T) {
	var gotPath, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"PurchaseOrderId": 300000123456789}`))
	}))
	defer srv.Close()

	result := adapterFor(t, constants.ERPOracle).Push(context.Background(), testSystem(srv.URL, constants.ERPOracle), testPO())
	if !result.Success {
		t.Fatalf("push failed: %s", result.Error)
	}
	if result.ERPID != "300000123456789" {
		t.Errorf("got ERPID %q, want 300000123456789", result.ERPID)
	}
	if gotPath != "/fscmRestApi/resources/11.13.18.05/purchaseOrders" {
		t.Errorf("got path %q", gotPath)
	}
	if gotContentType != "application/vnd.oracle.adf.resourceitem+json" {
		t.Errorf("got content type %q", gotContentType)
	}
}

func TestForType_Unknown(t *testing.T) {
	if _, err := NewRegistry(common.ERPConfig{}).ForType("dynamics"); err == nil {
		t.Fatal("expected error for unknown ERP type")
	}
}

func TestFormatForERP(t *testing.T) {
	po := testPO()
	formatted := FormatForERP(po)
	if formatted["formattedForERP"] != true {
		t.Error("missing formattedForERP marker")
	}
	if formatted["formattedAt"] == nil {
		t.Error("missing formattedAt timestamp")
	}
	if formatted["poNumber"] != "4521" {
		t.Errorf("extracted fields should carry through, got %v", formatted["poNumber"])
	}
}

func TestNetSuiteTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/rest/record/v1/employee" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	result := adapterFor(t, constants.ERPNetSuite).TestConnection(context.Background(), testSystem(srv.URL, constants.ERPNetSuite))
	if !result.Success {
		t.Fatalf("test connection failed: %s", result.Error)
	}
}
