package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/common"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

type fakeCompleter struct {
	response string
	err      error
	lastReq  ChatRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req ChatRequest) (string, error) {
	f.lastReq = req
	return f.response, f.err
}

func newTestExtractor(fake *fakeCompleter) *Extractor {
	e := NewExtractor(testLLMConfig(), nil)
	e.newCompleter = func(cfg *entity.AIConfiguration, httpClient *http.Client) (Completer, error) {
		return fake, nil
	}
	return e
}

func testLLMConfig() common.LLMConfig {
	return common.LLMConfig{Temperature: 0.1, MaxTokens: 2000}
}

func testAIConfig() *entity.AIConfiguration {
	return &entity.AIConfiguration{Provider: "openai", ModelName: "gpt-4o-mini", APIKey: "sk-test"}
}

func TestExtractPurchaseOrder_Success(t *testing.T) {
	fake := &fakeCompleter{response: `{
		"poNumber": "4521",
		"supplier": "Acme Co",
		"amount": 1200.50,
		"currency": "USD",
		"lineItems": [{"description": "Widgets", "quantity": 10, "unitPrice": 120.05, "totalPrice": 1200.50}]
	}`}
	e := newTestExtractor(fake)

	text := "PO Number: 4521, Supplier: Acme Co, Amount: 1200.50 USD"
	extracted, raw, err := e.ExtractPurchaseOrder(context.Background(), text, testAIConfig())
	if err != nil {
		t.Fatalf("ExtractPurchaseOrder failed: %v", err)
	}
	if extracted.PONumber != "4521" {
		t.Errorf("got poNumber %q, want 4521", extracted.PONumber)
	}
	if extracted.Supplier != "Acme Co" {
		t.Errorf("got supplier %q, want Acme Co", extracted.Supplier)
	}
	if extracted.Amount == nil || extracted.Amount.StringFixed(2) != "1200.50" {
		t.Errorf("got amount %v, want 1200.50", extracted.Amount)
	}
	if len(extracted.LineItems) != 1 || extracted.LineItems[0].Quantity != 10 {
		t.Errorf("line items not decoded: %+v", extracted.LineItems)
	}
	if len(raw) == 0 {
		t.Error("expected raw JSON to be returned")
	}
	if len(fake.lastReq.Messages) == 0 {
		t.Fatal("no messages sent to completer")
	}
}

func TestExtractPurchaseOrder_NumericPONumber(t *testing.T) {
	// Models sometimes emit numbers where strings are expected.
	fake := &fakeCompleter{response: `{"poNumber": 4521, "supplier": "Acme Co", "amount": "1200.50"}`}
	e := newTestExtractor(fake)

	extracted, _, err := e.ExtractPurchaseOrder(context.Background(), "some text", testAIConfig())
	if err != nil {
		t.Fatalf("ExtractPurchaseOrder failed: %v", err)
	}
	if extracted.PONumber != "4521" {
		t.Errorf("got poNumber %q, want coerced 4521", extracted.PONumber)
	}
	if extracted.Amount == nil || extracted.Amount.StringFixed(2) != "1200.50" {
		t.Errorf("got amount %v, want 1200.50", extracted.Amount)
	}
}

func TestExtractPurchaseOrder_UnknownFieldsPreserved(t *testing.T) {
	fake := &fakeCompleter{response: `{"poNumber": "1", "deliveryTerms": "FOB origin"}`}
	e := newTestExtractor(fake)

	extracted, _, err := e.ExtractPurchaseOrder(context.Background(), "text", testAIConfig())
	if err != nil {
		t.Fatalf("ExtractPurchaseOrder failed: %v", err)
	}
	if extracted.Extra["deliveryTerms"] != "FOB origin" {
		t.Errorf("unknown field dropped: %v", extracted.Extra)
	}
}

func TestExtractPurchaseOrder_ProseWrappedJSON(t *testing.T) {
	fake := &fakeCompleter{response: "Here you go:\n```json\n{\"poNumber\": \"9\"}\n```"}
	e := newTestExtractor(fake)

	extracted, _, err := e.ExtractPurchaseOrder(context.Background(), "text", testAIConfig())
	if err != nil {
		t.Fatalf("ExtractPurchaseOrder failed: %v", err)
	}
	if extracted.PONumber != "9" {
		t.Errorf("got poNumber %q, want 9", extracted.PONumber)
	}
}

func TestExtractPurchaseOrder_NilConfig(t *testing.T) {
	e := newTestExtractor(&fakeCompleter{response: "{}"})

	extracted, raw, err := e.ExtractPurchaseOrder(context.Background(), "text", nil)
	if err != nil {
		t.Fatalf("expected nil error for nil config, got %v", err)
	}
	if extracted != nil || raw != nil {
		t.Error("expected nil results for nil config")
	}
}

func TestExtractPurchaseOrder_CompleterError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("connection refused")}
	e := newTestExtractor(fake)

	if _, _, err := e.ExtractPurchaseOrder(context.Background(), "text", testAIConfig()); err == nil {
		t.Fatal("expected error when completer fails")
	}
}

func TestExtractPurchaseOrder_NoJSONInResponse(t *testing.T) {
	fake := &fakeCompleter{response: "I don't see a purchase order here."}
	e := newTestExtractor(fake)

	if _, _, err := e.ExtractPurchaseOrder(context.Background(), "text", testAIConfig()); err == nil {
		t.Fatal("expected error when response has no JSON object")
	}
}
