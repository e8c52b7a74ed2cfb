package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/common"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

// Extractor turns extracted document text into a structured purchase order
// via the tenant's active LLM.
type Extractor struct {
	httpClient  *http.Client
	temperature float32
	maxTokens   int
	logger      *slog.Logger

	// newCompleter is swappable in tests.
	newCompleter func(cfg *entity.AIConfiguration, httpClient *http.Client) (Completer, error)
}

func NewExtractor(cfg common.LLMConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Extractor{
		httpClient:   &http.Client{Timeout: timeout},
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		logger:       logger,
		newCompleter: NewCompleter,
	}
}

// ExtractPurchaseOrder runs a single low-temperature completion and coerces
// the response into the fixed PO shape. A nil AI configuration returns
// (nil, nil, nil): the caller skips the attachment. The raw recovered JSON is
// returned alongside for persistence.
func (e *Extractor) ExtractPurchaseOrder(ctx context.Context, text string, aiCfg *entity.AIConfiguration) (*entity.ExtractedPO, json.RawMessage, error) {
	if aiCfg == nil {
		e.logger.Warn("llm.extract.no_ai_configuration")
		return nil, nil, nil
	}

	completer, err := e.newCompleter(aiCfg, e.httpClient)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	raw, err := completer.Complete(ctx, ChatRequest{
		Messages:    BuildExtractionPrompt(text),
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("llm extract: %w", err)
	}

	doc, ok := RecoverJSONObject(raw)
	if !ok {
		e.logger.Error("llm.extract.unparseable_response",
			"raw", truncateForLog(raw, 500),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, fmt.Errorf("no JSON object recoverable from model response")
	}

	if err := ValidateAgainstSchema(BuildPurchaseOrderJSONSchema(), doc); err != nil {
		e.logger.Error("llm.extract.schema_validation_failed",
			"error", err,
			"doc", truncateForLog(string(doc), 500),
		)
		return nil, doc, fmt.Errorf("schema validation failed: %w", err)
	}

	extracted, err := decodeExtracted(doc)
	if err != nil {
		return nil, doc, err
	}

	e.logger.Info("llm.extract.ok",
		"po_number", extracted.PONumber,
		"supplier", extracted.Supplier,
		"currency", extracted.Currency,
		"line_items", len(extracted.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return extracted, doc, nil
}

// TestConnection fires a trivial completion to verify the configuration.
func (e *Extractor) TestConnection(ctx context.Context, aiCfg *entity.AIConfiguration) entity.TestResult {
	completer, err := e.newCompleter(aiCfg, e.httpClient)
	if err != nil {
		return entity.TestResult{Success: false, Error: err.Error()}
	}
	_, err = completer.Complete(ctx, ChatRequest{
		Messages:  []ChatMessage{{Role: "user", Content: "Hello, this is a connectivity test. Reply with OK."}},
		MaxTokens: 20,
	})
	if err != nil {
		return entity.TestResult{Success: false, Error: err.Error()}
	}
	return entity.TestResult{Success: true, Details: map[string]any{"status": "Connected"}}
}

var knownFields = map[string]struct{}{
	"poNumber": {}, "supplier": {}, "buyer": {}, "date": {},
	"amount": {}, "currency": {}, "lineItems": {},
}

// decodeExtracted coerces the validated document into the typed shape.
// Unparseable numerics are treated as absent, not as hard errors; unknown
// top-level fields are preserved in Extra.
func decodeExtracted(doc []byte) (*entity.ExtractedPO, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("decode extracted object: %w", err)
	}

	out := &entity.ExtractedPO{
		PONumber: asString(m["poNumber"]),
		Supplier: asString(m["supplier"]),
		Buyer:    asString(m["buyer"]),
		Date:     asString(m["date"]),
		Currency: strings.ToUpper(asString(m["currency"])),
		Amount:   asDecimal(m["amount"]),
	}

	if items, ok := m["lineItems"].([]any); ok {
		for _, it := range items {
			im, ok := it.(map[string]any)
			if !ok {
				continue
			}
			out.LineItems = append(out.LineItems, entity.LineItem{
				Description: asString(im["description"]),
				Quantity:    asFloat(im["quantity"]),
				UnitPrice:   asFloat(im["unitPrice"]),
				TotalPrice:  asFloat(im["totalPrice"]),
			})
		}
	}

	for k, v := range m {
		if _, known := knownFields[k]; known || v == nil {
			continue
		}
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		out.Extra[k] = v
	}
	return out, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func asDecimal(v any) *decimal.Decimal {
	switch t := v.(type) {
	case float64:
		d := decimal.NewFromFloat(t)
		return &d
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		if s == "" {
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil
		}
		return &d
	default:
		return nil
	}
}

func asFloat(v any) float64 {
	if d := asDecimal(v); d != nil {
		f, _ := d.Float64()
		return f
	}
	return 0
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
