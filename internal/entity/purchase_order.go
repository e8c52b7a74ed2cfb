package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
)

// LineItem is one line of an extracted purchase order.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	TotalPrice  float64 `json:"totalPrice"`
}

// ExtractedPO is the normalized shape we want from the LLM. Any field may be
// empty when the document doesn't carry it. Extra preserves provider-specific
// fields the fixed schema doesn't know about.
type ExtractedPO struct {
	PONumber  string           `json:"poNumber,omitempty"`
	Supplier  string           `json:"supplier,omitempty"`
	Buyer     string           `json:"buyer,omitempty"`
	Date      string           `json:"date,omitempty"` // YYYY-MM-DD
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Currency  string           `json:"currency,omitempty"` // ISO 4217
	LineItems []LineItem       `json:"lineItems,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// ValidationResult is the outcome of vendor validation (stage 3).
type ValidationResult struct {
	Valid         bool     `json:"isValid"`
	MatchedVendor *Vendor  `json:"matchedVendor,omitempty"`
	Suggestions   []string `json:"suggestions,omitempty"`
	Confidence    float64  `json:"confidence"`
	Reason        string   `json:"reason,omitempty"`
}

// PushResult is the outcome of an ERP submission (stage 5).
type PushResult struct {
	Success bool   `json:"success"`
	ERPID   string `json:"erpId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TestResult is the outcome of an ERP or LLM connectivity self-test.
type TestResult struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// PurchaseOrder is one extracted order. Mutated exclusively by the
// orchestrator as it advances stages; never deleted, only re-entered via
// reprocess.
type PurchaseOrder struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	PONumber      string
	VendorName    string
	VendorAddress string
	TotalAmount   *decimal.Decimal
	Currency      string
	Status        constants.POStatus

	EmailSource  string // provider message ID
	EmailSubject string
	EmailFrom    string

	ExtractedData     *ExtractedPO
	ValidationResults *ValidationResult
	ERPPushResult     *PushResult

	FailureReason       *string
	HumanReviewRequired bool

	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
