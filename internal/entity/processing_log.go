package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
)

// ProcessingLog is one record per (PO, stage, attempt). Append-only: created
// at stage entry, updated (not replaced) at stage exit. PurchaseOrderID is nil
// for email-level failures that precede PO creation.
type ProcessingLog struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	PurchaseOrderID *uuid.UUID
	Stage           constants.Stage
	Status          constants.StageStatus
	StartTime       time.Time
	EndTime         *time.Time
	DurationMS      *int64
	Details         json.RawMessage
	ErrorMessage    *string
	CreatedAt       time.Time
}
