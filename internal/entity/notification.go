package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
)

// Notification is one user-visible success/failure/warning message.
type Notification struct {
	ID            uuid.UUID                  `json:"id"`
	TenantID      uuid.UUID                  `json:"tenantId"`
	Type          constants.NotificationType `json:"type"`
	Title         string                     `json:"title"`
	Message       string                     `json:"message"`
	Read          bool                       `json:"read"`
	RelatedEntity string                     `json:"relatedEntity,omitempty"` // PO ID or other entity
	CreatedAt     time.Time                  `json:"createdAt"`
}
