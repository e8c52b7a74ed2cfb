package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
)

// AIConfiguration is the tenant's LLM provider/model/credentials. Exactly one
// may be active per tenant; activation deactivates siblings.
type AIConfiguration struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Provider  constants.AIProvider
	ModelName string
	APIKey    string
	Endpoint  string // for custom OpenAI-compatible providers
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
