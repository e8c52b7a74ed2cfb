package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
)

// ERPCredentials is the credential material an adapter needs. Which fields are
// set depends on the ERP type (token+account for NetSuite, basic auth for SAP,
// token for Oracle).
type ERPCredentials struct {
	Token     string `json:"token,omitempty"`
	AccountID string `json:"accountId,omitempty"`
	BasicAuth string `json:"basicAuth,omitempty"` // pre-encoded user:pass
}

// ERPSystem is a tenant's configured ERP endpoint. The pipeline uses the
// single currently-active system per tenant.
type ERPSystem struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Type        constants.ERPType
	Endpoint    string
	Credentials ERPCredentials
	Active      bool
	LastSync    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
