package entity

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is tenant master data, read-only from the pipeline's perspective.
type Vendor struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"-"`
	Name           string    `json:"name"`
	AlternateNames []string  `json:"alternateNames,omitempty"`
	Address        string    `json:"address,omitempty"`
	TaxID          string    `json:"taxId,omitempty"`
	Active         bool      `json:"-"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}
