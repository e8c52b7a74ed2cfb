package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
)

// IMAPConfig holds connection details for a generic IMAP mailbox.
type IMAPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	UseTLS   bool   `json:"useTls"`
}

// EmailAccount is a connected mailbox. Credential material is provider
// specific: OAuth tokens for gmail/outlook, IMAPConfig for imap.
type EmailAccount struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Email    string
	Provider constants.MailProvider

	AccessToken  string
	RefreshToken string
	IMAPConfig   *IMAPConfig

	Active bool
	// ReconnectRequired flips on permission (403) failures; the poller skips
	// the account until the user re-authorizes it.
	ReconnectRequired bool
	LastChecked       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
