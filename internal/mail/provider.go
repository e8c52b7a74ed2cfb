// Package mail fetches candidate messages from connected mailboxes. Three
// backends sit behind one interface, selected by the account's tagged
// provider field. The candidate policy is behaviorally uniform: messages from
// the lookback window that carry attachments or have a PO-suggestive subject.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/common"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

var (
	// ErrUnauthorized means the access token was rejected; the caller may
	// refresh credentials and retry once.
	ErrUnauthorized = errors.New("mail: unauthorized")
	// ErrPermission means authorization was revoked; the account must be
	// reconnected by the user.
	ErrPermission = errors.New("mail: permission denied")
)

// Provider is one mailbox backend.
type Provider interface {
	// FetchCandidates returns messages from roughly the last window that
	// carry attachments or look PO-related, with attachments downloaded.
	FetchCandidates(ctx context.Context, acct *entity.EmailAccount, window time.Duration, maxMessages int) ([]entity.EmailMessage, error)
	// MarkProcessed marks the message read/seen so the next poll skips it.
	MarkProcessed(ctx context.Context, acct *entity.EmailAccount, msg *entity.EmailMessage) error
}

// Providers constructs backends and owns the shared HTTP client and OAuth
// client credentials.
type Providers struct {
	httpClient *http.Client
	oauth      common.OAuthConfig
	logger     *slog.Logger
}

func NewProviders(oauth common.OAuthConfig, logger *slog.Logger) *Providers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Providers{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		oauth:      oauth,
		logger:     logger,
	}
}

// ForProvider selects the backend for an account's provider tag.
func (p *Providers) ForProvider(provider constants.MailProvider) (Provider, error) {
	switch provider {
	case constants.ProviderGmail:
		return &gmailProvider{client: p.httpClient, logger: p.logger}, nil
	case constants.ProviderOutlook:
		return &outlookProvider{client: p.httpClient, logger: p.logger}, nil
	case constants.ProviderIMAP:
		return &imapProvider{logger: p.logger}, nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}

func statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrPermission
	default:
		return fmt.Errorf("mail provider status %d: %s", status, body)
	}
}
