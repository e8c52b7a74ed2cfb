package mail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

// Refresh exchanges the account's refresh token for a fresh access token and
// updates the account in place. The caller persists the new tokens.
func (p *Providers) Refresh(ctx context.Context, acct *entity.EmailAccount) error {
	if acct.RefreshToken == "" {
		return fmt.Errorf("account %s has no refresh token", acct.Email)
	}

	var cfg *oauth2.Config
	switch acct.Provider {
	case constants.ProviderGmail:
		cfg = &oauth2.Config{
			ClientID:     p.oauth.GoogleClientID,
			ClientSecret: p.oauth.GoogleClientSecret,
			Endpoint:     google.Endpoint,
		}
	case constants.ProviderOutlook:
		cfg = &oauth2.Config{
			ClientID:     p.oauth.MicrosoftClientID,
			ClientSecret: p.oauth.MicrosoftClientSecret,
			Endpoint:     microsoft.AzureADEndpoint("common"),
		}
	default:
		return fmt.Errorf("provider %s does not support token refresh", acct.Provider)
	}

	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: acct.RefreshToken}).Token()
	if err != nil {
		return fmt.Errorf("refresh token for %s: %w", acct.Email, err)
	}

	acct.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		acct.RefreshToken = tok.RefreshToken
	}
	p.logger.Info("mail.token_refreshed", "email", acct.Email, "provider", acct.Provider)
	return nil
}
