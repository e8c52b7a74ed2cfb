package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

// ListActiveEmailAccounts returns every pollable account across tenants,
// excluding ones waiting on a reconnect. Ordered by tenant so one tenant's
// accounts are processed together.
func (s *Store) ListActiveEmailAccounts(ctx context.Context) ([]entity.EmailAccount, error) {
	query := `
		SELECT id, tenant_id, email, provider, access_token, refresh_token, imap_config,
			is_active, reconnect_required, last_checked, created_at, updated_at
		FROM email_accounts
		WHERE is_active AND NOT reconnect_required
		ORDER BY tenant_id, email
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.EmailAccount
	for rows.Next() {
		var (
			a           entity.EmailAccount
			provider    string
			imapConfig  []byte
			lastChecked sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Email, &provider, &a.AccessToken, &a.RefreshToken,
			&imapConfig, &a.Active, &a.ReconnectRequired, &lastChecked, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Provider = constants.MailProvider(provider)
		if lastChecked.Valid {
			t := lastChecked.Time
			a.LastChecked = &t
		}
		if err := unmarshalNullable(imapConfig, &a.IMAPConfig); err != nil {
			return nil, fmt.Errorf("decode imap config: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateLastChecked(ctx context.Context, id uuid.UUID, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE email_accounts SET last_checked = $2, updated_at = now() WHERE id = $1`, id, t)
	return err
}

// UpdateTokens persists refreshed credential material.
func (s *Store) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE email_accounts SET access_token = $2, refresh_token = $3, updated_at = now() WHERE id = $1`,
		id, accessToken, refreshToken)
	return err
}

// SetReconnectRequired flags an account whose authorization was revoked. The
// poller skips it until the user reconnects.
func (s *Store) SetReconnectRequired(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE email_accounts SET reconnect_required = TRUE, updated_at = now() WHERE id = $1`, id)
	return err
}
