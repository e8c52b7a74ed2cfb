package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

// GetActiveAIConfiguration returns the tenant's single active configuration,
// or (nil, nil) when none is active.
func (s *Store) GetActiveAIConfiguration(ctx context.Context, tenantID uuid.UUID) (*entity.AIConfiguration, error) {
	query := `
		SELECT id, tenant_id, provider, model_name, api_key, endpoint, is_active, created_at, updated_at
		FROM ai_configurations
		WHERE tenant_id = $1 AND is_active
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var (
		c        entity.AIConfiguration
		provider string
	)
	err := s.db.QueryRowContext(ctx, query, tenantID).Scan(
		&c.ID, &c.TenantID, &provider, &c.ModelName, &c.APIKey, &c.Endpoint,
		&c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Provider = constants.AIProvider(provider)
	return &c, nil
}

// ActivateAIConfiguration makes one configuration active and deactivates its
// tenant siblings atomically.
func (s *Store) ActivateAIConfiguration(ctx context.Context, tenantID, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE ai_configurations SET is_active = FALSE, updated_at = now() WHERE tenant_id = $1 AND id <> $2`,
		tenantID, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE ai_configurations SET is_active = TRUE, updated_at = now() WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("ai configuration %s not found for tenant", id)
	}
	return tx.Commit()
}
