package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

const erpColumns = `id, tenant_id, name, type, endpoint, credentials, is_active, last_sync, created_at, updated_at`

// GetActiveERPSystem returns the tenant's first active ERP system, or
// (nil, nil) when none is configured.
func (s *Store) GetActiveERPSystem(ctx context.Context, tenantID uuid.UUID) (*entity.ERPSystem, error) {
	query := `SELECT ` + erpColumns + ` FROM erp_systems WHERE tenant_id = $1 AND is_active ORDER BY created_at LIMIT 1`
	sys, err := scanERPSystem(s.db.QueryRowContext(ctx, query, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sys, err
}

func (s *Store) GetERPSystem(ctx context.Context, id uuid.UUID) (*entity.ERPSystem, error) {
	query := `SELECT ` + erpColumns + ` FROM erp_systems WHERE id = $1`
	return scanERPSystem(s.db.QueryRowContext(ctx, query, id))
}

func scanERPSystem(r rowScanner) (*entity.ERPSystem, error) {
	var (
		sys      entity.ERPSystem
		typ      string
		creds    []byte
		lastSync sql.NullTime
	)
	err := r.Scan(&sys.ID, &sys.TenantID, &sys.Name, &typ, &sys.Endpoint, &creds,
		&sys.Active, &lastSync, &sys.CreatedAt, &sys.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sys.Type = constants.ERPType(typ)
	if lastSync.Valid {
		t := lastSync.Time
		sys.LastSync = &t
	}
	if len(creds) > 0 {
		if err := json.Unmarshal(creds, &sys.Credentials); err != nil {
			return nil, fmt.Errorf("decode erp credentials: %w", err)
		}
	}
	return &sys, nil
}
