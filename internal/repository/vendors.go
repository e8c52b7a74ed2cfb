package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

func (s *Store) ListActiveVendors(ctx context.Context, tenantID uuid.UUID) ([]entity.Vendor, error) {
	query := `
		SELECT id, tenant_id, name, alternate_names, address, tax_id, is_active, created_at, updated_at
		FROM vendors
		WHERE tenant_id = $1 AND is_active
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Vendor
	for rows.Next() {
		var (
			v    entity.Vendor
			alts []byte
		)
		if err := rows.Scan(&v.ID, &v.TenantID, &v.Name, &alts, &v.Address, &v.TaxID,
			&v.Active, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		if len(alts) > 0 {
			if err := json.Unmarshal(alts, &v.AlternateNames); err != nil {
				return nil, fmt.Errorf("decode alternate names: %w", err)
			}
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
