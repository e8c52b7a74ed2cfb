package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent so the daemon can run them on every startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS purchase_orders (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			po_number TEXT NOT NULL DEFAULT '',
			vendor_name TEXT NOT NULL DEFAULT '',
			vendor_address TEXT NOT NULL DEFAULT '',
			total_amount NUMERIC(12,2),
			currency TEXT NOT NULL DEFAULT 'USD',
			status TEXT NOT NULL DEFAULT 'pending',
			email_source TEXT NOT NULL DEFAULT '',
			email_subject TEXT NOT NULL DEFAULT '',
			email_from TEXT NOT NULL DEFAULT '',
			extracted_data JSONB,
			validation_results JSONB,
			erp_push_result JSONB,
			failure_reason TEXT,
			human_review_required BOOLEAN NOT NULL DEFAULT FALSE,
			processed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_purchase_orders_tenant ON purchase_orders (tenant_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_purchase_orders_review ON purchase_orders (tenant_id) WHERE human_review_required`,

		`CREATE TABLE IF NOT EXISTS processing_logs (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			purchase_order_id UUID,
			stage TEXT NOT NULL,
			status TEXT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL DEFAULT now(),
			end_time TIMESTAMPTZ,
			duration_ms BIGINT,
			details JSONB,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_processing_logs_po ON processing_logs (purchase_order_id, start_time)`,

		`CREATE TABLE IF NOT EXISTS email_accounts (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			email TEXT NOT NULL,
			provider TEXT NOT NULL,
			access_token TEXT NOT NULL DEFAULT '',
			refresh_token TEXT NOT NULL DEFAULT '',
			imap_config JSONB,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			reconnect_required BOOLEAN NOT NULL DEFAULT FALSE,
			last_checked TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS vendors (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			name TEXT NOT NULL,
			alternate_names JSONB,
			address TEXT NOT NULL DEFAULT '',
			tax_id TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vendors_tenant ON vendors (tenant_id)`,

		`CREATE TABLE IF NOT EXISTS ai_configurations (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			provider TEXT NOT NULL,
			model_name TEXT NOT NULL,
			api_key TEXT NOT NULL DEFAULT '',
			endpoint TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS erp_systems (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			credentials JSONB,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_sync TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			related_entity TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_tenant ON notifications (tenant_id, created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
