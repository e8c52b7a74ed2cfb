package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

const poColumns = `id, tenant_id, po_number, vendor_name, vendor_address, total_amount, currency,
	status, email_source, email_subject, email_from, extracted_data, validation_results,
	erp_push_result, failure_reason, human_review_required, processed_at, created_at, updated_at`

// CreatePurchaseOrder inserts a new order row. ID and timestamps are filled in
// when unset.
func (s *Store) CreatePurchaseOrder(ctx context.Context, po *entity.PurchaseOrder) error {
	if po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	now := time.Now().UTC()
	if po.CreatedAt.IsZero() {
		po.CreatedAt = now
	}
	po.UpdatedAt = now

	extracted, err := marshalNullable(po.ExtractedData)
	if err != nil {
		return fmt.Errorf("encode extracted data: %w", err)
	}
	validation, err := marshalNullable(po.ValidationResults)
	if err != nil {
		return fmt.Errorf("encode validation results: %w", err)
	}
	push, err := marshalNullable(po.ERPPushResult)
	if err != nil {
		return fmt.Errorf("encode erp push result: %w", err)
	}

	query := `
		INSERT INTO purchase_orders (` + poColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err = s.db.ExecContext(ctx, query,
		po.ID, po.TenantID, po.PONumber, po.VendorName, po.VendorAddress,
		nullDecimal(po.TotalAmount), po.Currency, string(po.Status),
		po.EmailSource, po.EmailSubject, po.EmailFrom,
		extracted, validation, push,
		nullString(po.FailureReason), po.HumanReviewRequired,
		nullTime(po.ProcessedAt), po.CreatedAt, po.UpdatedAt,
	)
	return err
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*entity.PurchaseOrder, error) {
	query := `SELECT ` + poColumns + ` FROM purchase_orders WHERE id = $1`
	po, err := scanPurchaseOrder(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return po, nil
}

// UpdatePurchaseOrder rewrites every orchestrator-mutable field.
func (s *Store) UpdatePurchaseOrder(ctx context.Context, po *entity.PurchaseOrder) error {
	po.UpdatedAt = time.Now().UTC()

	extracted, err := marshalNullable(po.ExtractedData)
	if err != nil {
		return fmt.Errorf("encode extracted data: %w", err)
	}
	validation, err := marshalNullable(po.ValidationResults)
	if err != nil {
		return fmt.Errorf("encode validation results: %w", err)
	}
	push, err := marshalNullable(po.ERPPushResult)
	if err != nil {
		return fmt.Errorf("encode erp push result: %w", err)
	}

	query := `
		UPDATE purchase_orders
		SET po_number = $2, vendor_name = $3, vendor_address = $4, total_amount = $5,
			currency = $6, status = $7, extracted_data = $8, validation_results = $9,
			erp_push_result = $10, failure_reason = $11, human_review_required = $12,
			processed_at = $13, updated_at = $14
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		po.ID, po.PONumber, po.VendorName, po.VendorAddress, nullDecimal(po.TotalAmount),
		po.Currency, string(po.Status), extracted, validation, push,
		nullString(po.FailureReason), po.HumanReviewRequired,
		nullTime(po.ProcessedAt), po.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) ListPurchaseOrders(ctx context.Context, tenantID uuid.UUID, reviewOnly bool) ([]entity.PurchaseOrder, error) {
	query := `SELECT ` + poColumns + ` FROM purchase_orders WHERE tenant_id = $1`
	if reviewOnly {
		query += ` AND human_review_required`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPurchaseOrders(rows)
}

func (s *Store) ListPurchaseOrdersBetween(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]entity.PurchaseOrder, error) {
	query := `SELECT ` + poColumns + ` FROM purchase_orders WHERE tenant_id = $1`
	args := []any{tenantID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPurchaseOrders(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPurchaseOrder(r rowScanner) (*entity.PurchaseOrder, error) {
	var (
		po            entity.PurchaseOrder
		status        string
		amount        decimal.NullDecimal
		extracted     []byte
		validation    []byte
		push          []byte
		failureReason sql.NullString
		processedAt   sql.NullTime
	)
	err := r.Scan(
		&po.ID, &po.TenantID, &po.PONumber, &po.VendorName, &po.VendorAddress,
		&amount, &po.Currency, &status,
		&po.EmailSource, &po.EmailSubject, &po.EmailFrom,
		&extracted, &validation, &push,
		&failureReason, &po.HumanReviewRequired,
		&processedAt, &po.CreatedAt, &po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	po.Status = constants.POStatus(status)
	if amount.Valid {
		d := amount.Decimal
		po.TotalAmount = &d
	}
	if failureReason.Valid {
		po.FailureReason = &failureReason.String
	}
	if processedAt.Valid {
		t := processedAt.Time
		po.ProcessedAt = &t
	}
	if err := unmarshalNullable(extracted, &po.ExtractedData); err != nil {
		return nil, fmt.Errorf("decode extracted data: %w", err)
	}
	if err := unmarshalNullable(validation, &po.ValidationResults); err != nil {
		return nil, fmt.Errorf("decode validation results: %w", err)
	}
	if err := unmarshalNullable(push, &po.ERPPushResult); err != nil {
		return nil, fmt.Errorf("decode erp push result: %w", err)
	}
	return &po, nil
}

func collectPurchaseOrders(rows *sql.Rows) ([]entity.PurchaseOrder, error) {
	var out []entity.PurchaseOrder
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *po)
	}
	return out, rows.Err()
}

func marshalNullable(v any) (any, error) {
	if v == nil || isNilPointer(v) {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func isNilPointer(v any) bool {
	switch t := v.(type) {
	case *entity.ExtractedPO:
		return t == nil
	case *entity.ValidationResult:
		return t == nil
	case *entity.PushResult:
		return t == nil
	case *entity.IMAPConfig:
		return t == nil
	default:
		return false
	}
}

func unmarshalNullable[T any](b []byte, dst **T) error {
	if len(b) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}
