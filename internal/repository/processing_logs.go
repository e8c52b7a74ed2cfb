package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

// CreateProcessingLog inserts a new stage entry. The caller keeps the ID to
// close the entry later.
func (s *Store) CreateProcessingLog(ctx context.Context, l *entity.ProcessingLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.StartTime.IsZero() {
		l.StartTime = time.Now().UTC()
	}
	l.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO processing_logs
			(id, tenant_id, purchase_order_id, stage, status, start_time, end_time, duration_ms, details, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	var endTime any
	var duration any
	if l.EndTime != nil {
		endTime = *l.EndTime
	}
	if l.DurationMS != nil {
		duration = *l.DurationMS
	}
	_, err := s.db.ExecContext(ctx, query,
		l.ID, l.TenantID, nullUUID(l.PurchaseOrderID), string(l.Stage), string(l.Status),
		l.StartTime, endTime, duration, nullJSON(l.Details), nullString(l.ErrorMessage), l.CreatedAt,
	)
	return err
}

// CloseProcessingLog marks an entry terminal, setting end time and duration
// relative to the stored start time.
func (s *Store) CloseProcessingLog(ctx context.Context, id uuid.UUID, status constants.StageStatus, details json.RawMessage, errorMessage *string) error {
	query := `
		UPDATE processing_logs
		SET status = $2,
			end_time = $3,
			duration_ms = (EXTRACT(EPOCH FROM ($3 - start_time)) * 1000)::BIGINT,
			details = COALESCE($4, details),
			error_message = $5
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id, string(status), time.Now().UTC(), nullJSON(details), nullString(errorMessage))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) ListProcessingLogs(ctx context.Context, purchaseOrderID uuid.UUID) ([]entity.ProcessingLog, error) {
	query := `
		SELECT id, tenant_id, purchase_order_id, stage, status, start_time, end_time, duration_ms, details, error_message, created_at
		FROM processing_logs
		WHERE purchase_order_id = $1
		ORDER BY start_time
	`
	rows, err := s.db.QueryContext(ctx, query, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.ProcessingLog
	for rows.Next() {
		var (
			l        entity.ProcessingLog
			poID     uuid.NullUUID
			stage    string
			status   string
			endTime  sql.NullTime
			duration sql.NullInt64
			details  []byte
			errMsg   sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.TenantID, &poID, &stage, &status,
			&l.StartTime, &endTime, &duration, &details, &errMsg, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Stage = constants.Stage(stage)
		l.Status = constants.StageStatus(status)
		if poID.Valid {
			id := poID.UUID
			l.PurchaseOrderID = &id
		}
		if endTime.Valid {
			t := endTime.Time
			l.EndTime = &t
		}
		if duration.Valid {
			d := duration.Int64
			l.DurationMS = &d
		}
		if len(details) > 0 {
			l.Details = json.RawMessage(details)
		}
		if errMsg.Valid {
			l.ErrorMessage = &errMsg.String
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func nullUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullJSON(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
