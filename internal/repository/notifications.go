package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

func (s *Store) CreateNotification(ctx context.Context, n *entity.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO notifications (id, tenant_id, type, title, message, is_read, related_entity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.TenantID, string(n.Type), n.Title, n.Message, n.Read, n.RelatedEntity, n.CreatedAt)
	return err
}
