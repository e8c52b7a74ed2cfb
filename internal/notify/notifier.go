// Package notify records user-visible notifications and mirrors them onto a
// redis stream so connected UIs can pick them up without polling the table.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/repository"
)

const streamMaxLen = 1000

type Notifier struct {
	repo   repository.NotificationRepository
	rdb    *redis.Client
	stream string
	logger *slog.Logger
}

// New builds a Notifier. rdb may be nil; the stream mirror is then skipped.
func New(repo repository.NotificationRepository, rdb *redis.Client, stream string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{repo: repo, rdb: rdb, stream: stream, logger: logger}
}

// Notify stores the notification row and publishes it to the stream. The
// stream publish is best effort: a redis outage must never fail processing.
func (n *Notifier) Notify(ctx context.Context, tenantID uuid.UUID, typ constants.NotificationType, title, message, relatedEntity string) {
	record := &entity.Notification{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Type:          typ,
		Title:         title,
		Message:       message,
		RelatedEntity: relatedEntity,
		CreatedAt:     time.Now(),
	}
	if err := n.repo.CreateNotification(ctx, record); err != nil {
		n.logger.Error("notify.store_failed", "title", title, "error", err)
		return
	}

	if n.rdb == nil {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		n.logger.Error("notify.marshal_failed", "id", record.ID, "error", err)
		return
	}
	err = n.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{
			"tenant_id": tenantID.String(),
			"type":      string(typ),
			"payload":   payload,
		},
	}).Err()
	if err != nil {
		n.logger.Warn("notify.publish_failed", "stream", n.stream, "error", err)
	}
}
