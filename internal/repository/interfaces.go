package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/chavannishanthrao/AutoPOProcessor/constants"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

// PurchaseOrderRepository is tenant-scoped CRUD over purchase_orders.
type PurchaseOrderRepository interface {
	CreatePurchaseOrder(ctx context.Context, po *entity.PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*entity.PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, po *entity.PurchaseOrder) error
	// ListPurchaseOrders returns a tenant's orders, optionally only those
	// flagged for human review, newest first.
	ListPurchaseOrders(ctx context.Context, tenantID uuid.UUID, reviewOnly bool) ([]entity.PurchaseOrder, error)
	// ListPurchaseOrdersBetween filters on created_at; nil bounds are open.
	ListPurchaseOrdersBetween(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]entity.PurchaseOrder, error)
}

// ProcessingLogRepository appends and closes per-stage log entries.
type ProcessingLogRepository interface {
	CreateProcessingLog(ctx context.Context, l *entity.ProcessingLog) error
	// CloseProcessingLog updates the entry in place with a terminal status,
	// end time, and duration.
	CloseProcessingLog(ctx context.Context, id uuid.UUID, status constants.StageStatus, details json.RawMessage, errorMessage *string) error
	ListProcessingLogs(ctx context.Context, purchaseOrderID uuid.UUID) ([]entity.ProcessingLog, error)
}

// EmailAccountRepository is what the poller needs from email_accounts.
type EmailAccountRepository interface {
	ListActiveEmailAccounts(ctx context.Context) ([]entity.EmailAccount, error)
	UpdateLastChecked(ctx context.Context, id uuid.UUID, t time.Time) error
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string) error
	SetReconnectRequired(ctx context.Context, id uuid.UUID) error
}

// VendorRepository reads tenant vendor master data.
type VendorRepository interface {
	ListActiveVendors(ctx context.Context, tenantID uuid.UUID) ([]entity.Vendor, error)
}

// AIConfigurationRepository reads and activates tenant LLM configurations.
type AIConfigurationRepository interface {
	// GetActiveAIConfiguration returns (nil, nil) when the tenant has none.
	GetActiveAIConfiguration(ctx context.Context, tenantID uuid.UUID) (*entity.AIConfiguration, error)
	// ActivateAIConfiguration activates one configuration and deactivates its
	// siblings in a single transaction.
	ActivateAIConfiguration(ctx context.Context, tenantID, id uuid.UUID) error
}

// ERPSystemRepository reads tenant ERP endpoints.
type ERPSystemRepository interface {
	// GetActiveERPSystem returns (nil, nil) when the tenant has none.
	GetActiveERPSystem(ctx context.Context, tenantID uuid.UUID) (*entity.ERPSystem, error)
	GetERPSystem(ctx context.Context, id uuid.UUID) (*entity.ERPSystem, error)
}

// NotificationRepository persists user-visible notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *entity.Notification) error
}
