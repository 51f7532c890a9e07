package external

import (
	"context"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
)

// NotificationSender delivers a message to a user.
// Delivery is best-effort and at-least-once; callers never fail because of it.
type NotificationSender interface {
	Send(ctx context.Context, userID string, kind entity.NotificationType, payload map[string]any) error
}

// AuditLog records who changed what
type AuditLog interface {
	Record(ctx context.Context, entry entity.AuditEntry) error
}

// CommissionCalculator creates the commission owed for a completed sale
type CommissionCalculator interface {
	CreateForDeposit(ctx context.Context, depositID string) error
}
