package messaging

import (
	"context"
	"strings"
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/unit-allocator/internal/domain/port/core"
)

// Routing keys
const (
	NotificationKeyPrefix  = "notification."
	CommissionRequestedKey = "commission.requested"
)

// NotificationEvent is the message consumed by the notification service
type NotificationEvent struct {
	UserID  string         `json:"userId"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
	SentAt  time.Time      `json:"sentAt"`
}

// CommissionRequest asks the commission service to settle a completed sale
type CommissionRequest struct {
	DepositID   string    `json:"depositId"`
	RequestedAt time.Time `json:"requestedAt"`
}

// NotificationKey returns the routing key of a notification type, e.g. notification.reservation_your_turn
func NotificationKey(kind entity.NotificationType) string {
	return NotificationKeyPrefix + strings.ToLower(string(kind))
}

// AMQPNotificationSender implements external.NotificationSender over the event exchange
type AMQPNotificationSender struct {
	publisher    Publisher
	timeProvider coreport.TimeProvider
}

// NewAMQPNotificationSender creates a new AMQPNotificationSender
func NewAMQPNotificationSender(publisher Publisher, timeProvider coreport.TimeProvider) *AMQPNotificationSender {
	return &AMQPNotificationSender{publisher: publisher, timeProvider: timeProvider}
}

// Send publishes the notification for asynchronous delivery
func (s *AMQPNotificationSender) Send(ctx context.Context, userID string, kind entity.NotificationType, payload map[string]any) error {
	return s.publisher.PublishJSON(ctx, NotificationKey(kind), NotificationEvent{
		UserID:  userID,
		Type:    string(kind),
		Payload: payload,
		SentAt:  s.timeProvider.Now(),
	})
}

// AMQPCommissionRequester implements external.CommissionCalculator by handing the sale to the commission service
type AMQPCommissionRequester struct {
	publisher    Publisher
	timeProvider coreport.TimeProvider
}

// NewAMQPCommissionRequester creates a new AMQPCommissionRequester
func NewAMQPCommissionRequester(publisher Publisher, timeProvider coreport.TimeProvider) *AMQPCommissionRequester {
	return &AMQPCommissionRequester{publisher: publisher, timeProvider: timeProvider}
}

// CreateForDeposit requests the commission of a completed deposit
func (r *AMQPCommissionRequester) CreateForDeposit(ctx context.Context, depositID string) error {
	return r.publisher.PublishJSON(ctx, CommissionRequestedKey, CommissionRequest{
		DepositID:   depositID,
		RequestedAt: r.timeProvider.Now(),
	})
}

// LogNotificationSender writes notifications to the log when no broker is configured
type LogNotificationSender struct {
	logger coreport.Logger
}

// NewLogNotificationSender creates a new LogNotificationSender
func NewLogNotificationSender(logger coreport.Logger) *LogNotificationSender {
	return &LogNotificationSender{logger: logger}
}

// Send logs the notification
func (s *LogNotificationSender) Send(_ context.Context, userID string, kind entity.NotificationType, payload map[string]any) error {
	s.logger.Info("Notification", map[string]any{
		"user_id": userID,
		"type":    kind,
		"payload": payload,
	})
	return nil
}

// LogCommissionCalculator logs commission requests when no broker is configured
type LogCommissionCalculator struct {
	logger coreport.Logger
}

// NewLogCommissionCalculator creates a new LogCommissionCalculator
func NewLogCommissionCalculator(logger coreport.Logger) *LogCommissionCalculator {
	return &LogCommissionCalculator{logger: logger}
}

// CreateForDeposit logs the request
func (c *LogCommissionCalculator) CreateForDeposit(_ context.Context, depositID string) error {
	c.logger.Info("Commission requested", map[string]any{"deposit_id": depositID})
	return nil
}
