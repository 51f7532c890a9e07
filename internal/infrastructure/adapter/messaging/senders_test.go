package messaging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	"github.com/amirhossein-jamali/unit-allocator/internal/infrastructure/adapter/messaging"
	"github.com/amirhossein-jamali/unit-allocator/internal/testutil"
	mockcore "github.com/amirhossein-jamali/unit-allocator/mocks/port/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type published struct {
	key   string
	value any
}

type recordingPublisher struct {
	messages []published
	err      error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, v any) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, published{key: key, value: v})
	return nil
}

var sentAt = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestNotificationKey(t *testing.T) {
	assert.Equal(t, "notification.reservation_your_turn", messaging.NotificationKey(entity.NotifyReservationYourTurn))
	assert.Equal(t, "notification.queue_processing_failed", messaging.NotificationKey(entity.NotifyQueueFailures))
}

func TestAMQPNotificationSender_Send(t *testing.T) {
	pub := &recordingPublisher{}
	sender := messaging.NewAMQPNotificationSender(pub, testutil.NewFixedClock(sentAt))

	err := sender.Send(context.Background(), "agent-1", entity.NotifyBookingApproved, map[string]any{"bookingId": "b-1"})

	require.NoError(t, err)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "notification.booking_approved", pub.messages[0].key)
	assert.Equal(t, messaging.NotificationEvent{
		UserID:  "agent-1",
		Type:    "BOOKING_APPROVED",
		Payload: map[string]any{"bookingId": "b-1"},
		SentAt:  sentAt,
	}, pub.messages[0].value)
}

func TestAMQPNotificationSender_PublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("channel closed")}
	sender := messaging.NewAMQPNotificationSender(pub, testutil.NewFixedClock(sentAt))

	err := sender.Send(context.Background(), "agent-1", entity.NotifyBookingApproved, nil)

	assert.EqualError(t, err, "channel closed")
}

func TestAMQPCommissionRequester_CreateForDeposit(t *testing.T) {
	pub := &recordingPublisher{}
	requester := messaging.NewAMQPCommissionRequester(pub, testutil.NewFixedClock(sentAt))

	require.NoError(t, requester.CreateForDeposit(context.Background(), "dep-1"))
	require.Len(t, pub.messages, 1)
	assert.Equal(t, messaging.CommissionRequestedKey, pub.messages[0].key)
	assert.Equal(t, messaging.CommissionRequest{DepositID: "dep-1", RequestedAt: sentAt}, pub.messages[0].value)
}

func TestLogFallbacks(t *testing.T) {
	logger := mockcore.NewMockLogger(t)
	logger.EXPECT().Info("Notification", mock.MatchedBy(func(f map[string]any) bool {
		return f["user_id"] == "agent-1" && f["type"] == entity.NotifyDepositApproved
	})).Once()
	logger.EXPECT().Info("Commission requested", map[string]any{"deposit_id": "dep-1"}).Once()

	require.NoError(t, messaging.NewLogNotificationSender(logger).
		Send(context.Background(), "agent-1", entity.NotifyDepositApproved, nil))
	require.NoError(t, messaging.NewLogCommissionCalculator(logger).CreateForDeposit(context.Background(), "dep-1"))
}
