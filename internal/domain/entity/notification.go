package entity

// NotificationType identifies the message sent to a user
type NotificationType string

// Notification types
const (
	NotifyReservationCreated   NotificationType = "RESERVATION_CREATED"
	NotifyReservationYourTurn  NotificationType = "RESERVATION_YOUR_TURN"
	NotifyReservationExpired   NotificationType = "RESERVATION_EXPIRED"
	NotifyReservationMissed    NotificationType = "RESERVATION_MISSED"
	NotifyReservationCancelled NotificationType = "RESERVATION_CANCELLED"
	NotifyBookingCreated       NotificationType = "BOOKING_CREATED"
	NotifyBookingPaymentSent   NotificationType = "BOOKING_PAYMENT_SUBMITTED"
	NotifyBookingApproved      NotificationType = "BOOKING_APPROVED"
	NotifyBookingRejected      NotificationType = "BOOKING_REJECTED"
	NotifyBookingCancelled     NotificationType = "BOOKING_CANCELLED"
	NotifyBookingExpired       NotificationType = "BOOKING_EXPIRED"
	NotifyDepositCreated       NotificationType = "DEPOSIT_CREATED"
	NotifyDepositApproved      NotificationType = "DEPOSIT_APPROVED"
	NotifyDepositRejected      NotificationType = "DEPOSIT_REJECTED"
	NotifyDepositCancelled     NotificationType = "DEPOSIT_CANCELLED"
	NotifyDepositCompleted     NotificationType = "DEPOSIT_COMPLETED"
	NotifyPaymentOverdue       NotificationType = "PAYMENT_OVERDUE"
	NotifyQueueFailures        NotificationType = "QUEUE_PROCESSING_FAILED"
	NotifyQueueCompleted       NotificationType = "QUEUE_PROCESSING_COMPLETED"
)
