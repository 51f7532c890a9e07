package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation represents the database model for queue tickets
type Reservation struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)"`
	Code            string    `gorm:"size:20;not null;uniqueIndex"`
	UnitID          string    `gorm:"type:varchar(36);not null;index:idx_reservations_unit_queue,priority:1"`
	ProjectID       string    `gorm:"type:varchar(36);not null;index"`
	AgentID         string    `gorm:"type:varchar(36);not null;index"`
	Status          string    `gorm:"size:20;not null;index:idx_reservations_unit_queue,priority:2"`
	Priority        int       `gorm:"not null;index:idx_reservations_unit_queue,priority:3"`
	ReservedUntil   time.Time `gorm:"not null;index"`
	DepositDeadline *time.Time
	Note            string    `gorm:"type:text"`
	CancelledBy     string    `gorm:"size:36"`
	CancelReason    string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName specifies the table name for Reservation
func (Reservation) TableName() string {
	return "reservations"
}

// Booking represents the database model for bookings
type Booking struct {
	ID            string           `gorm:"primaryKey;type:varchar(36)"`
	Code          string           `gorm:"size:20;not null;uniqueIndex"`
	UnitID        string           `gorm:"type:varchar(36);not null;index"`
	ProjectID     string           `gorm:"type:varchar(36);not null;index"`
	AgentID       string           `gorm:"type:varchar(36);not null;index"`
	ReservationID *string          `gorm:"type:varchar(36)"`
	Amount        decimal.Decimal  `gorm:"type:numeric(18,2);not null"`
	PaymentProof  string           `gorm:"type:text"`
	Status        string           `gorm:"size:20;not null;index"`
	ExpiresAt     time.Time        `gorm:"not null;index"`
	RefundAmount  *decimal.Decimal `gorm:"type:numeric(18,2)"`
	ApprovedBy    string           `gorm:"size:36"`
	ApprovedAt    *time.Time
	CancelledBy   string    `gorm:"size:36"`
	CancelReason  string    `gorm:"type:text"`
	Note          string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName specifies the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// Deposit represents the database model for deposits
type Deposit struct {
	ID                string           `gorm:"primaryKey;type:varchar(36)"`
	Code              string           `gorm:"size:20;not null;uniqueIndex"`
	UnitID            string           `gorm:"type:varchar(36);not null;index"`
	ProjectID         string           `gorm:"type:varchar(36);not null;index"`
	AgentID           string           `gorm:"type:varchar(36);not null;index"`
	BookingID         *string          `gorm:"type:varchar(36)"`
	ReservationID     *string          `gorm:"type:varchar(36)"`
	DepositAmount     decimal.Decimal  `gorm:"type:numeric(18,2);not null"`
	DepositPercentage decimal.Decimal  `gorm:"type:numeric(5,2);not null"`
	FinalPrice        *decimal.Decimal `gorm:"type:numeric(18,2)"`
	Status            string           `gorm:"size:20;not null;index"`
	ApprovedBy        string           `gorm:"size:36"`
	ApprovedAt        *time.Time
	CompletedAt       *time.Time
	CancelledBy       string    `gorm:"size:36"`
	CancelReason      string    `gorm:"type:text"`
	Note              string    `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName specifies the table name for Deposit
func (Deposit) TableName() string {
	return "deposits"
}

// Installment represents one row of a deposit's payment schedule
type Installment struct {
	ID         string          `gorm:"primaryKey;type:varchar(36)"`
	DepositID  string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_installments_deposit_sequence,priority:1"`
	UnitID     string          `gorm:"type:varchar(36);not null;index"`
	Sequence   int             `gorm:"not null;uniqueIndex:idx_installments_deposit_sequence,priority:2"`
	Name       string          `gorm:"size:100;not null"`
	Percentage decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	Amount     decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	DueDate    *time.Time      `gorm:"index"`
	Status     string          `gorm:"size:20;not null;index"`
	PaidAt     *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName specifies the table name for Installment
func (Installment) TableName() string {
	return "installments"
}
