package model

import (
	"time"

	"gorm.io/datatypes"
)

// Sequence is the counter row of one code family
type Sequence struct {
	Family    string    `gorm:"primaryKey;size:20"`
	Prefix    string    `gorm:"size:5;not null"`
	Current   int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Sequence
func (Sequence) TableName() string {
	return "sequences"
}

// ProcessingLog represents the database model for dispatcher runs
type ProcessingLog struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)"`
	ProjectID   string         `gorm:"type:varchar(36);not null;index"`
	Kind        string         `gorm:"size:20;not null"`
	ParentLogID *string        `gorm:"type:varchar(36)"`
	TriggeredBy string         `gorm:"size:36;not null"`
	Total       int            `gorm:"not null"`
	Succeeded   int            `gorm:"not null"`
	Skipped     int            `gorm:"not null"`
	Failed      int            `gorm:"not null"`
	Failures    datatypes.JSON `gorm:"type:jsonb"`
	StartedAt   time.Time      `gorm:"not null"`
	FinishedAt  time.Time      `gorm:"not null"`
}

// TableName specifies the table name for ProcessingLog
func (ProcessingLog) TableName() string {
	return "processing_logs"
}

// Setting is one key of the runtime configuration store
type Setting struct {
	Key       string    `gorm:"primaryKey;size:100"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Setting
func (Setting) TableName() string {
	return "settings"
}

// AuditLog records a change made to an entity
type AuditLog struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement"`
	ActorID    string         `gorm:"size:36;not null;index"`
	Action     string         `gorm:"size:20;not null"`
	EntityType string         `gorm:"size:30;not null;index:idx_audit_logs_entity,priority:1"`
	EntityID   string         `gorm:"type:varchar(36);not null;index:idx_audit_logs_entity,priority:2"`
	OldValue   datatypes.JSON `gorm:"type:jsonb"`
	NewValue   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"not null"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// JobLock marks a scheduled job as running on one replica
type JobLock struct {
	Name      string    `gorm:"primaryKey;size:100"`
	Token     string    `gorm:"size:36;not null"`
	LockedAt  time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for JobLock
func (JobLock) TableName() string {
	return "job_locks"
}
