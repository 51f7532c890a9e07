package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unit represents the database model for sellable units
type Unit struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)"`
	ProjectID string          `gorm:"type:varchar(36);not null;index"`
	Code      string          `gorm:"size:50;not null"`
	Price     decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Status    string          `gorm:"size:30;not null;index"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName specifies the table name for Unit
func (Unit) TableName() string {
	return "units"
}

// Project represents the database model for projects
type Project struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Name      string `gorm:"size:255;not null"`
	Phase     string `gorm:"size:20;not null"`
	OpenDate  *time.Time
	OpenedAt  *time.Time
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}
