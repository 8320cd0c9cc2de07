package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attendance is created only for a completed transaction; PaymentID is unique
// so a redelivered callback cannot register the same payment twice.
type Attendance struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	EventID       string    `gorm:"size:64;not null;index" json:"event_id"`
	UserID        string    `gorm:"size:64;not null;index" json:"user_id"`
	PaymentID     string    `gorm:"size:36;uniqueIndex" json:"payment_id"`
	PaymentStatus string    `gorm:"size:20;not null" json:"payment_status"`
	PaymentMethod string    `gorm:"size:20" json:"payment_method"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Attendance) TableName() string {
	return "event_attendees"
}

func (a *Attendance) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
