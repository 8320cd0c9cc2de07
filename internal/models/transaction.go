package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transaction is one STK push attempt. Rows are never deleted; they are the audit trail.
type Transaction struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	PhoneNumber       string     `gorm:"size:20;not null" json:"phone_number"`
	Amount            int64      `gorm:"not null" json:"amount"` // whole shillings, as sent to the provider
	CheckoutRequestID string     `gorm:"size:64;not null;uniqueIndex" json:"transaction_id"`
	MerchantRequestID string     `gorm:"size:64" json:"merchant_request_id"`
	AccountReference  string     `gorm:"size:32" json:"account_reference"`
	Status            string     `gorm:"size:20;not null;index" json:"status"` // pending, completed, failed
	EventID           string     `gorm:"size:64;not null;index" json:"event_id"`
	UserID            string     `gorm:"size:64;not null;index" json:"user_id"`
	ResultCode        *int       `json:"result_code,omitempty"`
	ResultDesc        string     `gorm:"size:255" json:"result_desc,omitempty"`
	ReceiptNumber     string     `gorm:"size:32" json:"receipt_number,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "mpesa_transactions"
}

func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
