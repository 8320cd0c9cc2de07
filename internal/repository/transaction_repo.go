package repository

import (
	"time"

	"tukio/internal/domain"
	"tukio/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

func (r *TransactionRepository) Create(t *models.Transaction) error {
	if t.Status == "" {
		t.Status = domain.TransactionPending
	}
	return r.db.Create(t).Error
}

func (r *TransactionRepository) GetByCheckoutRequestID(checkoutRequestID string) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.Where("checkout_request_id = ?", checkoutRequestID).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Outcome is what the provider reported for a checkout.
type Outcome struct {
	Status        string
	ResultCode    int
	ResultDesc    string
	ReceiptNumber string
	At            time.Time
}

// Transition moves a pending transaction to a terminal status. It reports
// false when no pending row matched (unknown id or already terminal).
func (r *TransactionRepository) Transition(checkoutRequestID string, o Outcome) (bool, error) {
	code := o.ResultCode
	updates := map[string]interface{}{
		"status":       o.Status,
		"result_code":  &code,
		"result_desc":  o.ResultDesc,
		"completed_at": o.At,
		"updated_at":   o.At,
	}
	if o.ReceiptNumber != "" {
		updates["receipt_number"] = o.ReceiptNumber
	}
	res := r.db.Model(&models.Transaction{}).
		Where("checkout_request_id = ? AND status = ?", checkoutRequestID, domain.TransactionPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TransactionRepository) ListByUserID(userID string, limit, offset int) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// ListByStatus lists all transactions when status is empty.
func (r *TransactionRepository) ListByStatus(status string, limit, offset int) ([]models.Transaction, error) {
	var list []models.Transaction
	q := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&list).Error
	return list, err
}
