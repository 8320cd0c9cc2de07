package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tukio/internal/domain"
	"tukio/internal/models"
	"tukio/internal/repository"
	"tukio/pkg/mpesa"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettlementNotifier is told about each committed settlement.
type SettlementNotifier interface {
	NotifyPaymentSettled(t *models.Transaction) error
}

// CallbackSource describes who delivered a callback, for the audit trail.
type CallbackSource struct {
	IP        string
	UserAgent string
}

type Reconciler struct {
	db         *gorm.DB
	txRepo     *repository.TransactionRepository
	attendance *repository.AttendanceRepository
	events     *repository.EventRepository
	audit      *repository.AuditLogRepository
	notifier   SettlementNotifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewReconciler(
	db *gorm.DB,
	txRepo *repository.TransactionRepository,
	attendance *repository.AttendanceRepository,
	events *repository.EventRepository,
	audit *repository.AuditLogRepository,
	notifier SettlementNotifier,
	logger *zap.Logger,
) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		db:         db,
		txRepo:     txRepo,
		attendance: attendance,
		events:     events,
		audit:      audit,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// Reconcile applies a provider callback. The status transition, attendance
// record and attendee counter commit together or not at all. Callbacks for
// unknown or already-settled transactions return a *ReconciliationConflict
// and change nothing.
func (r *Reconciler) Reconcile(ctx context.Context, cb *mpesa.STKCallback, src CallbackSource) (*models.Transaction, error) {
	if cb == nil || cb.CheckoutRequestID == "" {
		return nil, &ReconciliationConflict{Reason: ConflictMissingID}
	}
	log := r.logger.With(zap.String("checkout_request_id", cb.CheckoutRequestID), zap.Int("result_code", cb.ResultCode))

	status := domain.TransactionFailed
	if cb.Success() {
		status = domain.TransactionCompleted
	}
	outcome := repository.Outcome{
		Status:        status,
		ResultCode:    cb.ResultCode,
		ResultDesc:    cb.ResultDesc,
		ReceiptNumber: cb.ReceiptNumber,
		At:            r.now(),
	}

	var settled *models.Transaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := r.txRepo.WithTx(tx)
		moved, err := txRepo.Transition(cb.CheckoutRequestID, outcome)
		if err != nil {
			return fmt.Errorf("transition: %w", err)
		}
		if !moved {
			existing, err := txRepo.GetByCheckoutRequestID(cb.CheckoutRequestID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ReconciliationConflict{CheckoutRequestID: cb.CheckoutRequestID, Reason: ConflictUnknown}
			}
			if err != nil {
				return fmt.Errorf("lookup: %w", err)
			}
			return &ReconciliationConflict{CheckoutRequestID: cb.CheckoutRequestID, Reason: ConflictAlreadyTerminal, Status: existing.Status}
		}
		t, err := txRepo.GetByCheckoutRequestID(cb.CheckoutRequestID)
		if err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		if status == domain.TransactionCompleted {
			err = r.attendance.WithTx(tx).Create(&models.Attendance{
				EventID:       t.EventID,
				UserID:        t.UserID,
				PaymentID:     t.ID,
				PaymentStatus: t.Status,
				PaymentMethod: domain.PaymentMethodMpesa,
			})
			if err != nil {
				return fmt.Errorf("attendance: %w", err)
			}
			if err := r.events.WithTx(tx).IncrementAttendees(t.EventID); err != nil {
				return fmt.Errorf("attendee count for event %s: %w", t.EventID, err)
			}
		}
		settled = t
		return nil
	})
	if err != nil {
		var conflict *ReconciliationConflict
		if errors.As(err, &conflict) {
			log.Warn("reconciliation conflict", zap.String("reason", conflict.Reason), zap.String("status", conflict.Status))
		} else {
			log.Error("reconciliation rolled back", zap.Error(err))
		}
		return nil, err
	}

	log = log.With(zap.String("transaction_id", settled.ID), zap.String("status", settled.Status))
	if cb.Amount > 0 && int64(cb.Amount) != settled.Amount {
		log.Warn("callback amount differs from ledger", zap.Float64("callback_amount", cb.Amount), zap.Int64("ledger_amount", settled.Amount))
	}
	log.Info("payment settled", zap.String("event_id", settled.EventID), zap.String("user_id", settled.UserID))
	r.afterSettle(settled, src, log)
	return settled, nil
}

func (r *Reconciler) afterSettle(t *models.Transaction, src CallbackSource, log *zap.Logger) {
	action := domain.AuditMpesaFailed
	if t.Status == domain.TransactionCompleted {
		action = domain.AuditMpesaCompleted
	}
	if r.audit != nil {
		userID := t.UserID
		err := r.audit.Create(&models.AuditLog{
			UserID:     &userID,
			Action:     action,
			Resource:   "mpesa_transaction",
			ResourceID: t.CheckoutRequestID,
			IP:         src.IP,
			UserAgent:  src.UserAgent,
			Metadata:   fmt.Sprintf(`{"result_code":%d,"receipt_number":%q}`, derefInt(t.ResultCode), t.ReceiptNumber),
		})
		if err != nil {
			log.Warn("audit log write failed", zap.Error(err))
		}
	}
	if r.notifier != nil {
		if err := r.notifier.NotifyPaymentSettled(t); err != nil {
			log.Warn("settlement notification failed", zap.Error(err))
		}
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
