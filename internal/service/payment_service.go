package service

import (
	"context"
	"errors"
	"strings"

	"tukio/internal/domain"
	"tukio/internal/models"
	"tukio/internal/requestid"
	"tukio/pkg/mpesa"

	"go.uber.org/zap"
)

// STKPusher sends one signed STK push. *mpesa.Client implements it.
type STKPusher interface {
	STKPush(ctx context.Context, req mpesa.PushRequest) (*mpesa.STKPushResponse, error)
}

// TransactionRecorder persists a pending transaction. *repository.TransactionRepository implements it.
type TransactionRecorder interface {
	Create(t *models.Transaction) error
}

type PaymentRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Amount      int64  `json:"amount"` // minor units
	EventID     string `json:"eventId"`
	UserID      string `json:"userId"`
}

// PaymentResult is the uniform outcome of an initiation. Success means the
// prompt reached the handset, not that the customer paid.
type PaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId,omitempty"`
	Message       string `json:"message"`
}

const (
	MsgInitiated          = "Payment initiated successfully. Please check your phone to complete the transaction."
	MsgInvalidPhone       = "Invalid phone number"
	MsgInvalidAmount      = "Invalid amount"
	MsgInvalidEvent       = "Invalid event"
	MsgAuthRequired       = "Authentication required"
	MsgServiceUnavailable = "Payment service unavailable"
	MsgNetwork            = "Could not reach the payment service. Please try again."
	MsgRejected           = "Payment request was rejected"
	MsgNotRecorded        = "Payment was sent but could not be recorded. Please contact support."
	MsgFailed             = "Payment failed. Please try again."
)

type PaymentService struct {
	pusher STKPusher
	ledger TransactionRecorder
	logger *zap.Logger
}

func NewPaymentService(pusher STKPusher, ledger TransactionRecorder, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{pusher: pusher, ledger: ledger, logger: logger}
}

// InitiatePayment validates, pushes and records one payment attempt. It never
// returns an error; every failure is folded into the result message.
func (s *PaymentService) InitiatePayment(ctx context.Context, req PaymentRequest) PaymentResult {
	log := s.logger.With(
		zap.String("event_id", req.EventID),
		zap.String("user_id", req.UserID),
		zap.String("request_id", requestid.From(ctx)),
	)
	log.Debug("stk push stage", zap.String("stage", "validating"))
	if verr := validate(req); verr != nil {
		log.Info("payment request rejected", zap.String("field", verr.Field), zap.String("reason", verr.Message))
		return PaymentResult{Message: verr.Message}
	}

	phone := mpesa.NormalizePhone(req.PhoneNumber)
	amount := mpesa.MajorUnits(req.Amount)
	resp, err := s.pusher.STKPush(ctx, mpesa.PushRequest{
		PhoneNumber:      phone,
		Amount:           amount,
		AccountReference: AccountReference(req.EventID),
		Description:      Description(req.EventID),
	})
	if err != nil {
		return s.failure(log, err)
	}
	log = log.With(zap.String("checkout_request_id", resp.CheckoutRequestID))

	err = s.ledger.Create(&models.Transaction{
		PhoneNumber:       phone,
		Amount:            amount,
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		AccountReference:  AccountReference(req.EventID),
		Status:            domain.TransactionPending,
		EventID:           req.EventID,
		UserID:            req.UserID,
	})
	if err != nil {
		// The handset already has the prompt; the callback will surface as an unknown id.
		log.Error("failed to record accepted stk push", zap.Error(err))
		return PaymentResult{Message: MsgNotRecorded}
	}

	log.Debug("stk push stage", zap.String("stage", "returned"))
	log.Info("stk push accepted", zap.Int64("amount", amount))
	return PaymentResult{Success: true, TransactionID: resp.CheckoutRequestID, Message: MsgInitiated}
}

func (s *PaymentService) failure(log *zap.Logger, err error) PaymentResult {
	var (
		authErr     *mpesa.AuthError
		providerErr *mpesa.ProviderError
		netErr      *mpesa.NetworkError
	)
	switch {
	case errors.Is(err, mpesa.ErrMissingCredentials):
		log.Error("mpesa credentials are not configured", zap.Error(err))
		return PaymentResult{Message: MsgServiceUnavailable}
	case errors.As(err, &authErr):
		log.Error("mpesa token acquisition failed", zap.Error(err))
		return PaymentResult{Message: MsgServiceUnavailable}
	case errors.As(err, &providerErr):
		log.Warn("stk push rejected by provider",
			zap.Int("status", providerErr.StatusCode),
			zap.String("code", providerErr.Code),
			zap.String("description", providerErr.Description))
		if providerErr.Description == "" {
			return PaymentResult{Message: MsgRejected}
		}
		return PaymentResult{Message: providerErr.Description}
	case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.Warn("stk push network failure", zap.Error(err))
		return PaymentResult{Message: MsgNetwork}
	default:
		log.Error("stk push failed", zap.Error(err))
		return PaymentResult{Message: MsgFailed}
	}
}

func validate(req PaymentRequest) *ValidationError {
	if strings.TrimSpace(req.UserID) == "" {
		return &ValidationError{Field: "userId", Message: MsgAuthRequired}
	}
	if len(strings.TrimSpace(req.PhoneNumber)) < mpesa.MinPhoneLength {
		return &ValidationError{Field: "phoneNumber", Message: MsgInvalidPhone}
	}
	if req.Amount <= 0 || mpesa.MajorUnits(req.Amount) < 1 {
		return &ValidationError{Field: "amount", Message: MsgInvalidAmount}
	}
	if strings.TrimSpace(req.EventID) == "" {
		return &ValidationError{Field: "eventId", Message: MsgInvalidEvent}
	}
	return nil
}

// AccountReference ties a push to its event so audits can correlate by reference alone.
func AccountReference(eventID string) string {
	return "Event-" + eventID
}

func Description(eventID string) string {
	return "Payment for Event " + eventID
}
