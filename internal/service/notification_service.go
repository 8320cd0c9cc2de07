package service

import (
	"encoding/json"
	"fmt"

	"tukio/internal/domain"
	"tukio/internal/models"
	"tukio/internal/repository"
	"tukio/internal/ws"
)

// PaymentStatusMessage is pushed on the payments websocket when a transaction settles.
type PaymentStatusMessage struct {
	Type              string `json:"type"`
	TransactionID     string `json:"transaction_id"`
	CheckoutRequestID string `json:"checkout_request_id"`
	EventID           string `json:"event_id"`
	Status            string `json:"status"`
	ReceiptNumber     string `json:"receipt_number,omitempty"`
}

type NotificationService struct {
	repo *repository.NotificationRepository
	hub  *ws.Hub
}

func NewNotificationService(repo *repository.NotificationRepository, hub *ws.Hub) *NotificationService {
	return &NotificationService{repo: repo, hub: hub}
}

func (s *NotificationService) Notify(userID, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
}

// NotifyPaymentSettled persists a notification and pushes the new status to
// the user's open connections. The push happens even if persisting fails.
func (s *NotificationService) NotifyPaymentSettled(t *models.Transaction) error {
	if s.hub != nil {
		s.hub.BroadcastToUser(t.UserID, PaymentStatusMessage{
			Type:              "payment_status",
			TransactionID:     t.ID,
			CheckoutRequestID: t.CheckoutRequestID,
			EventID:           t.EventID,
			Status:            t.Status,
			ReceiptNumber:     t.ReceiptNumber,
		})
	}
	data := map[string]interface{}{
		"transaction_id":      t.ID,
		"checkout_request_id": t.CheckoutRequestID,
		"event_id":            t.EventID,
		"amount":              t.Amount,
	}
	if t.Status == domain.TransactionCompleted {
		data["receipt_number"] = t.ReceiptNumber
		return s.Notify(t.UserID, domain.NotificationPaymentCompleted, "Payment confirmed",
			fmt.Sprintf("Your payment of KES %d was received. You're on the list.", t.Amount), data)
	}
	return s.Notify(t.UserID, domain.NotificationPaymentFailed, "Payment not completed",
		"Your M-Pesa payment did not go through. You can try again from the event page.", data)
}
