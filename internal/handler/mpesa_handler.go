package handler

import (
	"errors"
	"net/http"

	"tukio/internal/domain"
	"tukio/internal/middleware"
	"tukio/internal/repository"
	"tukio/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MpesaHandler struct {
	paymentSvc *service.PaymentService
	txRepo     *repository.TransactionRepository
	logger     *zap.Logger
}

func NewMpesaHandler(paymentSvc *service.PaymentService, txRepo *repository.TransactionRepository, logger *zap.Logger) *MpesaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MpesaHandler{paymentSvc: paymentSvc, txRepo: txRepo, logger: logger}
}

// Initiate sends an STK push for the authenticated user. The response is
// always the uniform payment result; only an unreadable body gets a 400.
func (h *MpesaHandler) Initiate(c *gin.Context) {
	var req service.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, service.PaymentResult{Message: "Invalid request body"})
		return
	}
	userID := middleware.GetUserID(c)
	if req.UserID != "" && req.UserID != userID {
		h.logger.Warn("payment request for another user",
			zap.String("user_id", userID),
			zap.String("body_user_id", req.UserID),
			zap.String("request_id", middleware.GetRequestID(c)))
		c.JSON(http.StatusOK, service.PaymentResult{Message: service.MsgAuthRequired})
		return
	}
	req.UserID = userID
	c.JSON(http.StatusOK, h.paymentSvc.InitiatePayment(c.Request.Context(), req))
}

// Status returns one of the caller's transactions, for polling after a push.
func (h *MpesaHandler) Status(c *gin.Context) {
	t, err := h.txRepo.GetByCheckoutRequestID(c.Param("checkout_request_id"))
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && t.UserID != middleware.GetUserID(c)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *MpesaHandler) ListMine(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.txRepo.ListByUserID(middleware.GetUserID(c), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}

// AdminList is the ledger audit view; ?status=pending surfaces stuck pushes.
func (h *MpesaHandler) AdminList(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", domain.TransactionPending, domain.TransactionCompleted, domain.TransactionFailed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be pending, completed or failed"})
		return
	}
	limit, offset := pagination(c)
	list, err := h.txRepo.ListByStatus(status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list})
}
