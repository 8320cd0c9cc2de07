package handler

import (
	"io"
	"net/http"

	"tukio/internal/middleware"
	"tukio/internal/service"
	"tukio/pkg/mpesa"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxCallbackBody = 64 << 10

// callbackAck is what Daraja expects back; anything but a 200 makes it retry.
var callbackAck = gin.H{"ResultCode": 0, "ResultDesc": "Accepted"}

type MpesaWebhookHandler struct {
	reconciler *service.Reconciler
	logger     *zap.Logger
}

func NewMpesaWebhookHandler(reconciler *service.Reconciler, logger *zap.Logger) *MpesaWebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MpesaWebhookHandler{reconciler: reconciler, logger: logger}
}

// Handle reconciles an STK callback. The provider is always acknowledged;
// processing problems are logged and redelivery is harmless.
func (h *MpesaWebhookHandler) Handle(c *gin.Context) {
	log := h.logger.With(zap.String("request_id", middleware.GetRequestID(c)))
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody+1))
	if err != nil {
		log.Warn("mpesa callback: read body failed", zap.Error(err))
		c.JSON(http.StatusOK, callbackAck)
		return
	}
	// A redelivery would be just as large, so acknowledge and leave it to the operator.
	if len(body) > maxCallbackBody {
		log.Error("mpesa callback: body too large, not reconciled",
			zap.Int("limit", maxCallbackBody),
			zap.String("ip", c.ClientIP()),
			zap.ByteString("head", body[:256]))
		c.JSON(http.StatusOK, callbackAck)
		return
	}
	cb, err := mpesa.ParseSTKCallback(body)
	if err != nil {
		log.Warn("mpesa callback: unparseable payload", zap.Error(err), zap.Int("bytes", len(body)))
		c.JSON(http.StatusOK, callbackAck)
		return
	}
	// errors are logged by the reconciler
	_, _ = h.reconciler.Reconcile(c.Request.Context(), cb, service.CallbackSource{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, callbackAck)
}
