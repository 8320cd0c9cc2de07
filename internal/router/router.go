package router

import (
	"net/http"

	"tukio/config"
	"tukio/internal/handler"
	"tukio/internal/middleware"
	"tukio/internal/repository"
	"tukio/internal/service"
	"tukio/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators built by the composition root.
type Deps struct {
	Pusher service.STKPusher
	Redis  *redis.Client // optional; enables shared rate limiting
	Logger *zap.Logger
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Error("invalid trusted proxies", zap.Strings("trusted_proxies", cfg.Server.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	var limiter middleware.Limiter
	if deps.Redis != nil {
		limiter = middleware.NewRedisRateLimiter(deps.Redis, cfg.RateLimit.Requests, cfg.RateLimit.Window, "ratelimit")
	} else {
		limiter = middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	// Repositories
	txRepo := repository.NewTransactionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	eventRepo := repository.NewEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	paymentsHub := ws.NewHub()

	// Services
	notifSvc := service.NewNotificationService(notificationRepo, paymentsHub)
	paymentSvc := service.NewPaymentService(deps.Pusher, txRepo, logger.Named("payments"))
	reconciler := service.NewReconciler(db, txRepo, attendanceRepo, eventRepo, auditRepo, notifSvc, logger.Named("reconciler"))

	// Handlers
	mpesaHandler := handler.NewMpesaHandler(paymentSvc, txRepo, logger.Named("payments"))
	webhookHandler := handler.NewMpesaWebhookHandler(reconciler, logger.Named("webhook"))
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws/payments", ws.UpgradePaymentsWS(&cfg.JWT, paymentsHub))

	api := r.Group("/api/v1")
	{
		// Provider callbacks are not rate limited; Daraja retries on anything but 200.
		webhooks := api.Group("/webhooks")
		webhooks.POST("/mpesa",
			middleware.CallbackGuard(cfg.Mpesa.CallbackToken, cfg.Mpesa.CallbackAllowedIPs, auditRepo, logger.Named("webhook")),
			webhookHandler.Handle)

		payments := api.Group("/payments/mpesa")
		payments.Use(middleware.RateLimit(limiter), authMw)
		{
			payments.POST("/initiate", middleware.RateLimitByUser(limiter), mpesaHandler.Initiate)
			payments.GET("/:checkout_request_id", mpesaHandler.Status)
		}

		me := api.Group("/me")
		me.Use(middleware.RateLimit(limiter), authMw)
		{
			me.GET("/payments", mpesaHandler.ListMine)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RateLimit(limiter), authMw, middleware.AdminRequired(cfg.JWT.AdminRole))
		{
			admin.GET("/payments", mpesaHandler.AdminList)
		}
	}
	return r
}
