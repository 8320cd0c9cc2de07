package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"tukio/internal/domain"
	"tukio/internal/models"
	"tukio/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CallbackGuard admits provider callbacks only when they carry the shared
// token (if configured) and come from an allowed address (if configured).
// Entries in allowed may be single IPs or CIDR ranges.
func CallbackGuard(token string, allowed []string, audit *repository.AuditLogRepository, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	nets := parseAllowList(allowed, logger)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if len(nets) > 0 && !ipAllowed(ip, nets) {
			deny(c, http.StatusForbidden, "address not allowed", audit, logger)
			return
		}
		if token != "" && subtle.ConstantTimeCompare([]byte(c.Query("token")), []byte(token)) != 1 {
			deny(c, http.StatusUnauthorized, "bad callback token", audit, logger)
			return
		}
		c.Next()
	}
}

func deny(c *gin.Context, status int, reason string, audit *repository.AuditLogRepository, logger *zap.Logger) {
	logger.Warn("mpesa callback denied",
		zap.String("reason", reason),
		zap.String("ip", c.ClientIP()),
		zap.String("request_id", GetRequestID(c)))
	if audit != nil {
		err := audit.Create(&models.AuditLog{
			Action:    domain.AuditMpesaCallbackDenied,
			Resource:  "mpesa_callback",
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Metadata:  `{"reason":"` + reason + `"}`,
		})
		if err != nil {
			logger.Warn("audit log write failed", zap.Error(err))
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"ResultCode": 1, "ResultDesc": "Rejected"})
}

func parseAllowList(allowed []string, logger *zap.Logger) []*net.IPNet {
	var nets []*net.IPNet
	for _, a := range allowed {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if !strings.Contains(a, "/") {
			if strings.Contains(a, ":") {
				a += "/128"
			} else {
				a += "/32"
			}
		}
		_, n, err := net.ParseCIDR(a)
		if err != nil {
			logger.Warn("ignoring invalid callback allow-list entry", zap.String("entry", a))
			continue
		}
		nets = append(nets, n)
	}
	return nets
}

func ipAllowed(ip string, nets []*net.IPNet) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}
