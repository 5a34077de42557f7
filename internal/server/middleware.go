package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/klaud-0x/klaud-api/internal/quota"
)

const identityKey = "caller_identity"

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Set("request_id", requestID)

		c.Next()

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		}).Info("request")
	}
}

// recovery turns panics into the generic internal-error envelope. The full
// panic value is logged, never returned to the caller.
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.log.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		}).Error("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal error",
			"message": "unexpected failure handling the request",
		})
	})
}

// identityMiddleware resolves who is calling. The credential comes from
// ?key= or the Authorization bearer header; the rate key from the
// credential for pro callers, or the client IP otherwise.
func (s *Server) identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.Query("key")
		if apiKey == "" {
			auth := c.GetHeader("Authorization")
			apiKey = strings.TrimPrefix(auth, "Bearer ")
			if apiKey == auth {
				apiKey = ""
			}
		}
		id := s.resolver.Resolve(c.Request.Context(), apiKey, c.ClientIP())
		c.Set(identityKey, id)
		c.Next()
	}
}

func (s *Server) identity(c *gin.Context) quota.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(quota.Identity); ok {
			return id
		}
	}
	return quota.Identity{RateKey: "unknown"}
}

func (s *Server) tierLimit(id quota.Identity) int {
	if id.Elevated {
		return s.cfg.Quota.ProDailyLimit
	}
	return s.cfg.Quota.FreeDailyLimit
}

// quotaMiddleware admits or rejects against the daily limit and records
// consumption for admitted requests just before they dispatch.
func (s *Server) quotaMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := s.identity(c)
		limit := s.tierLimit(id)

		d := s.gate.Admit(c.Request.Context(), id, limit)
		if !d.Admitted {
			upgrade := "Upgrade to Pro: $9/month USDT (TRC20) → TXdtWvw3QknYfGimkGVTu4sNyzWNe4eoUm"
			if id.Elevated {
				upgrade = "Contact support to increase limits"
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Daily limit reached",
				"usage":   d.Usage,
				"limit":   d.Limit,
				"upgrade": upgrade,
			})
			return
		}

		s.gate.Record(c.Request.Context(), id, d.Usage)
		c.Next()
	}
}
