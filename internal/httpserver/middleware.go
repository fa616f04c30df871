package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dgtech/internal/apperr"
	"dgtech/internal/handler"
	"dgtech/internal/model"
	"dgtech/internal/service/auth"
	"dgtech/internal/service/profile"
	"dgtech/pkg/logger"
	"dgtech/pkg/metrics"
	"dgtech/pkg/trace"
	"dgtech/pkg/util"
)

// TraceMiddleware puts the request's trace id on the context and echoes it
// in the response.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := trace.FromHeader(c.GetHeader(trace.HeaderName))
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName, traceID)
		c.Next()
	}
}

// RequestLogMiddleware logs every request and records its latency.
func RequestLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(status), latency)

		logger.WithTrace(c.Request.Context(), log).Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// AuthMiddleware validates the bearer token, rejects revoked tokens and
// stores the claims on the context.
func AuthMiddleware(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(handler.KeyClaims, claims)
		c.Next()
	}
}

// PrincipalMiddleware resolves the caller's role from their profile and
// stores the principal on the context.
func PrincipalMiddleware(profiles *profile.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := handler.CurrentClaims(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		role, err := profiles.RoleOf(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.WithTrace(c.Request.Context(), log).Warn("Role resolution failed",
				zap.String("user_id", claims.UserID),
				zap.Error(err),
			)
			c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
			c.Abort()
			return
		}

		c.Set(handler.KeyPrincipal, model.Principal{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   role,
		})
		c.Next()
	}
}
