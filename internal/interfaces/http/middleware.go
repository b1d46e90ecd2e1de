package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/service"
	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/pkg/utils"
)

const (
	principalKey    = "principal"
	requestIDHeader = "X-Request-ID"

	msgUnauthorized = "Token de acesso ausente ou inválido"
)

// loggingMiddleware attaches a request-scoped logger and logs each request once it completes
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		logger := s.logger.With(
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Request = c.Request.WithContext(utils.WithLogger(c.Request.Context(), logger))

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if p, ok := principalFrom(c); ok {
			fields = append(fields, zap.String("user_id", p.UserID))
		}
		logger.Info("HTTP request", fields...)
	}
}

// authMiddleware resolves the bearer token into the caller's principal
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", msgUnauthorized))
			return
		}

		p, err := s.handlers.services.Auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if errors.Is(err, service.ErrInvalidCredentials) {
			requestLogger(c, s.logger).Info("Rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", msgUnauthorized))
			return
		}
		if err != nil {
			s.handlers.writeError(c, err)
			c.Abort()
			return
		}

		c.Set(principalKey, p)
		logger := requestLogger(c, s.logger).With(zap.String("user_id", p.UserID))
		c.Request = c.Request.WithContext(utils.WithLogger(c.Request.Context(), logger))
		c.Next()
	}
}

func principalFrom(c *gin.Context) (entity.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return entity.Principal{}, false
	}
	p, ok := v.(entity.Principal)
	return p, ok
}

// principal returns the authenticated caller; routes behind authMiddleware always have one
func principal(c *gin.Context) entity.Principal {
	p, _ := principalFrom(c)
	return p
}

func requestLogger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	return utils.LoggerFrom(c.Request.Context(), fallback)
}
