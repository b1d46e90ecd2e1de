package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/service"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	health   HealthFunc
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, health HealthFunc, logger *zap.Logger) *Handlers {
	return &Handlers{services: services, health: health, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	if h.health != nil {
		resp.Components = make(map[string]string)
		for name, err := range h.health(c.Request.Context()) {
			if err != nil {
				resp.Components[name] = err.Error()
				resp.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "ok"
		}
	}

	c.JSON(status, Response{Success: status == http.StatusOK, Data: resp})
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, fmt.Errorf("%w: usuário e senha são obrigatórios", service.ErrInvalidInput))
		return
	}

	result, err := h.services.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user_id":    result.Principal.UserID,
		"username":   result.Principal.Username,
		"tenant_id":  result.Principal.TenantID,
	}})
}

// bindJSON decodes the request body or answers 400
func (h *Handlers) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.writeError(c, fmt.Errorf("%w: corpo da requisição inválido", service.ErrInvalidInput))
		return false
	}
	return true
}
