// Package http exposes the voucher services over a JSON API.
// Handlers only translate requests and errors; all rules live in the services.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/service"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services are the application services the API serves
type Services struct {
	Vouchers service.VoucherService
	Scans    service.ScanService
	Parties  service.PartyService
	Auth     service.AuthService
	Reports  service.ReportService
}

// HealthFunc reports the status of each backing component; a nil error means healthy
type HealthFunc func(ctx context.Context) map[string]error

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, health HealthFunc, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(services, health, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestLogger(c, s.logger).Error("Panic while serving request", zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse("internal_error", msgInternal))
	}))
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/v1")
	api.POST("/auth/login", h.Login)
	api.GET("/verify/:id", h.VerifyVoucher)

	authed := api.Group("", s.authMiddleware())
	{
		h.registerPartyRoutes(authed.Group("/clients"), clientKind)
		h.registerPartyRoutes(authed.Group("/drivers"), driverKind)
		h.registerPartyRoutes(authed.Group("/carriers"), carrierKind)

		vouchers := authed.Group("/vouchers")
		vouchers.GET("", h.ListVouchers)
		vouchers.POST("", h.IssueVoucher)
		vouchers.GET("/export", h.ExportVouchers)
		vouchers.GET("/lookup", h.GetVoucherByNumber)
		vouchers.GET("/:id", h.GetVoucher)
		vouchers.PUT("/:id", h.UpdateVoucher)
		vouchers.DELETE("/:id", h.DeleteVoucher)
		vouchers.POST("/:id/cancel", h.CancelVoucher)
		vouchers.GET("/:id/movements", h.ListMovements)
		vouchers.POST("/:id/movements", h.RegisterMovement)
		vouchers.GET("/:id/qrcode", h.VoucherQRCode)

		authed.GET("/movements", h.ListMovementLog)
		authed.POST("/scan", h.Scan)
	}
}

// Start serves until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
