package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/dispatcher"
	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/infrastructure/messaging"
	"github.com/valepallet/vpallet/internal/infrastructure/persistence/sqldb"
	httpapi "github.com/valepallet/vpallet/internal/interfaces/http"
	"github.com/valepallet/vpallet/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger
	clock  port.Clock

	// Infrastructure - Data
	conn         *database.DB
	db           *sqldb.DB
	repositories *RepositoryBundle

	// Infrastructure - Storage and credentials
	fileStorage port.FileStorage
	auth        *AuthBundle

	// Application
	dispatcher dispatcher.Dispatcher
	publisher  *messaging.EventPublisher
	services   *ServiceBundle

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// Option customizes a Container
type Option func(*Container)

// WithClock replaces the wall clock
func WithClock(clock port.Clock) Option {
	return func(c *Container) {
		c.clock = clock
	}
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Container{
		config: cfg,
		logger: logger,
		clock:  port.SystemClock,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start initializes all components:
// 1. Database, migrations and repositories
// 2. Storage and credentials
// 3. Event dispatcher and broker
// 4. Application services
// 5. Bootstrap account
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized", zap.String("driver", c.config.Database.Driver))

	if err := c.initStorageAndAuth(); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.logger.Info("Storage initialized", zap.String("base_dir", c.config.Storage.BaseDir))

	if err := c.initEvents(ctx); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize events: %w", err)
	}
	c.logger.Info("Event dispatcher initialized", zap.Bool("broker", c.publisher != nil))

	if err := c.initServices(); err != nil {
		c.teardown()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	if err := c.bootstrapAdmin(ctx); err != nil {
		c.teardown()
		return fmt.Errorf("failed to create bootstrap account: %w", err)
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	errs := c.teardown()

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors: %w", len(errs), errors.Join(errs...))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) teardown() []error {
	var errs []error

	// Dispatcher first so no handler publishes to a closed broker
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
		c.dispatcher = nil
	}

	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			c.logger.Error("Failed to close event publisher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
		c.publisher = nil
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		c.conn = nil
	}
	return errs
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health checks each backing component. A nil value means healthy.
func (c *Container) Health(ctx context.Context) map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := map[string]error{}
	if c.conn == nil {
		status["database"] = errors.New("not initialized")
	} else {
		status["database"] = c.conn.Health(ctx)
	}

	if c.dispatcher == nil {
		status["dispatcher"] = errors.New("not initialized")
	} else {
		status["dispatcher"] = nil
	}
	return status
}

func (c *Container) initDatabase(ctx context.Context) error {
	bundle, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.conn = bundle.Conn
	c.db = bundle.TxManager

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		c.teardown()
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initStorageAndAuth() error {
	fs, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		return err
	}
	c.fileStorage = fs

	authBundle, err := ProvideAuth(&c.config.Auth, c.clock)
	if err != nil {
		return err
	}
	c.auth = authBundle
	return nil
}

func (c *Container) initEvents(ctx context.Context) error {
	d, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = d

	pub, err := ProvideEventPublisher(ctx, &c.config.Events, d, c.logger)
	if err != nil {
		return err
	}
	c.publisher = pub
	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Config:     c.config,
		Repos:      c.repositories,
		TxManager:  c.db,
		Auth:       c.auth,
		Storage:    c.fileStorage,
		Dispatcher: c.dispatcher,
		Clock:      c.clock,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

func (c *Container) bootstrapAdmin(ctx context.Context) error {
	cfg := c.config.Auth
	if cfg.AdminUsername == "" {
		return nil
	}
	user, err := c.services.Auth.EnsureUser(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminTenant)
	if err != nil {
		return err
	}
	c.logger.Info("Bootstrap account ready",
		zap.String("username", user.Username),
		zap.Stringp("tenant_id", user.TenantID))
	return nil
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// HTTPServices returns the services the HTTP API serves.
func (c *Container) HTTPServices() httpapi.Services {
	return httpapi.Services{
		Vouchers: c.services.Vouchers,
		Scans:    c.services.Scans,
		Parties:  c.services.Parties,
		Auth:     c.services.Auth,
		Reports:  c.services.Reports,
	}
}

// Repositories returns the repository bundle.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// dispatcherLoggerAdapter adapts zap.Logger to the dispatcher.Logger interface.
type dispatcherLoggerAdapter struct {
	logger *zap.Logger
}

func (a *dispatcherLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *dispatcherLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
