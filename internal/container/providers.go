package container

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/dispatcher"
	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/application/service"
	"github.com/valepallet/vpallet/internal/application/workflow"
	"github.com/valepallet/vpallet/internal/domain/credential"
	"github.com/valepallet/vpallet/internal/infrastructure/auth"
	"github.com/valepallet/vpallet/internal/infrastructure/messaging"
	"github.com/valepallet/vpallet/internal/infrastructure/persistence/repository"
	"github.com/valepallet/vpallet/internal/infrastructure/persistence/sqldb"
	"github.com/valepallet/vpallet/internal/infrastructure/qrcode"
	"github.com/valepallet/vpallet/internal/infrastructure/report"
	"github.com/valepallet/vpallet/internal/infrastructure/storage"
	"github.com/valepallet/vpallet/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn      *database.DB
	TxManager *sqldb.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Vouchers  port.VoucherRepository
	Movements port.MovementRepository
	Parties   port.PartyRepository
	Users     port.UserRepository
	Tenants   port.TenantRepository
}

// AuthBundle holds credential components.
type AuthBundle struct {
	Issuer port.TokenIssuer
	Hasher port.PasswordHasher
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Vouchers service.VoucherService
	Scans    service.ScanService
	Parties  service.PartyService
	Auth     service.AuthService
	Reports  service.ReportService
}

// ProvideDatabase opens the database and applies pending migrations when enabled.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	conn, err := database.New(database.Config{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		applied, err := database.NewMigrator(conn, logger).Up(ctx)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("Migrations applied", zap.Int("count", applied))
	}

	return &DatabaseBundle{
		Conn:      conn,
		TxManager: sqldb.NewDB(conn.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories on top of the transaction manager.
func ProvideRepositories(db *sqldb.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	repoLogger := logger.Named("repository")
	return &RepositoryBundle{
		Vouchers:  repository.NewVoucherRepository(db, repoLogger),
		Movements: repository.NewMovementRepository(db, repoLogger),
		Parties:   repository.NewPartyRepository(db, repoLogger),
		Users:     repository.NewUserRepository(db, repoLogger),
		Tenants:   repository.NewTenantRepository(db, repoLogger),
	}, nil
}

// ProvideStorage creates the QR image store.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("storage base dir is required")
	}
	return storage.NewLocalFileStorage(cfg.BaseDir, logger.Named("storage")), nil
}

// ProvideAuth creates the token issuer and password hasher.
func ProvideAuth(cfg *AuthConfig, clock port.Clock) (*AuthBundle, error) {
	issuer, err := auth.NewJWTIssuer(cfg.JWTSecret, cfg.TokenTTL, clock)
	if err != nil {
		return nil, err
	}
	return &AuthBundle{
		Issuer: issuer,
		Hasher: auth.NewBcryptHasher(cfg.BcryptCost),
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&dispatcherLoggerAdapter{logger: logger.Named("dispatcher")}),
	), nil
}

// ProvideEventPublisher connects the broker and subscribes the event handlers.
// The returned publisher is nil when events are disabled.
func ProvideEventPublisher(ctx context.Context, cfg *EventsConfig, d dispatcher.Dispatcher, logger *zap.Logger) (*messaging.EventPublisher, error) {
	eventLogger := logger.Named("events")
	if !cfg.Enabled {
		messaging.Register(d, nil, eventLogger)
		return nil, nil
	}

	pub, err := messaging.NewPublisher(ctx, messaging.Config{
		RedisAddr: cfg.RedisAddr,
		Topic:     cfg.Topic,
	}, eventLogger)
	if err != nil {
		return nil, err
	}

	messaging.Register(d, pub, eventLogger)
	return pub, nil
}

// ServiceDeps holds the dependencies for creating the application services.
type ServiceDeps struct {
	Config     *Config
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Auth       *AuthBundle
	Storage    port.FileStorage
	Dispatcher dispatcher.Dispatcher
	Clock      port.Clock
	Logger     *zap.Logger
}

// ProvideServices creates the lifecycle engine and every application service.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}

	loc, err := time.LoadLocation(deps.Config.Voucher.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	engine := workflow.NewEngine(
		deps.Repos.Vouchers,
		deps.Repos.Movements,
		deps.TxManager,
		workflow.WithDispatcher(deps.Dispatcher),
	)

	serviceLogger := deps.Logger.Named("service")
	return &ServiceBundle{
		Vouchers: service.NewVoucherService(service.VoucherServiceDeps{
			Vouchers:     deps.Repos.Vouchers,
			MovementRepo: deps.Repos.Movements,
			Parties:      deps.Repos.Parties,
			TxManager:    deps.TxManager,
			Engine:       engine,
			Tokens:       credential.NewRandomTokens(),
			QR:           qrcode.NewEncoder(deps.Config.Voucher.QRSize),
			Storage:      deps.Storage,
			Clock:        deps.Clock,
			Dispatcher:   deps.Dispatcher,
			Logger:       serviceLogger,
		}, service.VoucherConfig{
			PublicBaseURL:   deps.Config.Voucher.PublicBaseURL,
			Location:        loc,
			DefaultValidity: deps.Config.Voucher.DefaultValidity,
		}),
		Scans:   service.NewScanService(deps.Repos.Vouchers, engine, deps.Clock, serviceLogger),
		Parties: service.NewPartyService(deps.Repos.Parties, deps.Repos.Vouchers, deps.Clock, serviceLogger),
		Auth: service.NewAuthService(
			deps.Repos.Users,
			deps.Repos.Tenants,
			deps.TxManager,
			deps.Auth.Hasher,
			deps.Auth.Issuer,
			deps.Clock,
			serviceLogger,
		),
		Reports: service.NewReportService(
			deps.Repos.Vouchers,
			deps.Repos.Movements,
			deps.Repos.Parties,
			report.NewExcelRenderer(loc, deps.Logger.Named("report")),
			deps.Clock,
			serviceLogger,
		),
	}, nil
}
