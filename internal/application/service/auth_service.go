package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/pkg/utils"
)

const minPasswordLength = 8

// LoginResult is a signed bearer token and the principal it carries
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Principal entity.Principal `json:"-"`
}

// AuthService authenticates operators and manages their accounts
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)

	// Authenticate resolves a bearer token to the current principal
	Authenticate(ctx context.Context, token string) (entity.Principal, error)

	// CreateUser creates an account. A non-empty tenant name attaches the user
	// to that tenant, creating it when missing.
	CreateUser(ctx context.Context, username, password, tenantName string) (*entity.User, error)

	// EnsureUser creates the account unless the username already exists
	EnsureUser(ctx context.Context, username, password, tenantName string) (*entity.User, error)
}

type authServiceImpl struct {
	users   port.UserRepository
	tenants port.TenantRepository
	tx      port.TransactionManager
	hasher  port.PasswordHasher
	issuer  port.TokenIssuer
	clock   port.Clock
	logger  *zap.Logger
}

// NewAuthService creates an AuthService
func NewAuthService(
	users port.UserRepository,
	tenants port.TenantRepository,
	tx port.TransactionManager,
	hasher port.PasswordHasher,
	issuer port.TokenIssuer,
	clock port.Clock,
	logger *zap.Logger,
) AuthService {
	if clock == nil {
		clock = port.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authServiceImpl{
		users:   users,
		tenants: tenants,
		tx:      tx,
		hasher:  hasher,
		issuer:  issuer,
		clock:   clock,
		logger:  logger,
	}
}

// Login does not tell unknown users apart from wrong passwords.
func (s *authServiceImpl) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	logger := utils.LoggerFrom(ctx, s.logger)

	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, port.ErrNotFound) {
		logger.Info("Login failed", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		logger.Info("Login failed", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	p := entity.PrincipalFor(u)
	token, expiresAt, err := s.issuer.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	logger.Info("User logged in", zap.String("user_id", u.ID), zap.Bool("has_tenant", p.HasTenant()))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Principal: p}, nil
}

func (s *authServiceImpl) Authenticate(ctx context.Context, token string) (entity.Principal, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return entity.Principal{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, port.ErrNotFound) {
		return entity.Principal{}, fmt.Errorf("%w: user %s no longer exists", ErrInvalidCredentials, claims.UserID)
	}
	if err != nil {
		return entity.Principal{}, fmt.Errorf("load user: %w", err)
	}
	return entity.PrincipalFor(u), nil
}

func (s *authServiceImpl) CreateUser(ctx context.Context, username, password, tenantName string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	tenantName = utils.SanitizeString(tenantName)
	if username == "" {
		return nil, invalid("username is required")
	}
	if len(password) < minPasswordLength {
		return nil, invalid("password must have at least %d characters", minPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	u := &entity.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if tenantName != "" {
			tenant, err := s.tenantByName(txCtx, tenantName, now)
			if err != nil {
				return err
			}
			u.TenantID = &tenant.ID
		}
		if err := s.users.Create(txCtx, u); err != nil {
			return fmt.Errorf("create user %s: %w", username, err)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	utils.LoggerFrom(ctx, s.logger).Info("User created",
		zap.String("user_id", u.ID), zap.String("username", u.Username), zap.String("tenant", tenantName))
	return u, nil
}

func (s *authServiceImpl) EnsureUser(ctx context.Context, username, password, tenantName string) (*entity.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, port.ErrNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return s.CreateUser(ctx, username, password, tenantName)
}

func (s *authServiceImpl) tenantByName(ctx context.Context, name string, now time.Time) (*entity.Tenant, error) {
	t, err := s.tenants.GetByName(ctx, name)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, port.ErrNotFound) {
		return nil, fmt.Errorf("load tenant %s: %w", name, err)
	}
	t = &entity.Tenant{ID: uuid.NewString(), Name: name, CreatedAt: now}
	if err := s.tenants.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tenant %s: %w", name, err)
	}
	return t, nil
}
