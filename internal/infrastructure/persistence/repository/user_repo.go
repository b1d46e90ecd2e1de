package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/internal/infrastructure/persistence/sqldb"
)

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sqldb.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqldb.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// Create inserts an operator account
func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	ex := r.db.Executor(ctx)
	query := ex.Rebind(`INSERT INTO users (id, username, password_hash, tenant_id, created_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err := ex.ExecContext(ctx, query, u.ID, u.Username, u.PasswordHash, u.TenantID, utc(u.CreatedAt)); err != nil {
		r.logger.Error("Failed to create user", zap.String("username", u.Username), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, tenant_id, created_at FROM users WHERE id = ?`, id)
}

// GetByUsername retrieves a user by login name
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, tenant_id, created_at FROM users WHERE username = ?`, username)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*entity.User, error) {
	ex := r.db.Executor(ctx)
	var u entity.User
	if err := sqlx.GetContext(ctx, ex, &u, ex.Rebind(query), arg); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
