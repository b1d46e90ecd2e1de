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

// TenantRepository implements port.TenantRepository
type TenantRepository struct {
	db     *sqldb.DB
	logger *zap.Logger
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *sqldb.DB, logger *zap.Logger) port.TenantRepository {
	return &TenantRepository{db: db, logger: logger}
}

// Create inserts a tenant
func (r *TenantRepository) Create(ctx context.Context, t *entity.Tenant) error {
	ex := r.db.Executor(ctx)
	query := ex.Rebind(`INSERT INTO tenants (id, name, created_at) VALUES (?, ?, ?)`)
	if _, err := ex.ExecContext(ctx, query, t.ID, t.Name, utc(t.CreatedAt)); err != nil {
		return fmt.Errorf("failed to create tenant: %w", mapError(err))
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	ex := r.db.Executor(ctx)
	var t entity.Tenant
	if err := sqlx.GetContext(ctx, ex, &t, ex.Rebind(`SELECT id, name, created_at FROM tenants WHERE id = ?`), id); err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

// GetByName retrieves a tenant by its unique name
func (r *TenantRepository) GetByName(ctx context.Context, name string) (*entity.Tenant, error) {
	ex := r.db.Executor(ctx)
	var t entity.Tenant
	if err := sqlx.GetContext(ctx, ex, &t, ex.Rebind(`SELECT id, name, created_at FROM tenants WHERE name = ?`), name); err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

var _ port.TenantRepository = (*TenantRepository)(nil)
