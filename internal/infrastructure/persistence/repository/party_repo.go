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

var partyTables = map[entity.PartyKind]string{
	entity.PartyClient:  "clients",
	entity.PartyCarrier: "carriers",
	entity.PartyDriver:  "drivers",
}

const partyColumns = `id, tenant_id, name, document, phone, email, created_at, updated_at`

// PartyRepository implements port.PartyRepository over one table per kind
type PartyRepository struct {
	db     *sqldb.DB
	logger *zap.Logger
}

// NewPartyRepository creates a new party repository
func NewPartyRepository(db *sqldb.DB, logger *zap.Logger) port.PartyRepository {
	return &PartyRepository{db: db, logger: logger}
}

func tableFor(kind entity.PartyKind) (string, error) {
	table, ok := partyTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown party kind %q", kind)
	}
	return table, nil
}

// Create inserts a party
func (r *PartyRepository) Create(ctx context.Context, p *entity.Party) error {
	table, err := tableFor(p.Kind)
	if err != nil {
		return err
	}

	ex := r.db.Executor(ctx)
	query := ex.Rebind(`INSERT INTO ` + table + ` (` + partyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = ex.ExecContext(ctx, query,
		p.ID, p.TenantID, p.Name, p.Document, p.Phone, p.Email, utc(p.CreatedAt), utc(p.UpdatedAt))
	if err != nil {
		r.logger.Error("Failed to create party", zap.String("kind", string(p.Kind)), zap.Error(err))
		return fmt.Errorf("failed to create %s: %w", p.Kind, mapError(err))
	}
	return nil
}

// GetByID retrieves a party by ID
func (r *PartyRepository) GetByID(ctx context.Context, kind entity.PartyKind, id string) (*entity.Party, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	ex := r.db.Executor(ctx)
	var p entity.Party
	query := ex.Rebind(`SELECT ` + partyColumns + ` FROM ` + table + ` WHERE id = ?`)
	if err := sqlx.GetContext(ctx, ex, &p, query, id); err != nil {
		return nil, mapError(err)
	}
	p.Kind = kind
	return &p, nil
}

// List returns a tenant's parties of one kind ordered by name
func (r *PartyRepository) List(ctx context.Context, kind entity.PartyKind, tenantID string) ([]*entity.Party, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	ex := r.db.Executor(ctx)
	var parties []*entity.Party
	query := ex.Rebind(`SELECT ` + partyColumns + ` FROM ` + table + ` WHERE tenant_id = ? ORDER BY name ASC, id ASC`)
	if err := sqlx.SelectContext(ctx, ex, &parties, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	for _, p := range parties {
		p.Kind = kind
	}
	return parties, nil
}

// Update rewrites the editable fields of a party
func (r *PartyRepository) Update(ctx context.Context, p *entity.Party) error {
	table, err := tableFor(p.Kind)
	if err != nil {
		return err
	}

	ex := r.db.Executor(ctx)
	query := ex.Rebind(`UPDATE ` + table + ` SET name = ?, document = ?, phone = ?, email = ?, updated_at = ? WHERE id = ?`)
	res, err := ex.ExecContext(ctx, query, p.Name, p.Document, p.Phone, p.Email, utc(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", p.Kind, mapError(err))
	}
	return expectOne(res)
}

// Delete removes a party. Referenced parties are rejected by the foreign keys.
func (r *PartyRepository) Delete(ctx context.Context, kind entity.PartyKind, id string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	ex := r.db.Executor(ctx)
	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM `+table+` WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, mapError(err))
	}
	return expectOne(res)
}

func expectOne(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return port.ErrNotFound
	}
	return nil
}

var _ port.PartyRepository = (*PartyRepository)(nil)
