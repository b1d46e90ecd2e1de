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

// MovementRepository implements port.MovementRepository
type MovementRepository struct {
	db     *sqldb.DB
	logger *zap.Logger
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *sqldb.DB, logger *zap.Logger) port.MovementRepository {
	return &MovementRepository{db: db, logger: logger}
}

// Append assigns the next seq of the voucher and inserts the movement.
// UNIQUE(voucher_id, seq) rejects a concurrent append that drew the same seq.
// Called outside a transaction it opens one, so the seq read and the insert commit together.
func (r *MovementRepository) Append(ctx context.Context, m *entity.Movement) error {
	if !sqldb.InTransaction(ctx) {
		return r.db.WithTransaction(ctx, func(txCtx context.Context) error {
			return r.Append(txCtx, m)
		})
	}
	ex := r.db.Executor(ctx)

	var seq int
	next := ex.Rebind(`SELECT COALESCE(MAX(seq), 0) + 1 FROM movements WHERE voucher_id = ?`)
	if err := sqlx.GetContext(ctx, ex, &seq, next, m.VoucherID); err != nil {
		return fmt.Errorf("failed to compute movement seq: %w", err)
	}

	query := ex.Rebind(`
		INSERT INTO movements (id, voucher_id, seq, kind, created_at, pbr, chep, notes, actor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := ex.ExecContext(ctx, query,
		m.ID, m.VoucherID, seq, string(m.Kind), utc(m.CreatedAt), m.PBR, m.CHEP, m.Notes, m.Actor)
	if err != nil {
		r.logger.Error("Failed to append movement",
			zap.String("voucher_id", m.VoucherID),
			zap.String("kind", string(m.Kind)),
			zap.Error(err))
		return fmt.Errorf("failed to append movement: %w", mapError(err))
	}

	m.Seq = seq
	return nil
}

// ListByVoucher returns the movements of a voucher in seq order
func (r *MovementRepository) ListByVoucher(ctx context.Context, voucherID string) ([]*entity.Movement, error) {
	ex := r.db.Executor(ctx)
	query := ex.Rebind(`
		SELECT id, voucher_id, seq, kind, created_at, pbr, chep, notes, actor
		FROM movements WHERE voucher_id = ? ORDER BY seq ASC
	`)

	var movements []*entity.Movement
	if err := sqlx.SelectContext(ctx, ex, &movements, query, voucherID); err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return movements, nil
}

// ListByTenant returns the movements of the tenant's live vouchers, newest first
func (r *MovementRepository) ListByTenant(ctx context.Context, tenantID string, filter entity.MovementFilter) ([]*entity.Movement, error) {
	ex := r.db.Executor(ctx)

	query := `
		SELECT m.id, m.voucher_id, m.seq, m.kind, m.created_at, m.pbr, m.chep, m.notes, m.actor,
			v.number AS voucher_number
		FROM movements m
		JOIN vouchers v ON v.id = m.voucher_id
		WHERE v.tenant_id = ? AND v.deleted_at IS NULL`
	args := []interface{}{tenantID}
	if filter.Kind != "" {
		query += ` AND m.kind = ?`
		args = append(args, string(filter.Kind))
	}
	query += ` ORDER BY m.created_at DESC, m.seq DESC, m.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	var movements []*entity.Movement
	if err := sqlx.SelectContext(ctx, ex, &movements, ex.Rebind(query), args...); err != nil {
		r.logger.Error("Failed to list movement log", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list movement log: %w", err)
	}
	return movements, nil
}

var _ port.MovementRepository = (*MovementRepository)(nil)
