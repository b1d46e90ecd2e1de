package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/internal/infrastructure/persistence/sqldb"
)

const voucherColumns = `id, number, tenant_id, client_id, carrier_id, driver_id, issued_at, valid_until,
	requested_pbr, requested_chep, balance_pbr, balance_chep, status, security_token, qrcode_path, notes,
	created_by, exited_at, exited_by, returned_at, returned_by, cancelled_at, cancelled_by,
	version, updated_at, deleted_at`

// VoucherRepository implements port.VoucherRepository
type VoucherRepository struct {
	db     *sqldb.DB
	logger *zap.Logger
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *sqldb.DB, logger *zap.Logger) port.VoucherRepository {
	return &VoucherRepository{db: db, logger: logger}
}

// Create inserts a voucher at version 1
func (r *VoucherRepository) Create(ctx context.Context, v *entity.Voucher) error {
	ex := r.db.Executor(ctx)
	query := ex.Rebind(`
		INSERT INTO vouchers (` + voucherColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, NULL)
	`)

	_, err := ex.ExecContext(ctx, query,
		v.ID, v.Number, v.TenantID, v.ClientID, v.CarrierID, v.DriverID,
		utc(v.IssuedAt), utc(v.ValidUntil),
		v.RequestedPBR, v.RequestedCHEP, v.BalancePBR, v.BalanceCHEP,
		string(v.Status), v.SecurityToken, v.QRCodePath, v.Notes, v.CreatedBy,
		utcPtr(v.ExitedAt), v.ExitedBy, utcPtr(v.ReturnedAt), v.ReturnedBy,
		utcPtr(v.CancelledAt), v.CancelledBy,
		utc(v.UpdatedAt),
	)
	if err != nil {
		r.logger.Error("Failed to create voucher", zap.String("numero_vale", v.Number), zap.Error(err))
		return fmt.Errorf("failed to create voucher: %w", mapError(err))
	}

	v.Version = 1
	return nil
}

// GetByID retrieves a live voucher by ID
func (r *VoucherRepository) GetByID(ctx context.Context, id string) (*entity.Voucher, error) {
	return r.getOne(ctx, "id", id)
}

// GetByNumber retrieves a live voucher by its number
func (r *VoucherRepository) GetByNumber(ctx context.Context, number string) (*entity.Voucher, error) {
	return r.getOne(ctx, "number", number)
}

func (r *VoucherRepository) getOne(ctx context.Context, column, value string) (*entity.Voucher, error) {
	ex := r.db.Executor(ctx)
	query := ex.Rebind(`SELECT ` + voucherColumns + ` FROM vouchers WHERE ` + column + ` = ? AND deleted_at IS NULL`)

	var v entity.Voucher
	if err := sqlx.GetContext(ctx, ex, &v, query, value); err != nil {
		return nil, mapError(err)
	}
	return &v, nil
}

// List returns a tenant's live vouchers, newest first
func (r *VoucherRepository) List(ctx context.Context, tenantID string, filter entity.VoucherFilter) ([]*entity.Voucher, error) {
	ex := r.db.Executor(ctx)

	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE tenant_id = ? AND deleted_at IS NULL`
	args := []interface{}{tenantID}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY issued_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	var vouchers []*entity.Voucher
	if err := sqlx.SelectContext(ctx, ex, &vouchers, ex.Rebind(query), args...); err != nil {
		r.logger.Error("Failed to list vouchers", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	return vouchers, nil
}

// Update writes the mutable columns when the stored version still matches
func (r *VoucherRepository) Update(ctx context.Context, v *entity.Voucher) error {
	ex := r.db.Executor(ctx)
	query := ex.Rebind(`
		UPDATE vouchers
		SET number = ?, client_id = ?, carrier_id = ?, driver_id = ?,
			requested_pbr = ?, requested_chep = ?, balance_pbr = ?, balance_chep = ?,
			status = ?, qrcode_path = ?, notes = ?,
			exited_at = ?, exited_by = ?, returned_at = ?, returned_by = ?,
			cancelled_at = ?, cancelled_by = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND deleted_at IS NULL
	`)

	res, err := ex.ExecContext(ctx, query,
		v.Number, v.ClientID, v.CarrierID, v.DriverID,
		v.RequestedPBR, v.RequestedCHEP, v.BalancePBR, v.BalanceCHEP,
		string(v.Status), v.QRCodePath, v.Notes,
		utcPtr(v.ExitedAt), v.ExitedBy, utcPtr(v.ReturnedAt), v.ReturnedBy,
		utcPtr(v.CancelledAt), v.CancelledBy,
		utc(v.UpdatedAt),
		v.ID, v.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update voucher", zap.String("id", v.ID), zap.Error(err))
		return fmt.Errorf("failed to update voucher: %w", mapError(err))
	}
	if err := r.checkVersioned(ctx, res, v.ID); err != nil {
		return err
	}

	v.Version++
	return nil
}

// SoftDelete stamps deleted_at when the stored version still matches
func (r *VoucherRepository) SoftDelete(ctx context.Context, id string, version int64, at time.Time) error {
	ex := r.db.Executor(ctx)
	query := ex.Rebind(`
		UPDATE vouchers SET deleted_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ? AND deleted_at IS NULL
	`)

	res, err := ex.ExecContext(ctx, query, utc(at), utc(at), id, version)
	if err != nil {
		return fmt.Errorf("failed to delete voucher: %w", err)
	}
	return r.checkVersioned(ctx, res, id)
}

// checkVersioned tells a lost race from a missing row after a guarded write
func (r *VoucherRepository) checkVersioned(ctx context.Context, res interface{ RowsAffected() (int64, error) }, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	ex := r.db.Executor(ctx)
	var live int
	query := ex.Rebind(`SELECT COUNT(*) FROM vouchers WHERE id = ? AND deleted_at IS NULL`)
	if err := sqlx.GetContext(ctx, ex, &live, query, id); err != nil {
		return fmt.Errorf("failed to check voucher: %w", err)
	}
	if live == 0 {
		return port.ErrNotFound
	}
	return fmt.Errorf("voucher %s: %w", id, port.ErrStaleVersion)
}

// NextNumber draws the next value of the voucher number sequence
func (r *VoucherRepository) NextNumber(ctx context.Context) (int64, error) {
	ex := r.db.Executor(ctx)
	var next int64
	err := sqlx.GetContext(ctx, ex, &next,
		`UPDATE counters SET value = value + 1 WHERE name = 'voucher_number' RETURNING value`)
	if err != nil {
		return 0, fmt.Errorf("failed to draw voucher number: %w", err)
	}
	return next, nil
}

// CountByParty counts vouchers, deleted ones included, that reference a party
func (r *VoucherRepository) CountByParty(ctx context.Context, kind entity.PartyKind, partyID string) (int, error) {
	column, ok := map[entity.PartyKind]string{
		entity.PartyClient:  "client_id",
		entity.PartyCarrier: "carrier_id",
		entity.PartyDriver:  "driver_id",
	}[kind]
	if !ok {
		return 0, fmt.Errorf("unknown party kind %q", kind)
	}

	ex := r.db.Executor(ctx)
	var n int
	query := ex.Rebind(`SELECT COUNT(*) FROM vouchers WHERE ` + column + ` = ?`)
	if err := sqlx.GetContext(ctx, ex, &n, query, partyID); err != nil {
		return 0, fmt.Errorf("failed to count vouchers: %w", err)
	}
	return n, nil
}

var _ port.VoucherRepository = (*VoucherRepository)(nil)
