package port

import (
	"context"
	"errors"
	"time"

	"github.com/valepallet/vpallet/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a record does not exist or was soft-deleted
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate key")

	// ErrStaleVersion is returned when a versioned update lost a race
	ErrStaleVersion = errors.New("stale version")

	// ErrReferenced is returned when a delete would orphan dependent rows
	ErrReferenced = errors.New("record is referenced")
)

// TransactionManager runs a function inside a database transaction.
// Repositories called with the context passed to fn join the transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// VoucherRepository persists vouchers
type VoucherRepository interface {
	Create(ctx context.Context, v *entity.Voucher) error
	GetByID(ctx context.Context, id string) (*entity.Voucher, error)
	GetByNumber(ctx context.Context, number string) (*entity.Voucher, error)
	List(ctx context.Context, tenantID string, filter entity.VoucherFilter) ([]*entity.Voucher, error)

	// Update writes every mutable column when the stored version equals v.Version,
	// then bumps v.Version. It returns ErrStaleVersion otherwise.
	Update(ctx context.Context, v *entity.Voucher) error

	SoftDelete(ctx context.Context, id string, version int64, at time.Time) error
	NextNumber(ctx context.Context) (int64, error)
	CountByParty(ctx context.Context, kind entity.PartyKind, partyID string) (int, error)
}

// MovementRepository persists the append-only movement log
type MovementRepository interface {
	// Append assigns the next seq of the voucher and inserts the movement
	Append(ctx context.Context, m *entity.Movement) error
	ListByVoucher(ctx context.Context, voucherID string) ([]*entity.Movement, error)
	// ListByTenant returns movements of the tenant's live vouchers, newest first
	ListByTenant(ctx context.Context, tenantID string, filter entity.MovementFilter) ([]*entity.Movement, error)
}

// PartyRepository persists clients, drivers and carriers
type PartyRepository interface {
	Create(ctx context.Context, p *entity.Party) error
	GetByID(ctx context.Context, kind entity.PartyKind, id string) (*entity.Party, error)
	List(ctx context.Context, kind entity.PartyKind, tenantID string) ([]*entity.Party, error)
	Update(ctx context.Context, p *entity.Party) error
	Delete(ctx context.Context, kind entity.PartyKind, id string) error
}

// UserRepository persists operator accounts
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

// TenantRepository persists tenants
type TenantRepository interface {
	Create(ctx context.Context, t *entity.Tenant) error
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	GetByName(ctx context.Context, name string) (*entity.Tenant, error)
}
