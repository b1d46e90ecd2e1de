// Package porttest provides in-memory implementations of the persistence
// ports for tests. Writes made inside a failed transaction are rolled back.
package porttest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/entity"
)

// Store holds every table in memory
type Store struct {
	txMu      sync.Mutex
	mu        sync.Mutex
	vouchers  map[string]entity.Voucher
	movements map[string][]entity.Movement
	parties   map[entity.PartyKind]map[string]entity.Party
	users     map[string]entity.User
	tenants   map[string]entity.Tenant
	numberSeq int64

	// FailCommit makes the next transaction fail after fn succeeded
	FailCommit error
	// FailVoucherCreate is returned by the next n voucher creates
	FailVoucherCreate []error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		vouchers:  make(map[string]entity.Voucher),
		movements: make(map[string][]entity.Movement),
		parties: map[entity.PartyKind]map[string]entity.Party{
			entity.PartyClient:  {},
			entity.PartyDriver:  {},
			entity.PartyCarrier: {},
		},
		users:   make(map[string]entity.User),
		tenants: make(map[string]entity.Tenant),
	}
}

type snapshot struct {
	vouchers  map[string]entity.Voucher
	movements map[string][]entity.Movement
	parties   map[entity.PartyKind]map[string]entity.Party
	numberSeq int64
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		vouchers:  make(map[string]entity.Voucher, len(s.vouchers)),
		movements: make(map[string][]entity.Movement, len(s.movements)),
		parties:   make(map[entity.PartyKind]map[string]entity.Party, len(s.parties)),
		numberSeq: s.numberSeq,
	}
	for k, v := range s.vouchers {
		snap.vouchers[k] = v
	}
	for k, v := range s.movements {
		snap.movements[k] = append([]entity.Movement(nil), v...)
	}
	for kind, m := range s.parties {
		cp := make(map[string]entity.Party, len(m))
		for k, v := range m {
			cp[k] = v
		}
		snap.parties[kind] = cp
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vouchers = snap.vouchers
	s.movements = snap.movements
	s.parties = snap.parties
	s.numberSeq = snap.numberSeq
}

// TxManager returns a transaction manager over the store
func (s *Store) TxManager() port.TransactionManager { return txManager{s} }

// Vouchers returns the voucher repository
func (s *Store) Vouchers() port.VoucherRepository { return voucherRepo{s} }

// Movements returns the movement repository
func (s *Store) Movements() port.MovementRepository { return movementRepo{s} }

// Parties returns the party repository
func (s *Store) Parties() port.PartyRepository { return partyRepo{s} }

// Users returns the user repository
func (s *Store) Users() port.UserRepository { return userRepo{s} }

// Tenants returns the tenant repository
func (s *Store) Tenants() port.TenantRepository { return tenantRepo{s} }

// MovementCount returns how many movements a voucher has
func (s *Store) MovementCount(voucherID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements[voucherID])
}

// PutVoucher stores a voucher as-is
func (s *Store) PutVoucher(v entity.Voucher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vouchers[v.ID] = v
}

// PutParty stores a party as-is
func (s *Store) PutParty(p entity.Party) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties[p.Kind][p.ID] = p
}

// Voucher returns a copy of the stored row, ignoring soft deletes
func (s *Store) Voucher(id string) (entity.Voucher, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vouchers[id]
	return v, ok
}

type txManager struct{ s *Store }

// WithTransaction serialises transactions, like a database write lock.
func (t txManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	snap := t.s.snapshot()
	if err := fn(ctx); err != nil {
		t.s.restore(snap)
		return err
	}
	if err := t.s.FailCommit; err != nil {
		t.s.FailCommit = nil
		t.s.restore(snap)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type voucherRepo struct{ s *Store }

func (r voucherRepo) Create(ctx context.Context, v *entity.Voucher) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if len(r.s.FailVoucherCreate) > 0 {
		err := r.s.FailVoucherCreate[0]
		r.s.FailVoucherCreate = r.s.FailVoucherCreate[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range r.s.vouchers {
		if existing.Number == v.Number || existing.SecurityToken == v.SecurityToken {
			return fmt.Errorf("insert voucher: %w", port.ErrDuplicate)
		}
	}
	if _, ok := r.s.vouchers[v.ID]; ok {
		return fmt.Errorf("insert voucher: %w", port.ErrDuplicate)
	}
	v.Version = 1
	r.s.vouchers[v.ID] = *v
	return nil
}

func (r voucherRepo) GetByID(ctx context.Context, id string) (*entity.Voucher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vouchers[id]
	if !ok || v.DeletedAt != nil {
		return nil, port.ErrNotFound
	}
	return &v, nil
}

func (r voucherRepo) GetByNumber(ctx context.Context, number string) (*entity.Voucher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.vouchers {
		if v.Number == number && v.DeletedAt == nil {
			found := v
			return &found, nil
		}
	}
	return nil, port.ErrNotFound
}

func (r voucherRepo) List(ctx context.Context, tenantID string, filter entity.VoucherFilter) ([]*entity.Voucher, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Voucher
	for _, v := range r.s.vouchers {
		if v.TenantID != tenantID || v.DeletedAt != nil {
			continue
		}
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		found := v
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].IssuedAt.After(out[j].IssuedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r voucherRepo) Update(ctx context.Context, v *entity.Voucher) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.vouchers[v.ID]
	if !ok || stored.DeletedAt != nil {
		return port.ErrNotFound
	}
	if stored.Version != v.Version {
		return fmt.Errorf("update voucher %s: %w", v.ID, port.ErrStaleVersion)
	}
	for id, other := range r.s.vouchers {
		if id != v.ID && other.Number == v.Number {
			return fmt.Errorf("update voucher: %w", port.ErrDuplicate)
		}
	}
	v.Version++
	r.s.vouchers[v.ID] = *v
	return nil
}

func (r voucherRepo) SoftDelete(ctx context.Context, id string, version int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.vouchers[id]
	if !ok || stored.DeletedAt != nil {
		return port.ErrNotFound
	}
	if stored.Version != version {
		return port.ErrStaleVersion
	}
	stored.DeletedAt = &at
	stored.Version++
	r.s.vouchers[id] = stored
	return nil
}

func (r voucherRepo) NextNumber(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.numberSeq++
	return r.s.numberSeq, nil
}

func (r voucherRepo) CountByParty(ctx context.Context, kind entity.PartyKind, partyID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, v := range r.s.vouchers {
		switch {
		case kind == entity.PartyClient && v.ClientID == partyID,
			kind == entity.PartyDriver && v.DriverID == partyID,
			kind == entity.PartyCarrier && v.CarrierID == partyID:
			n++
		}
	}
	return n, nil
}

type movementRepo struct{ s *Store }

func (r movementRepo) Append(ctx context.Context, m *entity.Movement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.Seq = len(r.s.movements[m.VoucherID]) + 1
	r.s.movements[m.VoucherID] = append(r.s.movements[m.VoucherID], *m)
	return nil
}

func (r movementRepo) ListByVoucher(ctx context.Context, voucherID string) ([]*entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.s.movements[voucherID]
	out := make([]*entity.Movement, len(list))
	for i := range list {
		m := list[i]
		out[i] = &m
	}
	return out, nil
}

func (r movementRepo) ListByTenant(ctx context.Context, tenantID string, filter entity.MovementFilter) ([]*entity.Movement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Movement
	for voucherID, list := range r.s.movements {
		v, ok := r.s.vouchers[voucherID]
		if !ok || v.TenantID != tenantID || v.DeletedAt != nil {
			continue
		}
		for i := range list {
			if filter.Kind != "" && list[i].Kind != filter.Kind {
				continue
			}
			m := list[i]
			m.VoucherNumber = v.Number
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.After(b.CreatedAt)
		case a.Seq != b.Seq:
			return a.Seq > b.Seq
		default:
			return a.ID > b.ID
		}
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type partyRepo struct{ s *Store }

func (r partyRepo) Create(ctx context.Context, p *entity.Party) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.parties[p.Kind] {
		if other.TenantID == p.TenantID && other.Document == p.Document {
			return port.ErrDuplicate
		}
	}
	r.s.parties[p.Kind][p.ID] = *p
	return nil
}

func (r partyRepo) GetByID(ctx context.Context, kind entity.PartyKind, id string) (*entity.Party, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.parties[kind][id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &p, nil
}

func (r partyRepo) List(ctx context.Context, kind entity.PartyKind, tenantID string) ([]*entity.Party, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Party
	for _, p := range r.s.parties[kind] {
		if p.TenantID == tenantID {
			found := p
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (r partyRepo) Update(ctx context.Context, p *entity.Party) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.parties[p.Kind][p.ID]; !ok {
		return port.ErrNotFound
	}
	for id, other := range r.s.parties[p.Kind] {
		if id != p.ID && other.TenantID == p.TenantID && other.Document == p.Document {
			return port.ErrDuplicate
		}
	}
	r.s.parties[p.Kind][p.ID] = *p
	return nil
}

func (r partyRepo) Delete(ctx context.Context, kind entity.PartyKind, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.parties[kind][id]; !ok {
		return port.ErrNotFound
	}
	delete(r.s.parties[kind], id)
	return nil
}

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.Username == u.Username {
			return port.ErrDuplicate
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, port.ErrNotFound
}

type tenantRepo struct{ s *Store }

func (r tenantRepo) Create(ctx context.Context, t *entity.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.tenants {
		if other.Name == t.Name {
			return port.ErrDuplicate
		}
	}
	r.s.tenants[t.ID] = *t
	return nil
}

func (r tenantRepo) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &t, nil
}

func (r tenantRepo) GetByName(ctx context.Context, name string) (*entity.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tenants {
		if t.Name == name {
			found := t
			return &found, nil
		}
	}
	return nil, port.ErrNotFound
}
