package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/pkg/utils"
)

// PartyInput carries the editable fields of a client, driver or carrier
type PartyInput struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// PartyService manages the reference entities of a tenant
type PartyService interface {
	Create(ctx context.Context, p entity.Principal, kind entity.PartyKind, in PartyInput) (*entity.Party, error)
	Get(ctx context.Context, p entity.Principal, kind entity.PartyKind, id string) (*entity.Party, error)
	List(ctx context.Context, p entity.Principal, kind entity.PartyKind) ([]*entity.Party, error)
	Update(ctx context.Context, p entity.Principal, kind entity.PartyKind, id string, in PartyInput) (*entity.Party, error)
	Delete(ctx context.Context, p entity.Principal, kind entity.PartyKind, id string) error
}

type partyServiceImpl struct {
	parties  port.PartyRepository
	vouchers port.VoucherRepository
	clock    port.Clock
	logger   *zap.Logger
}

// NewPartyService creates a PartyService
func NewPartyService(parties port.PartyRepository, vouchers port.VoucherRepository, clock port.Clock, logger *zap.Logger) PartyService {
	if clock == nil {
		clock = port.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &partyServiceImpl{parties: parties, vouchers: vouchers, clock: clock, logger: logger}
}

func (s *partyServiceImpl) Create(ctx context.Context, p entity.Principal, kind entity.PartyKind, in PartyInput) (*entity.Party, error) {
	if !p.HasTenant() {
		return nil, ErrNoTenant
	}
	party, err := normalizeParty(kind, in)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	party.ID = uuid.NewString()
	party.TenantID = p.TenantID
	party.CreatedAt = now
	party.UpdatedAt = now

	if err := s.parties.Create(ctx, party); err != nil {
		return nil, translate(fmt.Errorf("create %s: %w", kind, err))
	}

	utils.LoggerFrom(ctx, s.logger).Info("Party created",
		zap.String("kind", string(kind)), zap.String("party_id", party.ID))
	return party, nil
}

func (s *partyServiceImpl) Get(ctx context.Context, p entity.Principal, kind entity.PartyKind, id string) (*entity.Party, error) {
	if !p.HasTenant() {
		return nil, ErrNoTenant
	}
	if !kind.IsValid() {
		return nil, invalid("unknown party kind %q", kind)
	}
	party, err := s.parties.GetByID(ctx, kind, id)
	if err != nil {
		return nil, translate(err)
	}
	if !p.Owns(party.TenantID) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	party.Kind = kind
	return party, nil
}

func (s *partyServiceImpl) List(ctx context.Context, p entity.Principal, kind entity.PartyKind) ([]*entity.Party, error) {
	if !p.HasTenant() {
		return nil, ErrNoTenant
	}
	if !kind.IsValid() {
		return nil, invalid("unknown party kind %q", kind)
	}
	parties, err := s.parties.List(ctx, kind, p.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	for _, party := range parties {
		party.Kind = kind
	}
	return parties, nil
}

func (s *partyServiceImpl) Update(ctx context.Context, p entity.Principal, kind entity.PartyKind, id string, in PartyInput) (*entity.Party, error) {
	existing, err := s.Get(ctx, p, kind, id)
	if err != nil {
		return nil, err
	}
	party, err := normalizeParty(kind, in)
	if err != nil {
		return nil, err
	}
	party.ID = existing.ID
	party.TenantID = existing.TenantID
	party.CreatedAt = existing.CreatedAt
	party.UpdatedAt = s.clock.Now()

	if err := s.parties.Update(ctx, party); err != nil {
		return nil, translate(fmt.Errorf("update %s: %w", kind, err))
	}
	return party, nil
}

// Delete refuses to remove a party that any voucher still points at.
func (s *partyServiceImpl) Delete(ctx context.Context, p entity.Principal, kind entity.PartyKind, id string) error {
	party, err := s.Get(ctx, p, kind, id)
	if err != nil {
		return err
	}
	refs, err := s.vouchers.CountByParty(ctx, kind, party.ID)
	if err != nil {
		return fmt.Errorf("count vouchers of %s: %w", kind, err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: %s %s is referenced by %d vouchers", ErrInUse, kind, party.ID, refs)
	}
	if err := s.parties.Delete(ctx, kind, party.ID); err != nil {
		return translate(err)
	}

	utils.LoggerFrom(ctx, s.logger).Info("Party deleted",
		zap.String("kind", string(kind)), zap.String("party_id", party.ID))
	return nil
}

func normalizeParty(kind entity.PartyKind, in PartyInput) (*entity.Party, error) {
	if !kind.IsValid() {
		return nil, invalid("unknown party kind %q", kind)
	}

	party := &entity.Party{
		Kind:     kind,
		Name:     utils.SanitizeString(in.Name),
		Document: strings.TrimSpace(in.Document),
		Phone:    strings.TrimSpace(in.Phone),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
	}
	if party.Name == "" {
		return nil, invalid("name is required")
	}

	validateDoc := utils.ValidateCNPJ
	if kind.DocumentIsCPF() {
		validateDoc = utils.ValidateCPF
	}
	if err := validateDoc(party.Document); err != nil {
		return nil, invalid("%v", err)
	}

	if party.Email == "" && kind.EmailRequired() {
		return nil, invalid("email is required for a %s", kind)
	}
	if party.Email != "" {
		if err := utils.ValidateEmail(party.Email); err != nil {
			return nil, invalid("%v", err)
		}
	}
	if party.Phone != "" {
		if err := utils.ValidatePhone(party.Phone); err != nil {
			return nil, invalid("%v", err)
		}
	}
	return party, nil
}
