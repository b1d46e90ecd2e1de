package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/dispatcher"
	"github.com/valepallet/vpallet/internal/application/port"
	appwf "github.com/valepallet/vpallet/internal/application/workflow"
	"github.com/valepallet/vpallet/internal/domain/credential"
	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/internal/domain/event"
	"github.com/valepallet/vpallet/internal/domain/ledger"
	domainwf "github.com/valepallet/vpallet/internal/domain/workflow"
	"github.com/valepallet/vpallet/pkg/utils"
)

const maxNumberLength = 50

// VoucherConfig holds issuance settings
type VoucherConfig struct {
	PublicBaseURL   string
	Location        *time.Location
	DefaultValidity time.Duration
}

// IssueInput describes a new voucher. ValidUntil accepts RFC 3339 or a
// calendar date; an empty value means DefaultValidity from now.
type IssueInput struct {
	Number     string `json:"numero_vale"`
	ClientID   string `json:"client_id"`
	CarrierID  string `json:"carrier_id"`
	DriverID   string `json:"driver_id"`
	ValidUntil string `json:"valid_until"`
	PBR        int    `json:"pbr"`
	CHEP       int    `json:"chep"`
	Notes      string `json:"notes"`
}

// UpdateInput holds the fields that may change while a voucher is EMITIDO
type UpdateInput struct {
	Number    *string `json:"numero_vale"`
	ClientID  *string `json:"client_id"`
	CarrierID *string `json:"carrier_id"`
	DriverID  *string `json:"driver_id"`
	PBR       *int    `json:"pbr"`
	CHEP      *int    `json:"chep"`
	Notes     *string `json:"notes"`
}

// RegisterInput is a manual movement
type RegisterInput struct {
	Kind  entity.MovementKind `json:"kind"`
	PBR   int                 `json:"pbr"`
	CHEP  int                 `json:"chep"`
	Notes string              `json:"notes"`
}

// IssuedVoucher is a freshly issued voucher together with its QR artifacts
type IssuedVoucher struct {
	Voucher *entity.Voucher
	Payload credential.Payload
	QRCode  []byte
}

// Verification is the public, read-only view of a voucher
type Verification struct {
	ID          string         `json:"id"`
	Number      string         `json:"numero_vale"`
	Status      domainwf.State `json:"status"`
	ValidUntil  time.Time      `json:"valid_until"`
	Expired     bool           `json:"expired"`
	BalancePBR  int            `json:"balance_pbr"`
	BalanceCHEP int            `json:"balance_chep"`
}

// VoucherService manages the voucher lifecycle on behalf of a tenant
type VoucherService interface {
	Issue(ctx context.Context, p entity.Principal, in IssueInput) (*IssuedVoucher, error)
	Get(ctx context.Context, p entity.Principal, id string) (*entity.Voucher, error)
	GetByNumber(ctx context.Context, p entity.Principal, number string) (*entity.Voucher, error)
	List(ctx context.Context, p entity.Principal, filter entity.VoucherFilter) ([]*entity.Voucher, error)
	Update(ctx context.Context, p entity.Principal, id string, in UpdateInput) (*entity.Voucher, error)
	Delete(ctx context.Context, p entity.Principal, id string) error
	Cancel(ctx context.Context, p entity.Principal, id, reason string) (*entity.Voucher, error)
	Movements(ctx context.Context, p entity.Principal, id string) ([]*entity.Movement, error)
	MovementLog(ctx context.Context, p entity.Principal, filter entity.MovementFilter) ([]*entity.Movement, error)
	RegisterMovement(ctx context.Context, p entity.Principal, id string, in RegisterInput) (*entity.Movement, error)
	QRCode(ctx context.Context, p entity.Principal, id string) ([]byte, error)
	Verify(ctx context.Context, id, token string) (*Verification, error)
}

// VoucherServiceDeps groups the collaborators of the voucher service
type VoucherServiceDeps struct {
	Vouchers     port.VoucherRepository
	MovementRepo port.MovementRepository
	Parties      port.PartyRepository
	TxManager    port.TransactionManager
	Engine       appwf.LifecycleEngine
	Tokens       port.TokenGenerator
	QR           port.QREncoder
	Storage      port.FileStorage
	Clock        port.Clock
	Dispatcher   dispatcher.Dispatcher
	Logger       *zap.Logger
}

type voucherServiceImpl struct {
	VoucherServiceDeps
	cfg VoucherConfig
}

// NewVoucherService creates a VoucherService
func NewVoucherService(deps VoucherServiceDeps, cfg VoucherConfig) VoucherService {
	if deps.Clock == nil {
		deps.Clock = port.SystemClock
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultValidity <= 0 {
		cfg.DefaultValidity = 7 * 24 * time.Hour
	}
	return &voucherServiceImpl{VoucherServiceDeps: deps, cfg: cfg}
}

// Issue allocates the voucher identity first, renders its QR artifacts, and
// then persists the voucher and its EMITIDO movement in one transaction.
func (s *voucherServiceImpl) Issue(ctx context.Context, p entity.Principal, in IssueInput) (*IssuedVoucher, error) {
	logger := utils.LoggerFrom(ctx, s.Logger)
	if !p.HasTenant() {
		return nil, ErrNoTenant
	}

	now := s.Clock.Now()
	requested := entity.Quantities{PBR: in.PBR, CHEP: in.CHEP}
	if requested.Negative() {
		return nil, invalid("quantities must not be negative")
	}
	validUntil, err := ParseValidity(in.ValidUntil, s.cfg.Location, now, s.cfg.DefaultValidity)
	if err != nil {
		return nil, err
	}
	if !validUntil.After(now) {
		return nil, invalid("valid_until must be in the future")
	}
	if err := s.checkParties(ctx, p.TenantID, in.ClientID, in.CarrierID, in.DriverID); err != nil {
		return nil, err
	}

	number, err := s.resolveNumber(ctx, in.Number)
	if err != nil {
		return nil, err
	}

	v := &entity.Voucher{
		ID:         uuid.NewString(),
		Number:     number,
		TenantID:   p.TenantID,
		ClientID:   in.ClientID,
		CarrierID:  in.CarrierID,
		DriverID:   in.DriverID,
		IssuedAt:   now,
		ValidUntil: validUntil,
		Status:     domainwf.StateIssued,
		Notes:      utils.SanitizeString(in.Notes),
		CreatedBy:  p.UserID,
		UpdatedAt:  now,
	}
	v.SetRequested(requested)
	balance, err := ledger.Apply(entity.Quantities{}, entity.MovementIssued, requested)
	if err != nil {
		return nil, translate(err)
	}
	v.SetBalance(balance)

	var issued *IssuedVoucher
	for attempt := 1; attempt <= 2; attempt++ {
		issued, err = s.issueOnce(ctx, p, v)
		if err == nil {
			break
		}
		if !errors.Is(err, port.ErrDuplicate) || attempt == 2 {
			logger.Error("Voucher issuance failed",
				zap.String("numero_vale", number), zap.Int("attempt", attempt), zap.Error(err))
			return nil, translate(err)
		}
		logger.Warn("Security token collided, retrying with a fresh one", zap.String("numero_vale", number))
	}

	logger.Info("Voucher issued",
		zap.String("voucher_id", v.ID),
		zap.String("numero_vale", v.Number),
		zap.String("tenant_id", v.TenantID),
		zap.Int("pbr", v.RequestedPBR),
		zap.Int("chep", v.RequestedCHEP),
		zap.Time("valid_until", v.ValidUntil),
	)
	s.emit(ctx, event.TypeVoucherIssued, v, p.UserID, map[string]interface{}{
		"numero_vale": v.Number,
		"pbr":         v.RequestedPBR,
		"chep":        v.RequestedCHEP,
		"valid_until": v.ValidUntil.Format(time.RFC3339),
	})
	return issued, nil
}

func (s *voucherServiceImpl) issueOnce(ctx context.Context, p entity.Principal, v *entity.Voucher) (*IssuedVoucher, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	v.SecurityToken = token

	payload, png, path, err := s.renderQR(ctx, v)
	if err != nil {
		return nil, err
	}
	v.QRCodePath = path

	err = s.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.Vouchers.Create(txCtx, v); err != nil {
			return fmt.Errorf("create voucher: %w", err)
		}
		actor := p.UserID
		mv := &entity.Movement{
			ID:        uuid.NewString(),
			VoucherID: v.ID,
			Kind:      entity.MovementIssued,
			CreatedAt: v.IssuedAt,
			PBR:       v.RequestedPBR,
			CHEP:      v.RequestedCHEP,
			Actor:     &actor,
		}
		if err := s.MovementRepo.Append(txCtx, mv); err != nil {
			return fmt.Errorf("append issue movement: %w", err)
		}
		return nil
	})
	if err != nil {
		if delErr := s.Storage.Delete(ctx, path); delErr != nil {
			utils.LoggerFrom(ctx, s.Logger).Warn("Failed to remove orphan QR image",
				zap.String("path", path), zap.Error(delErr))
		}
		v.QRCodePath = ""
		return nil, err
	}

	return &IssuedVoucher{Voucher: v, Payload: payload, QRCode: png}, nil
}

func (s *voucherServiceImpl) renderQR(ctx context.Context, v *entity.Voucher) (credential.Payload, []byte, string, error) {
	payload := credential.NewPayload(v.ID, v.SecurityToken, v.Number, s.cfg.PublicBaseURL)
	content, err := payload.JSON()
	if err != nil {
		return payload, nil, "", err
	}
	png, err := s.QR.Encode(content)
	if err != nil {
		return payload, nil, "", fmt.Errorf("encode qr: %w", err)
	}
	path := QRCodePath(v.ID)
	if err := s.Storage.Save(ctx, path, png); err != nil {
		return payload, nil, "", fmt.Errorf("save qr image: %w", err)
	}
	return payload, png, path, nil
}

// QRCodePath is the storage path of a voucher's QR image. It is keyed by the
// voucher id, which is allocated before the first persist and never changes.
func QRCodePath(id string) string {
	return "qrcodes/vale_" + id + ".png"
}

func (s *voucherServiceImpl) resolveNumber(ctx context.Context, requested string) (string, error) {
	number := utils.SanitizeString(requested)
	if number == "" {
		seq, err := s.Vouchers.NextNumber(ctx)
		if err != nil {
			return "", fmt.Errorf("allocate voucher number: %w", err)
		}
		return credential.NewNumber(seq)
	}
	if len(number) > maxNumberLength {
		return "", invalid("numero_vale longer than %d characters", maxNumberLength)
	}
	if !credential.ValidNumber(number) {
		return "", invalid("numero_vale %s has a bad check digit", number)
	}
	if err := s.numberAvailable(ctx, number, ""); err != nil {
		return "", err
	}
	return number, nil
}

func (s *voucherServiceImpl) numberAvailable(ctx context.Context, number, selfID string) error {
	existing, err := s.Vouchers.GetByNumber(ctx, number)
	switch {
	case errors.Is(err, port.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("look up voucher number: %w", err)
	case existing.ID == selfID:
		return nil
	default:
		return fmt.Errorf("%w: numero_vale %s already exists", ErrDuplicateKey, number)
	}
}

func (s *voucherServiceImpl) checkParties(ctx context.Context, tenantID, clientID, carrierID, driverID string) error {
	refs := []struct {
		kind entity.PartyKind
		id   string
	}{
		{entity.PartyClient, clientID},
		{entity.PartyCarrier, carrierID},
		{entity.PartyDriver, driverID},
	}
	for _, ref := range refs {
		if ref.id == "" {
			return invalid("%s_id is required", ref.kind)
		}
		party, err := s.Parties.GetByID(ctx, ref.kind, ref.id)
		if errors.Is(err, port.ErrNotFound) || (err == nil && party.TenantID != tenantID) {
			return invalid("unknown %s %s", ref.kind, ref.id)
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", ref.kind, err)
		}
	}
	return nil
}

// owned loads a voucher of the caller's tenant. Vouchers of other tenants are reported as missing.
func (s *voucherServiceImpl) owned(ctx context.Context, p entity.Principal, id string) (*entity.Voucher, error) {
	if !p.HasTenant() {
		return nil, ErrNoTenant
	}
	v, err := s.Vouchers.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !p.Owns(v.TenantID) {
		return nil, fmt.Errorf("%w: voucher %s", ErrNotFound, id)
	}
	return v, nil
}

func (s *voucherServiceImpl) Get(ctx context.Context, p entity.Principal, id string) (*entity.Voucher, error) {
	return s.owned(ctx, p, id)
}

// GetByNumber looks a voucher up by its numero_vale, as typed from a paper slip.
// A generated number with a wrong check digit is rejected before any lookup.
func (s *voucherServiceImpl) GetByNumber(ctx context.Context, p entity.Principal, number string) (*entity.Voucher, error) {
	if !p.HasTenant() {
		return nil, ErrNoTenant
	}
	number = utils.SanitizeString(number)
	if number == "" {
		return nil, invalid("numero_vale is required")
	}
	if !credential.ValidNumber(number) {
		return nil, invalid("numero_vale %s has a bad check digit", number)
	}
	v, err := s.Vouchers.GetByNumber(ctx, number)
	if err != nil {
		return nil, translate(err)
	}
	if !p.Owns(v.TenantID) {
		return nil, fmt.Errorf("%w: voucher %s", ErrNotFound, number)
	}
	return v, nil
}

func (s *voucherServiceImpl) List(ctx context.Context, p entity.Principal, filter entity.VoucherFilter) ([]*entity.Voucher, error) {
	if !p.HasTenant() {
		return nil, ErrNoTenant
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, invalid("unknown status %q", filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	vouchers, err := s.Vouchers.List(ctx, p.TenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	return vouchers, nil
}

func (s *voucherServiceImpl) Update(ctx context.Context, p entity.Principal, id string, in UpdateInput) (*entity.Voucher, error) {
	logger := utils.LoggerFrom(ctx, s.Logger)
	v, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !v.Editable() {
		return nil, fmt.Errorf("%w: voucher %s is %s", ErrInvalidStateTransition, v.Number, v.Status)
	}

	now := s.Clock.Now()
	oldNumber, oldPath := v.Number, v.QRCodePath
	previous := v.Requested()

	if in.Number != nil {
		number := utils.SanitizeString(*in.Number)
		if number == "" || len(number) > maxNumberLength {
			return nil, invalid("numero_vale must have 1 to %d characters", maxNumberLength)
		}
		if !credential.ValidNumber(number) {
			return nil, invalid("numero_vale %s has a bad check digit", number)
		}
		if number != v.Number {
			if err := s.numberAvailable(ctx, number, v.ID); err != nil {
				return nil, err
			}
			v.Number = number
		}
	}
	if in.ClientID != nil {
		v.ClientID = *in.ClientID
	}
	if in.CarrierID != nil {
		v.CarrierID = *in.CarrierID
	}
	if in.DriverID != nil {
		v.DriverID = *in.DriverID
	}
	if in.ClientID != nil || in.CarrierID != nil || in.DriverID != nil {
		if err := s.checkParties(ctx, p.TenantID, v.ClientID, v.CarrierID, v.DriverID); err != nil {
			return nil, err
		}
	}
	if in.Notes != nil {
		v.Notes = utils.SanitizeString(*in.Notes)
	}

	requested := previous
	if in.PBR != nil {
		requested.PBR = *in.PBR
	}
	if in.CHEP != nil {
		requested.CHEP = *in.CHEP
	}
	quantitiesChanged := requested != previous
	if quantitiesChanged {
		balance, err := ledger.Apply(v.Balance(), entity.MovementIssued, requested)
		if err != nil {
			return nil, translate(err)
		}
		v.SetRequested(requested)
		v.SetBalance(balance)
	}

	numberChanged := v.Number != oldNumber
	if numberChanged {
		_, _, path, err := s.renderQR(ctx, v)
		if err != nil {
			return nil, err
		}
		v.QRCodePath = path
	}
	v.UpdatedAt = now

	err = s.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.Vouchers.Update(txCtx, v); err != nil {
			return fmt.Errorf("update voucher: %w", err)
		}
		if !quantitiesChanged {
			return nil
		}
		actor := p.UserID
		return s.MovementRepo.Append(txCtx, &entity.Movement{
			ID:        uuid.NewString(),
			VoucherID: v.ID,
			Kind:      entity.MovementIssued,
			CreatedAt: now,
			PBR:       requested.PBR,
			CHEP:      requested.CHEP,
			Notes: fmt.Sprintf("quantities changed from PBR %d / CHEP %d to PBR %d / CHEP %d",
				previous.PBR, previous.CHEP, requested.PBR, requested.CHEP),
			Actor: &actor,
		})
	})
	if err != nil {
		if numberChanged {
			_ = s.Storage.Delete(ctx, v.QRCodePath)
		}
		return nil, translate(err)
	}
	if numberChanged && oldPath != "" && oldPath != v.QRCodePath {
		if err := s.Storage.Delete(ctx, oldPath); err != nil {
			logger.Warn("Failed to remove stale QR image", zap.String("path", oldPath), zap.Error(err))
		}
	}

	logger.Info("Voucher updated", zap.String("voucher_id", v.ID), zap.Bool("quantities_changed", quantitiesChanged))
	s.emit(ctx, event.TypeVoucherUpdated, v, p.UserID, map[string]interface{}{
		"numero_vale": v.Number,
		"pbr":         v.RequestedPBR,
		"chep":        v.RequestedCHEP,
	})
	return v, nil
}

// Delete soft-deletes a voucher. Vouchers whose pallets are out (SAIDA) cannot be deleted.
func (s *voucherServiceImpl) Delete(ctx context.Context, p entity.Principal, id string) error {
	v, err := s.owned(ctx, p, id)
	if err != nil {
		return err
	}
	if v.Status == domainwf.StateExited {
		return fmt.Errorf("%w: voucher %s has pallets out", ErrInvalidStateTransition, v.Number)
	}

	now := s.Clock.Now()
	if err := s.Vouchers.SoftDelete(ctx, v.ID, v.Version, now); err != nil {
		return translate(err)
	}

	utils.LoggerFrom(ctx, s.Logger).Info("Voucher deleted", zap.String("voucher_id", v.ID))
	s.emit(ctx, event.TypeVoucherDeleted, v, p.UserID, map[string]interface{}{"numero_vale": v.Number})
	return nil
}

func (s *voucherServiceImpl) Cancel(ctx context.Context, p entity.Principal, id, reason string) (*entity.Voucher, error) {
	v, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}

	res, err := s.Engine.Fire(ctx, appwf.TransitionRequest{
		VoucherID:       v.ID,
		ExpectedVersion: v.Version,
		Trigger:         domainwf.TriggerCancel,
		Actor:           p.UserID,
		At:              s.Clock.Now(),
		Notes:           utils.SanitizeString(reason),
	})
	if err != nil {
		return nil, translate(err)
	}

	utils.LoggerFrom(ctx, s.Logger).Info("Voucher cancelled",
		zap.String("voucher_id", v.ID), zap.String("from", res.Transition.From.String()))
	return res.Voucher, nil
}

func (s *voucherServiceImpl) Movements(ctx context.Context, p entity.Principal, id string) ([]*entity.Movement, error) {
	v, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	movements, err := s.MovementRepo.ListByVoucher(ctx, v.ID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

// MovementLog lists the tenant's movements across all live vouchers, newest first
func (s *voucherServiceImpl) MovementLog(ctx context.Context, p entity.Principal, filter entity.MovementFilter) ([]*entity.Movement, error) {
	if !p.HasTenant() {
		return nil, ErrNoTenant
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return nil, invalid("unknown movement kind %q", filter.Kind)
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	movements, err := s.MovementRepo.ListByTenant(ctx, p.TenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("list movement log: %w", err)
	}
	return movements, nil
}

// RegisterMovement records a partial return (RETORNO) or an audit note (SCAN).
func (s *voucherServiceImpl) RegisterMovement(ctx context.Context, p entity.Principal, id string, in RegisterInput) (*entity.Movement, error) {
	v, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}

	qty := entity.Quantities{PBR: in.PBR, CHEP: in.CHEP}
	now := s.Clock.Now()
	switch in.Kind {
	case entity.MovementReturn:
		if qty.IsZero() {
			return nil, invalid("a return must move at least one pallet")
		}
		if v.IsExpired(now) {
			return nil, fmt.Errorf("%w: voucher %s expired at %s", ErrExpired, v.Number, v.ValidUntil.Format(time.RFC3339))
		}
	case entity.MovementScan:
		if !qty.IsZero() {
			return nil, invalid("a SCAN note carries no quantities")
		}
	default:
		return nil, invalid("movement kind %q cannot be registered manually", in.Kind)
	}

	res, err := s.Engine.Record(ctx, appwf.RecordRequest{
		VoucherID:       v.ID,
		ExpectedVersion: v.Version,
		Kind:            in.Kind,
		Quantities:      qty,
		Actor:           p.UserID,
		At:              now,
		Notes:           utils.SanitizeString(in.Notes),
	})
	if err != nil {
		return nil, translate(err)
	}
	return res.Movement, nil
}

// QRCode returns the stored PNG, regenerating it when the file is gone.
func (s *voucherServiceImpl) QRCode(ctx context.Context, p entity.Principal, id string) ([]byte, error) {
	v, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if v.QRCodePath != "" && s.Storage.Exists(ctx, v.QRCodePath) {
		png, err := s.Storage.Read(ctx, v.QRCodePath)
		if err == nil {
			return png, nil
		}
		utils.LoggerFrom(ctx, s.Logger).Warn("Stored QR image unreadable, regenerating",
			zap.String("path", v.QRCodePath), zap.Error(err))
	}

	_, png, path, err := s.renderQR(ctx, v)
	if err != nil {
		return nil, err
	}
	if path != v.QRCodePath {
		v.QRCodePath = path
		if err := s.Vouchers.Update(ctx, v); err != nil {
			utils.LoggerFrom(ctx, s.Logger).Warn("Failed to record regenerated QR path", zap.Error(err))
		}
	}
	return png, nil
}

// Verify checks a token against a voucher without changing anything.
func (s *voucherServiceImpl) Verify(ctx context.Context, id, token string) (*Verification, error) {
	v, err := s.Vouchers.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !credential.Match(v.SecurityToken, token) {
		return nil, ErrIntegrityViolation
	}
	return &Verification{
		ID:          v.ID,
		Number:      v.Number,
		Status:      v.Status,
		ValidUntil:  v.ValidUntil,
		Expired:     v.IsExpired(s.Clock.Now()),
		BalancePBR:  v.BalancePBR,
		BalanceCHEP: v.BalanceCHEP,
	}, nil
}

func (s *voucherServiceImpl) emit(ctx context.Context, t event.Type, v *entity.Voucher, actor string, payload map[string]interface{}) {
	if s.Dispatcher == nil {
		return
	}
	s.Dispatcher.DispatchAsync(ctx, event.NewEvent(t, v.ID, v.TenantID, s.Clock.Now(), payload).WithActor(actor))
}

// ParseValidity reads a deadline. A bare date means the end of that day in loc.
func ParseValidity(raw string, loc *time.Location, now time.Time, fallback time.Duration) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.Add(fallback), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, invalid("valid_until must be a date (2006-01-02) or an RFC 3339 timestamp")
	}
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}
