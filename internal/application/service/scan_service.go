package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/valepallet/vpallet/internal/application/port"
	appwf "github.com/valepallet/vpallet/internal/application/workflow"
	"github.com/valepallet/vpallet/internal/domain/credential"
	"github.com/valepallet/vpallet/internal/domain/entity"
	domainwf "github.com/valepallet/vpallet/internal/domain/workflow"
	"github.com/valepallet/vpallet/pkg/utils"
)

// ScanOutcome tells the caller what a scan did
type ScanOutcome string

const (
	OutcomeTransitioned  ScanOutcome = "transitioned"
	OutcomeCycleComplete ScanOutcome = "cycle_complete"
)

// ScanResult is the result of a successful scan
type ScanResult struct {
	Outcome    ScanOutcome
	Voucher    *entity.Voucher
	Movement   *entity.Movement
	Transition domainwf.Transition
}

// ScanService advances vouchers from the credential printed on them
type ScanService interface {
	// Scan accepts QR content in either payload form
	Scan(ctx context.Context, p entity.Principal, raw string) (*ScanResult, error)

	// ScanToken scans a voucher by id and security token
	ScanToken(ctx context.Context, p entity.Principal, id, token string) (*ScanResult, error)
}

type scanServiceImpl struct {
	vouchers port.VoucherRepository
	engine   appwf.LifecycleEngine
	clock    port.Clock
	logger   *zap.Logger
}

// NewScanService creates a ScanService
func NewScanService(vouchers port.VoucherRepository, engine appwf.LifecycleEngine, clock port.Clock, logger *zap.Logger) ScanService {
	if clock == nil {
		clock = port.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &scanServiceImpl{vouchers: vouchers, engine: engine, clock: clock, logger: logger}
}

func (s *scanServiceImpl) Scan(ctx context.Context, p entity.Principal, raw string) (*ScanResult, error) {
	payload, err := credential.Parse(raw)
	if err != nil {
		return nil, translate(err)
	}
	return s.ScanToken(ctx, p, payload.ID, payload.Hash)
}

// ScanToken checks the token before anything else so that a forged or stale
// credential never reveals or changes state. Any authenticated operator may
// scan; carriers and warehouses belong to other tenants.
func (s *scanServiceImpl) ScanToken(ctx context.Context, p entity.Principal, id, token string) (*ScanResult, error) {
	logger := utils.LoggerFrom(ctx, s.logger).With(zap.String("voucher_id", id), zap.String("user_id", p.UserID))
	if p.UserID == "" {
		return nil, ErrInvalidCredentials
	}

	v, err := s.vouchers.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !credential.Match(v.SecurityToken, token) {
		logger.Warn("Scan rejected: security token mismatch")
		return nil, fmt.Errorf("%w: voucher %s", ErrIntegrityViolation, id)
	}

	switch v.Status {
	case domainwf.StateReturned:
		logger.Info("Scan of a completed voucher", zap.String("numero_vale", v.Number))
		return &ScanResult{
			Outcome:    OutcomeCycleComplete,
			Voucher:    v,
			Transition: domainwf.Transition{From: v.Status, To: v.Status},
		}, nil
	case domainwf.StateCancelled:
		return nil, fmt.Errorf("%w: voucher %s is cancelled", ErrInvalidStateTransition, v.Number)
	}

	now := s.clock.Now()
	if v.IsExpired(now) {
		logger.Info("Scan rejected: voucher expired", zap.Time("valid_until", v.ValidUntil))
		return nil, fmt.Errorf("%w: voucher %s expired at %s", ErrExpired, v.Number, v.ValidUntil.Format(time.RFC3339))
	}

	trigger, ok := domainwf.ScanTrigger(v.Status)
	if !ok {
		return nil, fmt.Errorf("%w: no scan transition from %s", ErrInvalidStateTransition, v.Status)
	}

	res, err := s.engine.Fire(ctx, appwf.TransitionRequest{
		VoucherID:       v.ID,
		ExpectedVersion: v.Version,
		Trigger:         trigger,
		Actor:           p.UserID,
		At:              now,
	})
	if err != nil {
		return nil, translate(err)
	}

	logger.Info("Voucher scanned",
		zap.String("numero_vale", res.Voucher.Number),
		zap.String("from", res.Transition.From.String()),
		zap.String("to", res.Transition.To.String()),
	)
	return &ScanResult{
		Outcome:    OutcomeTransitioned,
		Voucher:    res.Voucher,
		Movement:   res.Movement,
		Transition: res.Transition,
	}, nil
}
