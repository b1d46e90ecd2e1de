package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/valepallet/vpallet/internal/application/dispatcher"
	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/entity"
	"github.com/valepallet/vpallet/internal/domain/event"
	"github.com/valepallet/vpallet/internal/domain/ledger"
	domainwf "github.com/valepallet/vpallet/internal/domain/workflow"
)

type engineImpl struct {
	vouchers   port.VoucherRepository
	movements  port.MovementRepository
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
}

// EngineOption configures the lifecycle engine
type EngineOption func(*engineImpl)

// WithDispatcher emits an event after every committed change
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// NewEngine creates a lifecycle engine
func NewEngine(
	vouchers port.VoucherRepository,
	movements port.MovementRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) LifecycleEngine {
	e := &engineImpl{
		vouchers:  vouchers,
		movements: movements,
		txManager: txManager,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engineImpl) Machine(status domainwf.State) (domainwf.StateMachine, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domainwf.ErrInvalidState, status)
	}
	return BuildVoucherStateMachine(status), nil
}

func (e *engineImpl) Fire(ctx context.Context, req TransitionRequest) (*Result, error) {
	var result *Result

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		v, err := e.load(txCtx, req.VoucherID, req.ExpectedVersion)
		if err != nil {
			return err
		}

		machine, err := e.Machine(v.Status)
		if err != nil {
			return err
		}
		tr, err := machine.Fire(txCtx, req.Trigger)
		if err != nil {
			return err
		}

		mv, err := applyTransition(v, tr, req)
		if err != nil {
			return err
		}

		if err := e.persist(txCtx, v, mv); err != nil {
			return err
		}
		result = &Result{Voucher: v, Movement: mv, Transition: tr}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, transitionEvent(req.Trigger), result, req.Actor)
	return result, nil
}

func (e *engineImpl) Record(ctx context.Context, req RecordRequest) (*Result, error) {
	var result *Result

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		v, err := e.load(txCtx, req.VoucherID, req.ExpectedVersion)
		if err != nil {
			return err
		}

		switch req.Kind {
		case entity.MovementReturn:
			if v.Status != domainwf.StateExited {
				return fmt.Errorf("%w: partial return from %s", domainwf.ErrInvalidTransition, v.Status)
			}
		case entity.MovementScan:
		default:
			return fmt.Errorf("%w: %s cannot be registered manually", ledger.ErrUnknownKind, req.Kind)
		}

		balance, err := ledger.Apply(v.Balance(), req.Kind, req.Quantities)
		if err != nil {
			return err
		}
		v.SetBalance(balance)
		v.UpdatedAt = req.At

		mv := newMovement(v.ID, req.Kind, req.Quantities, req.Actor, req.At, req.Notes)
		if err := e.persist(txCtx, v, mv); err != nil {
			return err
		}
		result = &Result{
			Voucher:    v,
			Movement:   mv,
			Transition: domainwf.Transition{From: v.Status, To: v.Status},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, event.TypeMovementRegistered, result, req.Actor)
	return result, nil
}

func (e *engineImpl) load(ctx context.Context, id string, expectedVersion int64) (*entity.Voucher, error) {
	v, err := e.vouchers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load voucher %s: %w", id, err)
	}
	if v.Version != expectedVersion {
		return nil, fmt.Errorf("voucher %s changed since it was read: %w", id, port.ErrStaleVersion)
	}
	return v, nil
}

func (e *engineImpl) persist(ctx context.Context, v *entity.Voucher, mv *entity.Movement) error {
	if err := e.vouchers.Update(ctx, v); err != nil {
		return fmt.Errorf("update voucher %s: %w", v.ID, err)
	}
	if err := e.movements.Append(ctx, mv); err != nil {
		return fmt.Errorf("append movement to %s: %w", v.ID, err)
	}
	return nil
}

func (e *engineImpl) emit(ctx context.Context, t event.Type, r *Result, actor string) {
	if e.dispatcher == nil {
		return
	}
	evt := event.NewEvent(t, r.Voucher.ID, r.Voucher.TenantID, r.Movement.CreatedAt, map[string]interface{}{
		"numero_vale":   r.Voucher.Number,
		"status":        r.Voucher.Status.String(),
		"previous":      r.Transition.From.String(),
		"movement_kind": string(r.Movement.Kind),
		"movement_seq":  r.Movement.Seq,
		"pbr":           r.Movement.PBR,
		"chep":          r.Movement.CHEP,
		"balance_pbr":   r.Voucher.BalancePBR,
		"balance_chep":  r.Voucher.BalanceCHEP,
	}).WithActor(actor)
	e.dispatcher.DispatchAsync(ctx, evt)
}

// applyTransition stamps the voucher for the fired transition and builds its movement
func applyTransition(v *entity.Voucher, tr domainwf.Transition, req TransitionRequest) (*entity.Movement, error) {
	var (
		kind entity.MovementKind
		qty  entity.Quantities
	)
	actor := req.Actor
	at := req.At

	switch tr.Trigger {
	case domainwf.TriggerScanExit:
		kind, qty = entity.MovementExit, v.Requested()
		v.ExitedAt, v.ExitedBy = &at, &actor
	case domainwf.TriggerScanReturn:
		kind, qty = entity.MovementReturn, v.Balance()
		v.ReturnedAt, v.ReturnedBy = &at, &actor
	case domainwf.TriggerCancel:
		kind = entity.MovementCancelled
		v.CancelledAt, v.CancelledBy = &at, &actor
	default:
		return nil, fmt.Errorf("%w: no effect defined for %s", domainwf.ErrInvalidTransition, tr.Trigger)
	}

	balance, err := ledger.Apply(v.Balance(), kind, qty)
	if err != nil {
		return nil, err
	}
	v.SetBalance(balance)
	v.Status = tr.To
	v.UpdatedAt = at

	return newMovement(v.ID, kind, qty, actor, at, req.Notes), nil
}

func newMovement(voucherID string, kind entity.MovementKind, q entity.Quantities, actor string, at time.Time, notes string) *entity.Movement {
	mv := &entity.Movement{
		ID:        uuid.NewString(),
		VoucherID: voucherID,
		Kind:      kind,
		CreatedAt: at,
		PBR:       q.PBR,
		CHEP:      q.CHEP,
		Notes:     notes,
	}
	if actor != "" {
		mv.Actor = &actor
	}
	return mv
}

func transitionEvent(t domainwf.Trigger) event.Type {
	switch t {
	case domainwf.TriggerScanExit:
		return event.TypeVoucherExited
	case domainwf.TriggerScanReturn:
		return event.TypeVoucherReturned
	default:
		return event.TypeVoucherCancelled
	}
}
