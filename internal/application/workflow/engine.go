package workflow

import (
	"context"
	"time"

	"github.com/valepallet/vpallet/internal/domain/entity"
	domainwf "github.com/valepallet/vpallet/internal/domain/workflow"
)

// LifecycleEngine applies lifecycle transitions and ledger movements to vouchers.
// Every call updates the voucher row and appends one movement in a single
// transaction, guarded by the voucher version the caller last read.
type LifecycleEngine interface {
	// Fire moves a voucher along the lifecycle
	Fire(ctx context.Context, req TransitionRequest) (*Result, error)

	// Record appends a movement that does not change the lifecycle state
	Record(ctx context.Context, req RecordRequest) (*Result, error)

	// Machine returns a state machine positioned at a stored status
	Machine(status domainwf.State) (domainwf.StateMachine, error)
}

// TransitionRequest asks the engine to fire a trigger
type TransitionRequest struct {
	VoucherID       string
	ExpectedVersion int64
	Trigger         domainwf.Trigger
	Actor           string
	At              time.Time
	Notes           string
}

// RecordRequest asks the engine to append a manual movement
type RecordRequest struct {
	VoucherID       string
	ExpectedVersion int64
	Kind            entity.MovementKind
	Quantities      entity.Quantities
	Actor           string
	At              time.Time
	Notes           string
}

// Result is the committed outcome of an engine call
type Result struct {
	Voucher    *entity.Voucher
	Movement   *entity.Movement
	Transition domainwf.Transition
}
