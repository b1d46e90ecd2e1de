package workflow

import (
	domainwf "github.com/valepallet/vpallet/internal/domain/workflow"
)

// BuildVoucherStateMachine returns the voucher lifecycle positioned at the given state
func BuildVoucherStateMachine(current domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateIssued).
		Permit(domainwf.TriggerScanExit, domainwf.StateExited).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	builder.Configure(domainwf.StateExited).
		Permit(domainwf.TriggerScanReturn, domainwf.StateReturned).
		Permit(domainwf.TriggerCancel, domainwf.StateCancelled)

	// RETORNO and CANCELADO are terminal

	return builder.Build(current)
}
