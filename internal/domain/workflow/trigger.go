package workflow

// Trigger is an event that can move a voucher between states
type Trigger string

const (
	TriggerScanExit   Trigger = "SCAN_EXIT"
	TriggerScanReturn Trigger = "SCAN_RETURN"
	TriggerCancel     Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// ScanTrigger resolves which trigger a QR scan fires from the given state.
// The second value is false when a scan cannot move the voucher.
func ScanTrigger(from State) (Trigger, bool) {
	switch from {
	case StateIssued:
		return TriggerScanExit, true
	case StateExited:
		return TriggerScanReturn, true
	default:
		return "", false
	}
}
