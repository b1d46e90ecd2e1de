package event

// Type identifies the type of domain event
type Type string

const (
	TypeVoucherIssued      Type = "voucher.issued"
	TypeVoucherUpdated     Type = "voucher.updated"
	TypeVoucherExited      Type = "voucher.exited"
	TypeVoucherReturned    Type = "voucher.returned"
	TypeVoucherCancelled   Type = "voucher.cancelled"
	TypeVoucherDeleted     Type = "voucher.deleted"
	TypeMovementRegistered Type = "voucher.movement_registered"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeVoucherIssued,
		TypeVoucherUpdated,
		TypeVoucherExited,
		TypeVoucherReturned,
		TypeVoucherCancelled,
		TypeVoucherDeleted,
		TypeMovementRegistered:
		return true
	default:
		return false
	}
}
