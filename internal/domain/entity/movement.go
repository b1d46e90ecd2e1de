package entity

import "time"

// MovementKind tags an audit movement. Values are persisted verbatim.
type MovementKind string

const (
	MovementIssued    MovementKind = "EMITIDO"
	MovementExit      MovementKind = "SAIDA"
	MovementReturn    MovementKind = "RETORNO"
	MovementScan      MovementKind = "SCAN"
	MovementCancelled MovementKind = "CANCELADO"
)

// IsValid returns true for the closed set of movement kinds
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementIssued, MovementExit, MovementReturn, MovementScan, MovementCancelled:
		return true
	default:
		return false
	}
}

// Movement is an append-only ledger entry of a voucher
type Movement struct {
	ID        string       `json:"id" db:"id"`
	VoucherID string       `json:"voucher_id" db:"voucher_id"`
	Seq       int          `json:"seq" db:"seq"`
	Kind      MovementKind `json:"kind" db:"kind"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	PBR       int          `json:"pbr" db:"pbr"`
	CHEP      int          `json:"chep" db:"chep"`
	Notes     string       `json:"notes,omitempty" db:"notes"`
	Actor     *string      `json:"actor,omitempty" db:"actor"`

	// VoucherNumber is filled by tenant-wide listings only
	VoucherNumber string `json:"numero_vale,omitempty" db:"voucher_number"`
}

// MovementFilter narrows the tenant movement log
type MovementFilter struct {
	Kind   MovementKind
	Limit  int
	Offset int
}

// Quantities returns the moved quantities
func (m *Movement) Quantities() Quantities {
	return Quantities{PBR: m.PBR, CHEP: m.CHEP}
}
