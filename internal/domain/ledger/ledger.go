// Package ledger computes the pallet balance a voucher still owes back.
//
// The balance is set by the issuance movement, is untouched by the exit and
// decreases with every return. It can never go below zero.
package ledger

import (
	"errors"
	"fmt"

	"github.com/valepallet/vpallet/internal/domain/entity"
)

var (
	// ErrUnderflow is returned when a return exceeds the outstanding balance
	ErrUnderflow = errors.New("ledger underflow")

	// ErrInvalidQuantity is returned for negative movement quantities
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrUnknownKind is returned for a movement kind outside the closed set
	ErrUnknownKind = errors.New("unknown movement kind")
)

// Apply returns the balance after a movement of the given kind and quantities.
func Apply(balance entity.Quantities, kind entity.MovementKind, q entity.Quantities) (entity.Quantities, error) {
	if q.Negative() {
		return balance, fmt.Errorf("%w: pbr=%d chep=%d", ErrInvalidQuantity, q.PBR, q.CHEP)
	}

	switch kind {
	case entity.MovementIssued:
		return q, nil
	case entity.MovementExit, entity.MovementScan, entity.MovementCancelled:
		return balance, nil
	case entity.MovementReturn:
		next := entity.Quantities{PBR: balance.PBR - q.PBR, CHEP: balance.CHEP - q.CHEP}
		if next.Negative() {
			return balance, fmt.Errorf("%w: returning pbr=%d chep=%d with balance pbr=%d chep=%d",
				ErrUnderflow, q.PBR, q.CHEP, balance.PBR, balance.CHEP)
		}
		return next, nil
	default:
		return balance, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// Replay folds a movement history, in seq order, into a balance.
func Replay(movements []*entity.Movement) (entity.Quantities, error) {
	var balance entity.Quantities
	for _, m := range movements {
		next, err := Apply(balance, m.Kind, m.Quantities())
		if err != nil {
			return balance, fmt.Errorf("movement %d: %w", m.Seq, err)
		}
		balance = next
	}
	return balance, nil
}
