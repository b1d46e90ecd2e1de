package service

import (
	"errors"
	"fmt"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/credential"
	"github.com/valepallet/vpallet/internal/domain/ledger"
	domainwf "github.com/valepallet/vpallet/internal/domain/workflow"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrIntegrityViolation     = errors.New("security token does not match")
	ErrExpired                = errors.New("voucher expired")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrLedgerUnderflow        = errors.New("ledger underflow")
	ErrDuplicateKey           = errors.New("duplicate key")
	ErrInUse                  = errors.New("record is in use")
	ErrNoTenant               = errors.New("user has no tenant")
	ErrInvalidInput           = errors.New("invalid input")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrInvalidCredentials     = errors.New("invalid credentials")
)

// translate maps repository and domain failures onto the service taxonomy,
// keeping the original error in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var kind error
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrIntegrityViolation), errors.Is(err, ErrExpired),
		errors.Is(err, ErrInvalidStateTransition), errors.Is(err, ErrLedgerUnderflow),
		errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrInUse), errors.Is(err, ErrNoTenant),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrConcurrentModification):
		return err
	case errors.Is(err, port.ErrNotFound):
		kind = ErrNotFound
	case errors.Is(err, port.ErrDuplicate):
		kind = ErrDuplicateKey
	case errors.Is(err, port.ErrStaleVersion):
		kind = ErrConcurrentModification
	case errors.Is(err, port.ErrReferenced):
		kind = ErrInUse
	case errors.Is(err, domainwf.ErrInvalidTransition), errors.Is(err, domainwf.ErrGuardFailed):
		kind = ErrInvalidStateTransition
	case errors.Is(err, ledger.ErrUnderflow):
		kind = ErrLedgerUnderflow
	case errors.Is(err, ledger.ErrInvalidQuantity), errors.Is(err, ledger.ErrUnknownKind),
		errors.Is(err, credential.ErrMalformedPayload):
		kind = ErrInvalidInput
	default:
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
