package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theplant/luhn"
)

const (
	numberPrefix = "VP"
	// MaxSequence is the largest sequence NewNumber accepts. Nine digits keep
	// the generated number at a fixed width and the Luhn input within int32.
	MaxSequence int64 = 999_999_999
)

// ErrSequenceExhausted is returned once the number sequence passes MaxSequence
var ErrSequenceExhausted = errors.New("voucher number sequence exhausted")

// NewNumber formats a generated voucher number: prefix, zero-padded sequence and a Luhn check digit.
func NewNumber(seq int64) (string, error) {
	if seq <= 0 || seq > MaxSequence {
		return "", fmt.Errorf("%w: %d", ErrSequenceExhausted, seq)
	}
	base := int(seq)
	return fmt.Sprintf("%s%09d%d", numberPrefix, base, luhn.CalculateLuhn(base)), nil
}

// IsGeneratedNumber reports whether s has the shape of a number produced by NewNumber
func IsGeneratedNumber(s string) bool {
	digits, ok := strings.CutPrefix(s, numberPrefix)
	if !ok || len(digits) != 10 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidNumber checks the Luhn digit of a generated number.
// Numbers supplied by users are accepted as they are.
func ValidNumber(s string) bool {
	if !IsGeneratedNumber(s) {
		return true
	}
	digits := strings.TrimPrefix(s, numberPrefix)
	base := 0
	for _, r := range digits[:9] {
		base = base*10 + int(r-'0')
	}
	return luhn.CalculateLuhn(base) == int(digits[9]-'0')
}
