package credential

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomTokens_Unique(t *testing.T) {
	gen := NewRandomTokens()
	seen := make(map[string]struct{}, 10000)

	for i := 0; i < 10000; i++ {
		tok, err := gen.NewToken()
		require.NoError(t, err)
		require.True(t, ValidToken(tok), "token %q has unexpected shape", tok)

		_, dup := seen[tok]
		require.False(t, dup, "duplicate token after %d draws", i)
		seen[tok] = struct{}{}
	}
}

func TestRandomTokens_ShortSource(t *testing.T) {
	gen := &RandomTokens{src: bytes.NewReader([]byte{1, 2, 3})}
	_, err := gen.NewToken()
	assert.Error(t, err)
}

func TestValidToken(t *testing.T) {
	assert.True(t, ValidToken("0123456789abcdef0123456789abcdef"))
	assert.False(t, ValidToken("0123456789abcdef"))
	assert.False(t, ValidToken("zz23456789abcdef0123456789abcdef"))
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("abc", "abc"))
	assert.False(t, Match("abc", "abd"))
	assert.False(t, Match("abc", ""))
	assert.False(t, Match("", ""))
}

func TestPayload_RoundTrip(t *testing.T) {
	p := NewPayload("2f1c", "0123456789abcdef0123456789abcdef", "V001", "https://vpallet.example.com/")
	assert.Equal(t, "https://vpallet.example.com/api/v1/verify/2f1c?hash=0123456789abcdef0123456789abcdef", p.URL)

	encoded, err := p.JSON()
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"json", encoded},
		{"legacy", p.Legacy()},
		{"legacy with whitespace", "  " + p.Legacy() + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, p.ID, got.ID)
			assert.True(t, Match(p.Hash, got.Hash))
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", "   "},
		{"wrong prefix", "pallet:1:abc"},
		{"too many parts", "vpallet:1:abc:def"},
		{"missing hash", "vpallet:1:"},
		{"broken json", `{"id": "1",`},
		{"json without hash", `{"id": "1"}`},
		{"plain text", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			assert.True(t, errors.Is(err, ErrMalformedPayload), "got %v", err)
		})
	}
}

func TestNumber(t *testing.T) {
	n, err := NewNumber(123)
	require.NoError(t, err)
	assert.Equal(t, "VP0000001230", n)
	assert.True(t, IsGeneratedNumber(n))
	assert.True(t, ValidNumber(n))
	assert.False(t, ValidNumber("VP0000001231"))

	// user supplied numbers are not checked
	assert.False(t, IsGeneratedNumber("V001"))
	assert.True(t, ValidNumber("V001"))
	assert.False(t, IsGeneratedNumber("VP00000012a0"))
}

func TestNewNumber_SequenceBounds(t *testing.T) {
	last, err := NewNumber(MaxSequence)
	require.NoError(t, err)
	assert.Equal(t, "VP9999999999", last)
	assert.True(t, IsGeneratedNumber(last))
	assert.True(t, ValidNumber(last))

	for _, seq := range []int64{0, -1, MaxSequence + 1, 1 << 40} {
		_, err := NewNumber(seq)
		assert.ErrorIs(t, err, ErrSequenceExhausted, "seq %d", seq)
	}
}
