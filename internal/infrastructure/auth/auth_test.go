package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/entity"
)

func fixedClock(t time.Time) *time.Time { return &t }

func TestJWTIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	issuer, err := NewJWTIssuer("s3cret", time.Hour, port.ClockFunc(func() time.Time { return now }))
	require.NoError(t, err)

	tests := []struct {
		name string
		p    entity.Principal
	}{
		{"with tenant", entity.Principal{UserID: "u-1", Username: "operador", TenantID: "t-1"}},
		{"without tenant", entity.Principal{UserID: "u-2", Username: "avulso"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, exp, err := issuer.Issue(tt.p)
			require.NoError(t, err)
			assert.Equal(t, now.Add(time.Hour), exp)

			got, err := issuer.Parse(token)
			require.NoError(t, err)
			assert.Equal(t, tt.p, got)
			assert.Equal(t, tt.p.HasTenant(), got.HasTenant())
		})
	}
}

func TestJWTIssuer_Rejects(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	current := fixedClock(now)
	clock := port.ClockFunc(func() time.Time { return *current })

	issuer, err := NewJWTIssuer("s3cret", time.Hour, clock)
	require.NoError(t, err)
	other, err := NewJWTIssuer("another", time.Hour, clock)
	require.NoError(t, err)

	token, _, err := issuer.Issue(entity.Principal{UserID: "u-1", Username: "operador"})
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.Error(t, err, "wrong secret")

	_, err = issuer.Parse("not-a-token")
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1", "iss": issuerName, "exp": now.Add(time.Hour).Unix()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(unsigned)
	assert.Error(t, err, "alg none")

	*current = now.Add(2 * time.Hour)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestNewJWTIssuer_RequiresSecret(t *testing.T) {
	_, err := NewJWTIssuer("", time.Hour, nil)
	assert.Error(t, err)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("palete-azul")
	require.NoError(t, err)
	assert.NotEqual(t, "palete-azul", hash)

	assert.NoError(t, h.Compare(hash, "palete-azul"))
	assert.ErrorIs(t, h.Compare(hash, "palete-verde"), bcrypt.ErrMismatchedHashAndPassword)
}
