package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/internal/domain/entity"
)

const issuerName = "vpallet"

// claims carries the principal inside an HS256 token
type claims struct {
	Username string `json:"username"`
	Tenant   string `json:"tenant,omitempty"`
	jwt.RegisteredClaims
}

// JWTIssuer signs and verifies bearer tokens
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer creates an issuer. The secret must not be empty.
func NewJWTIssuer(secret string, ttl time.Duration, clock port.Clock) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if clock == nil {
		clock = port.SystemClock
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: clock.Now}, nil
}

// Issue signs a token for p
func (i *JWTIssuer) Issue(p entity.Principal) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: p.Username,
		Tenant:   p.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    issuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature and expiry and returns the embedded principal
func (i *JWTIssuer) Parse(raw string) (entity.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return entity.Principal{}, fmt.Errorf("invalid token: %w", err)
	}
	if c.Subject == "" {
		return entity.Principal{}, errors.New("invalid token: missing subject")
	}

	return entity.Principal{UserID: c.Subject, Username: c.Username, TenantID: c.Tenant}, nil
}

var _ port.TokenIssuer = (*JWTIssuer)(nil)
