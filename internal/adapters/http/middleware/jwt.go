package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of an API bearer token.
const DefaultTokenTTL = time.Hour

const tokenIssuer = "coachdesk"

// ErrTokenSecretMissing is returned when bearer tokens are not configured.
var ErrTokenSecretMissing = errors.New("token secret is not configured")

// Claims are the bearer token claims. Subject carries the account id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer. A non-positive ttl uses DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for the account and its expiry.
// PRE: accountID is non-empty
// POST: token verifies with Verify until the returned expiry
func (ti *TokenIssuer) Issue(accountID, email string) (string, time.Time, error) {
	if len(ti.secret) == 0 {
		return "", time.Time{}, ErrTokenSecretMissing
	}
	now := ti.now()
	expires := now.Add(ti.ttl)
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses raw and returns its claims.
// PRE: none
// POST: returns claims only for an unexpired HS256 token signed with the secret
func (ti *TokenIssuer) Verify(raw string) (Claims, error) {
	if len(ti.secret) == 0 {
		return Claims{}, ErrTokenSecretMissing
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}
	return *claims, nil
}
