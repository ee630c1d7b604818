package core

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256-signed bearer tokens. The signing
// secret is injected at construction and never read from ambient state.
// There is no revocation list: a signed token stays valid until it expires,
// logout included.
type TokenIssuer struct {
	secret []byte
	exp    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenIssuer)

func WithTokenExp(exp time.Duration) TokenOption {
	return func(t *TokenIssuer) {
		t.exp = exp
	}
}

// WithTokenClock overrides the time source used for issuing and verifying.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

func NewTokenIssuer(secret []byte, opts ...TokenOption) *TokenIssuer {
	issuer := &TokenIssuer{
		secret: secret,
		exp:    time.Hour * 24,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

// Issue signs a token carrying userID and returns it with its expiry.
func (t *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	exp := t.now().Add(t.exp)
	claims := &TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(t.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
			Issuer:    "cinevault",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", exp, err
	}

	return signed, exp, nil
}

// Verify checks the signature and expiry of tokenString. A malformed token or
// a bad signature rejects as InvalidToken; a stale one as ExpiredToken.
func (t *TokenIssuer) Verify(tokenString string) AuthResult {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(t.now),
	)

	switch {
	case err == nil && parsed.Valid:
		return Authenticated(claims.UserID)
	case errors.Is(err, jwt.ErrTokenExpired):
		return Rejected(ExpiredToken)
	default:
		return Rejected(InvalidToken)
	}
}
