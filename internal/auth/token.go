package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a token that failed signature or claims checks.
var ErrInvalidToken = errors.New("invalid token")

// Identity is what a verified token asserts about its bearer.
type Identity struct {
	UserID int64
	Email  string
}

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies identity tokens. The validity window is a
// per-call parameter so different issuance contexts can use different TTLs.
type TokenIssuer struct {
	secret []byte
	clock  Clock
}

func NewTokenIssuer(secret string, clock Clock) *TokenIssuer {
	if clock == nil {
		clock = SystemClock()
	}
	return &TokenIssuer{secret: []byte(secret), clock: clock}
}

// Issue produces a signed token asserting id, valid for ttl from now.
func (t *TokenIssuer) Issue(id Identity, ttl time.Duration) (string, error) {
	now := t.clock.Now()
	claims := tokenClaims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns the identity it
// asserts.
func (t *TokenIssuer) Verify(tokenString string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.clock.Now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return Identity{UserID: userID, Email: claims.Email}, nil
}
