// internal/app/system/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenExpiry is how long an access token is valid.
const DefaultTokenExpiry = 30 * time.Minute

// TokenType is reported to clients alongside the token.
const TokenType = "bearer"

// Claims is the payload of an access token.
type Claims struct {
	UserID       string `json:"user_id"`
	MobileNumber string `json:"mobile_number"`
	jwt.RegisteredClaims
}

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenManager signs and verifies access tokens with a shared HMAC secret.
type TokenManager struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager returns a manager for algorithm HS256, HS384 or HS512.
// A non-positive expiry uses DefaultTokenExpiry.
func NewTokenManager(secret, algorithm string, expiry time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	method, err := SigningMethod(algorithm)
	if err != nil {
		return nil, err
	}
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenManager{
		secret: []byte(secret),
		method: method,
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// SigningMethod resolves an HMAC algorithm name. Empty means HS256.
func SigningMethod(algorithm string) (*jwt.SigningMethodHMAC, error) {
	switch algorithm {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported token algorithm %q (want HS256, HS384 or HS512)", algorithm)
	}
}

// Expiry returns the configured token lifetime.
func (m *TokenManager) Expiry() time.Duration { return m.expiry }

// Issue signs a token for the given user.
func (m *TokenManager) Issue(userID, mobileNumber string) (Token, error) {
	now := m.now().UTC()
	exp := now.Add(m.expiry)

	claims := Claims{
		UserID:       userID,
		MobileNumber: mobileNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: TokenType, ExpiresAt: exp}, nil
}

// Verify parses and checks a token. Any failure (bad signature, wrong
// algorithm, expired, malformed, missing user id) returns nil, false.
func (m *TokenManager) Verify(tokenString string) (*Claims, bool) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !tok.Valid || claims.UserID == "" {
		return nil, false
	}
	return claims, true
}
