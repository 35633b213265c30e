// Package auth issues and verifies the bearer tokens used by the PlantWatch API
// and hashes account passwords.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token Policy
//
// Tokens are self-contained HS256 JWTs. They carry the user's identity claims
// (id, username, gmail, tokenExpo) and are valid for 24 hours from issuance.
//
//   - Verification is stateless: the signature and expiry are checked, nothing
//     is looked up in the store and nothing is refreshed.
//   - There is no refresh token and no revocation list. A client whose token
//     expired logs in again (PUT /user).
//   - The signing secret is loaded once at startup and never rotated at runtime.
//   - Every verification failure (malformed, bad signature, expired, wrong
//     issuer) is reported as ErrInvalidToken.

// TokenExpiry is how long issued tokens are valid.
const TokenExpiry = 24 * time.Hour

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the identity claims embedded in a token.
type Claims struct {
	UserID    int64   `json:"id"`
	Username  string  `json:"username"`
	Gmail     string  `json:"gmail"`
	TokenExpo *string `json:"tokenExpo"`
}

// tokenClaims is the wire form of a token's payload.
type tokenClaims struct {
	jwt.RegisteredClaims
	Claims
}

// JWTService handles token creation and verification.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	expiry     time.Duration
	now        func() time.Time
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	// SigningKey is the secret key used to sign tokens.
	SigningKey string

	// Issuer is the issuer claim for tokens (e.g., "plantwatch-api").
	Issuer string

	// Audience is the audience claim for tokens (e.g., "plantwatch-app").
	Audience string

	// Expiry overrides TokenExpiry when non-zero.
	Expiry time.Duration

	// Now overrides the clock used for issuance and verification.
	Now func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	expiry := cfg.Expiry
	if expiry == 0 {
		expiry = TokenExpiry
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &JWTService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		expiry:     expiry,
		now:        now,
	}
}

// Issue creates a signed token embedding the given claims.
func (s *JWTService) Issue(claims Claims) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)

	registered := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   fmt.Sprintf("%d", claims.UserID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		NotBefore: jwt.NewNumericDate(now),
		ID:        generateTokenID(),
	}
	if s.audience != "" {
		registered.Audience = jwt.ClaimStrings{s.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: registered,
		Claims:           claims,
	})
	tokenString, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Verify validates a token and returns the claims embedded at issuance.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	parsed, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims := parsed.Claims
	return &claims, nil
}

// generateTokenID generates a unique token ID.
func generateTokenID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
