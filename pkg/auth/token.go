// Package auth verifies console access tokens and carries the resulting
// actor into order operations. Tokens are minted by the console login
// service; MintAccessToken exists for tooling and tests.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

var signingMethod = jwt.SigningMethodHS256

// clockSkew tolerated between the console login service and this API.
const clockSkew = 30 * time.Second

var (
	errSecretRequired = errors.New("jwt secret is required")
	errIssuerRequired = errors.New("jwt issuer is required")

	// ErrInvalidClaims marks a correctly signed token whose claims cannot act
	// on orders.
	ErrInvalidClaims = errors.New("invalid token claims")
)

func checkConfig(cfg config.JWTConfig) error {
	if cfg.Secret == "" {
		return errSecretRequired
	}
	if cfg.Issuer == "" {
		return errIssuerRequired
	}
	return nil
}

// MintAccessToken signs an HS256 token for payload valid for the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkConfig(cfg); err != nil {
		return "", err
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	}
	if !payload.Role.IsValid() || payload.Role == enums.PlatformRoleSystem {
		return "", fmt.Errorf("%w: role %q cannot be minted", ErrInvalidClaims, payload.Role)
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	issued := now.UTC()
	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry, then rejects claims
// that name the internal system identity or no user.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}

	claims := &AccessTokenClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}

	switch {
	case claims.Role == enums.PlatformRoleSystem || !claims.Role.IsValid():
		return nil, fmt.Errorf("%w: role %q", ErrInvalidClaims, claims.Role)
	case claims.UserID == uuid.Nil:
		return nil, fmt.Errorf("%w: user_id missing", ErrInvalidClaims)
	case claims.Subject != "" && claims.Subject != claims.UserID.String():
		return nil, fmt.Errorf("%w: subject does not match user_id", ErrInvalidClaims)
	}
	return claims, nil
}
