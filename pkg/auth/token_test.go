package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "chatstore", ExpirationMinutes: 30}

func TestMintAndParseAccessToken(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(testJWT, now, AccessTokenPayload{UserID: userID, Role: enums.PlatformRoleSuperAdmin})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testJWT, token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.PlatformRoleSuperAdmin, claims.Role)
	assert.Equal(t, testJWT.Issuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, Actor{UserID: userID, Role: enums.PlatformRoleSuperAdmin}, claims.Actor())
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.PlatformRoleUser})
	require.NoError(t, err)

	_, err = ParseAccessToken(testJWT, token)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsWrongSecretAndIssuer(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.PlatformRoleUser})
	require.NoError(t, err)

	_, err = ParseAccessToken(config.JWTConfig{Secret: "other", Issuer: "chatstore"}, token)
	require.Error(t, err)

	_, err = ParseAccessToken(config.JWTConfig{Secret: "secret", Issuer: "someone-else"}, token)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsSystemRole(t *testing.T) {
	claims := AccessTokenClaims{
		UserID: uuid.New(),
		Role:   enums.PlatformRoleSystem,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testJWT.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWT.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(testJWT, token)
	require.ErrorIs(t, err, ErrInvalidClaims)

	_, err = MintAccessToken(testJWT, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.PlatformRoleSystem})
	require.ErrorIs(t, err, ErrInvalidClaims)
}

func signClaims(t *testing.T, method jwt.SigningMethod, claims AccessTokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testJWT.Secret))
	require.NoError(t, err)
	return token
}

func TestParseAccessTokenRejectsForeignSubjectAndAlgorithm(t *testing.T) {
	registered := jwt.RegisteredClaims{
		Issuer:    testJWT.Issuer,
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	mismatched := signClaims(t, jwt.SigningMethodHS256, AccessTokenClaims{UserID: uuid.New(), Role: enums.PlatformRoleUser, RegisteredClaims: registered})
	_, err := ParseAccessToken(testJWT, mismatched)
	require.ErrorIs(t, err, ErrInvalidClaims)

	userID := uuid.New()
	registered.Subject = userID.String()
	hs384 := signClaims(t, jwt.SigningMethodHS384, AccessTokenClaims{UserID: userID, Role: enums.PlatformRoleUser, RegisteredClaims: registered})
	_, err = ParseAccessToken(testJWT, hs384)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseAccessTokenToleratesSmallClockSkew(t *testing.T) {
	cfg := config.JWTConfig{Secret: testJWT.Secret, Issuer: testJWT.Issuer, ExpirationMinutes: 1}
	token, err := MintAccessToken(cfg, time.Now().Add(-70*time.Second), AccessTokenPayload{UserID: uuid.New(), Role: enums.PlatformRoleUser})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.NoError(t, err)
}

func TestTokenFunctionsRequireConfig(t *testing.T) {
	_, err := MintAccessToken(config.JWTConfig{Issuer: "chatstore", ExpirationMinutes: 5}, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.PlatformRoleUser})
	require.ErrorIs(t, err, errSecretRequired)

	_, err = ParseAccessToken(config.JWTConfig{Secret: "secret"}, "token")
	require.ErrorIs(t, err, errIssuerRequired)
}

func TestActorAuditID(t *testing.T) {
	assert.Nil(t, SystemActor().AuditID())

	id := uuid.New()
	got := Actor{UserID: id, Role: enums.PlatformRoleUser}.AuditID()
	require.NotNil(t, got)
	assert.Equal(t, id, *got)
}
