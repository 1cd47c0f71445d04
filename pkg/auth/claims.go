package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.PlatformRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to console users.
type AccessTokenClaims struct {
	UserID uuid.UUID          `json:"user_id"`
	Role   enums.PlatformRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor returns the identity the order services authorize against.
func (c AccessTokenClaims) Actor() Actor {
	return Actor{UserID: c.UserID, Role: c.Role}
}

// Actor is an already-authenticated caller of an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.PlatformRole
}

// SystemActor is used for programmatic transitions, e.g. proof auto-confirmation.
func SystemActor() Actor {
	return Actor{Role: enums.PlatformRoleSystem}
}

// IsSystem reports whether the actor is the internal system identity.
func (a Actor) IsSystem() bool {
	return a.Role == enums.PlatformRoleSystem
}

// AuditID is the admin id recorded in audit entries; nil for the system actor.
func (a Actor) AuditID() *uuid.UUID {
	if a.IsSystem() || a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
