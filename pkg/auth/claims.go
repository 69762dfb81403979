package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stondral/tsew-sub002/pkg/enums"
)

// Principal is the authenticated caller. It is passed explicitly into every
// permission check and mutation.
type Principal struct {
	UserID     uuid.UUID
	SystemRole enums.SystemRole
	Email      string
}

// IsPlatformAdmin reports whether membership checks are bypassed for the caller.
func (p Principal) IsPlatformAdmin() bool {
	return p.SystemRole == enums.SystemRoleAdmin
}

// IsZero reports whether the principal carries no identity.
func (p Principal) IsZero() bool {
	return p.UserID == uuid.Nil
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID     uuid.UUID        `json:"user_id"`
	SystemRole enums.SystemRole `json:"system_role"`
	Email      string           `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts validated claims.
func (c AccessTokenClaims) Principal() Principal {
	return Principal{UserID: c.UserID, SystemRole: c.SystemRole, Email: c.Email}
}
