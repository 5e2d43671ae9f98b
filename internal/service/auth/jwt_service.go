package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService issues and checks the bearer tokens handed out at sign-in.
// A token is bound to one session; revoking the session revokes the token.
type JWTService interface {
	// GenerateToken creates a signed access token for the session, expiring
	// together with it.
	GenerateToken(ctx context.Context, userID, sessionID uuid.UUID, expiresAt time.Time) (string, error)

	// ValidateToken verifies signature, type and time claims and returns the
	// claims of a valid token.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the custom claims structure for the JWT tokens.
type Claims struct {
	UserID    uuid.UUID `json:"uid,omitempty"`
	SessionID uuid.UUID `json:"sid,omitempty"`
	TokenType string    `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
