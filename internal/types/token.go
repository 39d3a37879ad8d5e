package types

import "github.com/google/uuid"

// TokenClaims is the resolved identity carried by a validated bearer token.
type TokenClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}
