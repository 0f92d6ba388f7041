package ports

import (
	"context"
	"time"

	"github.com/leadops/dashboard/internal/core/domain"
)

// TokenClaims is the verified content of a session token.
type TokenClaims struct {
	UserID    string
	Email     string
	Role      domain.Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID, email string, role domain.Role) (string, TokenClaims, error)
}

// TokenVerifier validates session tokens. It fails with domain.ErrInvalidToken
// or domain.ErrExpiredToken.
type TokenVerifier interface {
	Verify(raw string) (TokenClaims, error)
}

// RevocationStore tracks tokens that must be refused before their natural expiry.
type RevocationStore interface {
	RevokeToken(ctx context.Context, tokenID string, until time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	// RevokeUser invalidates every token of userID issued before at.
	RevokeUser(ctx context.Context, userID string, at time.Time) error
	// UserRevokedAt returns the cutoff set by RevokeUser, if any.
	UserRevokedAt(ctx context.Context, userID string) (time.Time, bool, error)
}

// LoginLimiter throttles login attempts per identifier.
type LoginLimiter interface {
	// Reserve counts an attempt for identifier and reports whether it is
	// within the budget. It must be atomic across concurrent callers.
	Reserve(ctx context.Context, identifier string) (bool, error)
	Reset(ctx context.Context, identifier string) error
}
