package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/leadops/dashboard/internal/api/metrics"
	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
)

var tracer = otel.Tracer("github.com/leadops/dashboard/internal/core/service")

// Guard is the single gate composed into every protected route.
type Guard struct {
	tokens      ports.TokenVerifier
	users       ports.UserRepository
	revocations ports.RevocationStore
	log         zerolog.Logger
}

// NewGuard wires a Guard. revocations may be nil, in which case only the
// token signature, expiry and the stored user state are checked.
func NewGuard(tokens ports.TokenVerifier, users ports.UserRepository, revocations ports.RevocationStore, log zerolog.Logger) *Guard {
	return &Guard{tokens: tokens, users: users, revocations: revocations, log: log}
}

// Check verifies rawToken, confirms the referenced user still exists and is
// active, and that its role satisfies min. Rejections are *domain.Error values
// of kind authentication (401) or authorization (403).
func (g *Guard) Check(ctx context.Context, rawToken string, min domain.Role) (domain.Principal, error) {
	ctx, span := tracer.Start(ctx, "guard.check")
	defer span.End()
	span.SetAttributes(attribute.String("auth.min_role", string(min)))

	p, reason, err := g.check(ctx, rawToken, min)
	if err != nil {
		metrics.GuardRejectionsTotal.WithLabelValues(reason).Inc()
		span.SetStatus(codes.Error, reason)
		span.SetAttributes(attribute.String("auth.rejection", reason))
		return domain.Principal{}, err
	}
	span.SetAttributes(attribute.String("auth.user_id", p.UserID))
	return p, nil
}

func (g *Guard) check(ctx context.Context, rawToken string, min domain.Role) (domain.Principal, string, error) {
	if !min.Valid() {
		// A route wired with an unknown role is a programming error; refuse it.
		g.log.Error().Str("min_role", string(min)).Msg("guard configured with unknown role")
		return domain.Principal{}, "error", domain.ErrForbidden
	}

	if rawToken == "" {
		return domain.Principal{}, "invalid_token", domain.ErrUnauthenticated
	}

	claims, err := g.tokens.Verify(rawToken)
	if err != nil {
		reason := "invalid_token"
		if errors.Is(err, domain.ErrExpiredToken) {
			reason = "expired_token"
		}
		g.log.Debug().Err(err).Str("reason", reason).Msg("token rejected")
		// Expired and forged tokens look the same to the client.
		return domain.Principal{}, reason, domain.ErrUnauthenticated
	}

	if revoked := g.isRevoked(ctx, claims); revoked {
		g.log.Debug().Str("user_id", claims.UserID).Str("jti", claims.TokenID).Msg("revoked token presented")
		return domain.Principal{}, "revoked", domain.ErrUnauthenticated
	}

	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Principal{}, "unknown_user", domain.ErrUnauthenticated
		}
		g.log.Error().Err(err).Str("user_id", claims.UserID).Msg("guard user lookup failed")
		return domain.Principal{}, "error", err
	}
	if !user.Active {
		return domain.Principal{}, "inactive_user", domain.ErrUnauthenticated
	}

	// The stored role wins over the token claim so a demotion applies at once.
	if !user.Role.Satisfies(min) {
		return domain.Principal{}, "insufficient_role", domain.ErrInsufficientRole
	}

	return domain.Principal{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TokenID:   claims.TokenID,
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	}, "", nil
}

// isRevoked consults the revocation store. Store failures are logged and
// treated as not revoked; the per-request user check still applies.
func (g *Guard) isRevoked(ctx context.Context, claims ports.TokenClaims) bool {
	if g.revocations == nil {
		return false
	}

	if claims.TokenID != "" {
		revoked, err := g.revocations.IsTokenRevoked(ctx, claims.TokenID)
		if err != nil {
			g.log.Warn().Err(err).Msg("token denylist lookup failed")
		} else if revoked {
			return true
		}
	}

	cutoff, ok, err := g.revocations.UserRevokedAt(ctx, claims.UserID)
	if err != nil {
		g.log.Warn().Err(err).Msg("user revocation lookup failed")
		return false
	}
	return ok && claims.IssuedAt.Before(cutoff)
}
