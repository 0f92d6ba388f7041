package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = 24 * time.Hour

const tokenIssuer = "lead-dashboard"

// sessionClaims is the JWT payload of a session token.
type sessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager returns a TokenManager signing with secret. A non-positive
// ttl falls back to DefaultTokenTTL.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue signs a token for the given identity.
func (m *TokenManager) Issue(userID, email string, role domain.Role) (string, ports.TokenClaims, error) {
	if len(m.secret) == 0 {
		return "", ports.TokenClaims{}, errors.New("token manager: empty signing secret")
	}

	now := m.now().UTC().Truncate(time.Second)
	claims := ports.TokenClaims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.TokenID,
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
		UserID: userID,
		Email:  email,
		Role:   string(role),
	})

	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", ports.TokenClaims{}, err
	}
	return signed, claims, nil
}

// Verify parses raw and returns its claims. Expired tokens fail with
// domain.ErrExpiredToken; everything else that does not check out fails with
// domain.ErrInvalidToken.
func (m *TokenManager) Verify(raw string) (ports.TokenClaims, error) {
	if raw == "" {
		return ports.TokenClaims{}, domain.ErrInvalidToken
	}

	var sc sessionClaims
	_, err := jwt.ParseWithClaims(raw, &sc, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ports.TokenClaims{}, domain.Wrap(domain.ErrExpiredToken, err)
		}
		return ports.TokenClaims{}, domain.Wrap(domain.ErrInvalidToken, err)
	}

	role := domain.Role(sc.Role)
	if !role.Valid() || sc.UserID == "" || sc.UserID != sc.Subject || sc.IssuedAt == nil {
		return ports.TokenClaims{}, domain.ErrInvalidToken
	}

	return ports.TokenClaims{
		UserID:    sc.UserID,
		Email:     sc.Email,
		Role:      role,
		TokenID:   sc.ID,
		IssuedAt:  sc.IssuedAt.Time.UTC(),
		ExpiresAt: sc.ExpiresAt.Time.UTC(),
	}, nil
}
