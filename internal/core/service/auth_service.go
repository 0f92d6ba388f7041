package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadops/dashboard/internal/api/metrics"
	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
)

// AuthService implements registration, login and logout.
type AuthService struct {
	repo        ports.UserRepository
	tokens      ports.TokenIssuer
	revocations ports.RevocationStore
	limiter     ports.LoginLimiter
	audit       ports.AuditRecorder
	log         zerolog.Logger
}

// AuthDeps groups the optional collaborators of AuthService. Nil fields
// disable the matching feature.
type AuthDeps struct {
	Revocations ports.RevocationStore
	Limiter     ports.LoginLimiter
	Audit       ports.AuditRecorder
}

func NewAuthService(repo ports.UserRepository, tokens ports.TokenIssuer, deps AuthDeps, log zerolog.Logger) *AuthService {
	return &AuthService{
		repo:        repo,
		tokens:      tokens,
		revocations: deps.Revocations,
		limiter:     deps.Limiter,
		audit:       recorderOrNop(deps.Audit),
		log:         log,
	}
}

// Register creates a self-service account with the user role and signs it in.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" || name == "" {
		return nil, domain.Validation("email, password and name are required")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Active:       true,
		Permissions:  []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.issue(created, "register")
	if err != nil {
		return nil, err
	}

	s.audit.Record(newAuditEvent(domain.AuditUserRegistered, created.ID, created.ID, created.Email, in.Meta))
	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return result, nil
}

// Login checks credentials and returns a fresh session token.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.Validation("email and password are required")
	}

	if !s.allowAttempt(ctx, email) {
		metrics.LoginAttemptsTotal.WithLabelValues("throttled").Inc()
		s.log.Warn().Str("email", email).Msg("login throttled")
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			burnPasswordCheck(in.Password)
			s.loginFailed(ctx, email, "", in.Meta)
			return nil, domain.ErrInvalidCredentials
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if !passwordMatches(user.PasswordHash, in.Password) {
		s.loginFailed(ctx, email, user.ID, in.Meta)
		return nil, domain.ErrInvalidCredentials
	}

	if !user.Active {
		metrics.LoginAttemptsTotal.WithLabelValues("inactive").Inc()
		return nil, domain.ErrInactiveUser
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("login limiter reset failed")
		}
	}

	result, err := s.issue(user, "login")
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.audit.Record(newAuditEvent(domain.AuditLoginSucceeded, user.ID, user.ID, user.Email, in.Meta))
	return result, nil
}

// Logout denylists the token the principal authenticated with until it expires.
func (s *AuthService) Logout(ctx context.Context, principal domain.Principal, meta domain.RequestMeta) error {
	if s.revocations != nil && principal.TokenID != "" {
		until := principal.ExpiresAt
		if until.IsZero() {
			until = time.Now().Add(DefaultTokenTTL)
		}
		if err := s.revocations.RevokeToken(ctx, principal.TokenID, until); err != nil {
			return err
		}
	}
	s.audit.Record(newAuditEvent(domain.AuditLogout, principal.UserID, principal.UserID, principal.Email, meta))
	return nil
}

func (s *AuthService) issue(user *domain.User, source string) (*ports.AuthResult, error) {
	token, claims, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to issue token")
		return nil, err
	}
	metrics.TokensIssuedTotal.WithLabelValues(source).Inc()
	return &ports.AuthResult{Token: token, ExpiresAt: claims.ExpiresAt, User: user}, nil
}

// allowAttempt reserves a slot in the email's attempt budget before any
// password work happens.
func (s *AuthService) allowAttempt(ctx context.Context, email string) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.Reserve(ctx, email)
	if err != nil {
		s.log.Warn().Err(err).Msg("login limiter unavailable, allowing attempt")
		return true
	}
	return ok
}

func (s *AuthService) loginFailed(ctx context.Context, email, userID string, meta domain.RequestMeta) {
	metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
	s.audit.Record(newAuditEvent(domain.AuditLoginFailed, "", userID, email, meta))
}
