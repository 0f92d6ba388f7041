package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore keeps token denylist entries and per-user revocation
// cutoffs in Redis. Every key expires once no token it could affect is still
// valid.
//
// Key formats:
//
//	revoked:jti:<token id>   -> "1"
//	revoked:user:<user id>   -> unix seconds of the cutoff
type RevocationStore struct {
	client   *redis.Client
	tokenTTL time.Duration
	now      func() time.Time
}

// NewRevocationStore wraps client. tokenTTL bounds how long a user cutoff is
// kept: after that every token issued before it has expired anyway.
func NewRevocationStore(client *redis.Client, tokenTTL time.Duration) *RevocationStore {
	return &RevocationStore{client: client, tokenTTL: tokenTTL, now: time.Now}
}

// RevokeToken denylists a single token until its expiry.
func (s *RevocationStore) RevokeToken(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, tokenKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether tokenID is denylisted.
func (s *RevocationStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, tokenKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("token revocation check: %w", err)
	}
	return n > 0, nil
}

// RevokeUser sets the cutoff for userID to at, truncated to the second to
// match token issued-at precision.
func (s *RevocationStore) RevokeUser(ctx context.Context, userID string, at time.Time) error {
	cutoff := at.UTC().Truncate(time.Second).Unix()
	if err := s.client.Set(ctx, userKey(userID), cutoff, s.tokenTTL).Err(); err != nil {
		return fmt.Errorf("revoke user: %w", err)
	}
	return nil
}

// UserRevokedAt returns the cutoff stored for userID.
func (s *RevocationStore) UserRevokedAt(ctx context.Context, userID string) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("user revocation check: %w", err)
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("user revocation value %q: %w", raw, err)
	}
	return time.Unix(ts, 0).UTC(), true, nil
}

func tokenKey(tokenID string) string { return "revoked:jti:" + tokenID }

func userKey(userID string) string { return "revoked:user:" + userID }
