package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/famlink/internal/store"
)

// StoreRefresh inserts a refresh token hash row.
func (s *Store) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh returns the owning userID if a non-revoked,
// non-expired token exists.
func (s *Store) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	var (
		userID    string
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}
	if revokedAt.Valid {
		return "", store.ErrTokenNotFound
	}
	if time.Now().UTC().After(expiresAt) {
		return "", store.ErrTokenNotFound
	}
	return userID, nil
}

// RevokeByHash marks a token as revoked.
func (s *Store) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all of a user's active tokens.
func (s *Store) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
