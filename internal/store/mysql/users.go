package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/famlink/internal/model"
	"github.com/iliyamo/famlink/internal/store"
)

const userCols = "id,username,password_hash,role,avatar_url,created_at,updated_at"

// CreateUser inserts a user row.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, role, avatar_url) VALUES (?,?,?,?,?)",
		u.ID, u.Username, u.PasswordHash, u.Role, u.AvatarURL)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrUsernameTaken
		}
		return err
	}
	return s.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM users WHERE id=?",
		u.ID).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (s *Store) scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, store.ErrUserNotFound
	}
	return u, err
}

// GetUserByID fetches a user by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// GetUserByUsername fetches a user by exact username. The username
// column uses a case-sensitive (utf8mb4_bin) collation, so lookups are
// case-sensitive as the product requires.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE username=? LIMIT 1", username))
}

// UpdateUsername renames a user. The unique index on username turns a
// conflicting rename into ErrUsernameTaken.
func (s *Store) UpdateUsername(ctx context.Context, id, username string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET username=? WHERE id=?", username, id)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrUsernameTaken
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the user is gone or the name is unchanged; distinguish.
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT 1 FROM users WHERE id=? LIMIT 1", id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrUserNotFound
			}
			return err
		}
	}
	return nil
}

// ListUsers returns every user ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// DeleteUser removes a user row.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrUserNotFound
	}
	return nil
}
