package model

import "time"

// Role names as stored in the users.role column and carried in JWT claims.
const (
	RoleMember   = "MEMBER"
	RoleOperator = "OPERATOR"
)

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column. The password is
// never stored or compared in plaintext; only its bcrypt hash is kept.
//
// Fields:
//  ID           – opaque UUID identifier of the user.
//  Username     – unique display/login name (case-sensitive, trimmed).
//  PasswordHash – bcrypt hashed password.
//  Role         – MEMBER or OPERATOR. Operators see and may dissolve
//                 every group and may remove other accounts.
//  AvatarURL    – URL of the user's avatar image.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	AvatarURL    string    // users.avatar_url
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// IsOperator reports whether the user holds the elevated operator role.
func (u User) IsOperator() bool { return u.Role == RoleOperator }

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user; only the SHA-256 hash of the raw
// token value is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
