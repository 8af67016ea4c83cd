// Package store defines the persistence contract consumed by the
// service layer. The domain logic never talks to a database directly;
// it goes through these interfaces so that backends can be swapped
// (MySQL in production, an in-memory map for tests and local runs)
// without touching the services.
package store

import (
	"context"
	"time"

	"github.com/iliyamo/famlink/internal/model"
)

// IdentityStore owns User records.
type IdentityStore interface {
	// CreateUser persists a new user. Returns ErrUsernameTaken when the
	// username is already present.
	CreateUser(ctx context.Context, u *model.User) error

	// GetUserByID fetches a user by id. Returns ErrUserNotFound.
	GetUserByID(ctx context.Context, id string) (model.User, error)

	// GetUserByUsername fetches a user by exact (case-sensitive) username.
	// Returns ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	// UpdateUsername changes a user's username. Returns ErrUsernameTaken
	// when the new name is held by a different user, ErrUserNotFound when
	// the user does not exist.
	UpdateUsername(ctx context.Context, id, username string) error

	// ListUsers returns every user, ordered by creation time.
	ListUsers(ctx context.Context) ([]model.User, error)

	// DeleteUser removes a user record. Returns ErrUserNotFound.
	DeleteUser(ctx context.Context, id string) error
}

// GroupStore owns Group records and their membership set.
type GroupStore interface {
	// CreateGroup persists a group with its initial members. Returns
	// ErrInviteCodeTaken when the invite code collides with an existing
	// group; callers re-roll the code and retry.
	CreateGroup(ctx context.Context, g *model.Group) error

	// GetGroup fetches a group with its members. Returns ErrGroupNotFound.
	GetGroup(ctx context.Context, id string) (model.Group, error)

	// GetGroupByInviteCode fetches a group by exact invite code. Returns
	// ErrGroupNotFound. Callers normalize the code to uppercase first.
	GetGroupByInviteCode(ctx context.Context, code string) (model.Group, error)

	// AddMember inserts userID into the group's member set. Adding an
	// existing member is a no-op, not an error. Returns ErrGroupNotFound.
	AddMember(ctx context.Context, groupID, userID string) error

	// ListGroupsForUser returns every group whose member set contains
	// userID, ordered by creation time.
	ListGroupsForUser(ctx context.Context, userID string) ([]model.Group, error)

	// ListAllGroups returns every group in existence, ordered by creation
	// time. Used by the operator override.
	ListAllGroups(ctx context.Context) ([]model.Group, error)

	// DeleteGroup removes the group and its membership rows atomically.
	// Returns ErrGroupNotFound. Message purge is a separate call owned
	// by the registry's dissolve cascade.
	DeleteGroup(ctx context.Context, id string) error
}

// MessageStore owns Message records, partitioned by group.
type MessageStore interface {
	// AppendMessage persists a message. Membership is validated by the
	// caller, not here.
	AppendMessage(ctx context.Context, m *model.Message) error

	// ListMessagesForGroup returns the group's messages in ascending
	// timestamp order, ties broken by id. An unknown group yields an
	// empty slice, not an error.
	ListMessagesForGroup(ctx context.Context, groupID string) ([]model.Message, error)

	// PurgeMessagesForGroup deletes every message for the group.
	PurgeMessagesForGroup(ctx context.Context, groupID string) error
}

// TokenStore persists refresh-token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owning userID if a non-revoked,
	// non-expired token with this hash exists; ErrTokenNotFound otherwise.
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// Store bundles every collection of the backing adapter.
type Store interface {
	IdentityStore
	GroupStore
	MessageStore
	TokenStore

	// Close releases any resources held by the adapter.
	Close() error
}
