package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/famlink/internal/model"
	"github.com/iliyamo/famlink/internal/queue"
	"github.com/iliyamo/famlink/internal/store"
	"github.com/iliyamo/famlink/internal/utils"
)

// Identity owns user records: registration, credential checks, renames
// and the operator-only administrative surface.
type Identity struct {
	store      store.IdentityStore
	bcryptCost int
	protected  string // username of the seed operator, immune to Remove
	events     *queue.Publisher
}

// NewIdentity creates an Identity service. protectedUsername may be
// empty when no seed operator is configured.
func NewIdentity(s store.IdentityStore, bcryptCost int, protectedUsername string, events *queue.Publisher) *Identity {
	return &Identity{store: s, bcryptCost: bcryptCost, protected: protectedUsername, events: events}
}

// defaultAvatar mirrors the product's seeded avatar URLs.
func defaultAvatar(username string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/200", url.PathEscape(username))
}

// Register creates a new user. Usernames are trimmed but remain
// case-sensitive; duplicates fail with store.ErrUsernameTaken. The
// password is stored only as a bcrypt hash.
func (s *Identity) Register(ctx context.Context, username, password, role string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, fmt.Errorf("%w: username and password required", ErrValidation)
	}
	role = strings.ToUpper(strings.TrimSpace(role))
	if role != model.RoleOperator {
		role = model.RoleMember
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:           utils.NewID(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		AvatarURL:    defaultAvatar(username),
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		return model.User{}, err
	}
	slog.Info("user registered", "user_id", u.ID, "username", u.Username, "role", u.Role)

	// Activity event is advisory; a broker outage must not fail signup.
	_ = s.events.Publish(ctx, queue.ActivityEvent{
		Type:       queue.TypeUserRegistered,
		UserID:     u.ID,
		Username:   u.Username,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return u, nil
}

// Authenticate verifies a claimed identity. Unknown usernames fail with
// store.ErrUserNotFound, wrong passwords with ErrBadCredential. The
// comparison is bcrypt's constant-time verification, never a plaintext
// equality check.
func (s *Identity) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return model.User{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrBadCredential
	}
	return u, nil
}

// Rename changes a user's username. Uniqueness is re-validated: a
// rename onto a taken name fails with store.ErrUsernameTaken. Existing
// messages keep the sender-name snapshot taken at send time.
func (s *Identity) Rename(ctx context.Context, userID, newUsername string) (model.User, error) {
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return model.User{}, fmt.Errorf("%w: username required", ErrValidation)
	}
	if err := s.store.UpdateUsername(ctx, userID, newUsername); err != nil {
		return model.User{}, err
	}
	slog.Info("user renamed", "user_id", userID, "username", newUsername)
	return s.store.GetUserByID(ctx, userID)
}

// Get fetches a single user by id.
func (s *Identity) Get(ctx context.Context, userID string) (model.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// List returns every user. Operator-only.
func (s *Identity) List(ctx context.Context, requester model.User) ([]model.User, error) {
	if !requester.IsOperator() {
		return nil, ErrNotAuthorized
	}
	return s.store.ListUsers(ctx)
}

// Remove deletes another user's account. Operator-only; the seed
// operator account itself is protected.
func (s *Identity) Remove(ctx context.Context, requester model.User, targetID string) error {
	if !requester.IsOperator() {
		return ErrNotAuthorized
	}
	target, err := s.store.GetUserByID(ctx, targetID)
	if err != nil {
		return err
	}
	if s.protected != "" && target.Username == s.protected {
		return ErrProtected
	}
	if err := s.store.DeleteUser(ctx, targetID); err != nil {
		return err
	}
	slog.Info("user removed", "user_id", targetID, "by", requester.ID)
	return nil
}

// EnsureSeedOperator creates the configured operator account when it
// does not exist yet. Called once at startup; a present account is left
// untouched.
func (s *Identity) EnsureSeedOperator(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil
	}
	_, err := s.Register(ctx, username, password, model.RoleOperator)
	return err
}
