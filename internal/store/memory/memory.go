// Package memory implements the store contract with in-process maps.
// It backs the test suite and DB-less local runs. All methods are safe
// for concurrent use; returned records are copies, so callers cannot
// mutate stored state through them.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/famlink/internal/model"
	"github.com/iliyamo/famlink/internal/store"
)

type refreshRow struct {
	userID    string
	expiresAt time.Time
	revoked   bool
}

// Store holds every collection behind a single mutex. The domain is
// small enough that finer locking buys nothing.
type Store struct {
	mu       sync.Mutex
	users    map[string]model.User        // by id
	byName   map[string]string            // username -> id
	groups   map[string]model.Group       // by id
	byCode   map[string]string            // invite code -> group id
	messages map[string][]model.Message   // by group id, append order
	tokens   map[string]refreshRow        // by token hash
}

var _ store.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[string]model.User),
		byName:   make(map[string]string),
		groups:   make(map[string]model.Group),
		byCode:   make(map[string]string),
		messages: make(map[string][]model.Message),
		tokens:   make(map[string]refreshRow),
	}
}

// Close is a no-op for the in-memory adapter.
func (s *Store) Close() error { return nil }

// ----- users -----

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[u.Username]; ok {
		return store.ErrUsernameTaken
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = *u
	s.byName[u.Username] = u.ID
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[username]
	if !ok {
		return model.User{}, store.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) UpdateUsername(_ context.Context, id, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	if other, ok := s.byName[username]; ok && other != id {
		return store.ErrUsernameTaken
	}
	delete(s.byName, u.Username)
	u.Username = username
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	s.byName[username] = id
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	delete(s.users, id)
	delete(s.byName, u.Username)
	return nil
}

// ----- groups -----

func (s *Store) CreateGroup(_ context.Context, g *model.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCode[g.InviteCode]; ok {
		return store.ErrInviteCodeTaken
	}
	g.CreatedAt = time.Now().UTC()
	cp := *g
	cp.Members = append([]string(nil), g.Members...)
	s.groups[g.ID] = cp
	s.byCode[g.InviteCode] = g.ID
	return nil
}

func copyGroup(g model.Group) model.Group {
	g.Members = append([]string(nil), g.Members...)
	return g
}

func (s *Store) GetGroup(_ context.Context, id string) (model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return model.Group{}, store.ErrGroupNotFound
	}
	return copyGroup(g), nil
}

func (s *Store) GetGroupByInviteCode(_ context.Context, code string) (model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byCode[code]
	if !ok {
		return model.Group{}, store.ErrGroupNotFound
	}
	return copyGroup(s.groups[id]), nil
}

func (s *Store) AddMember(_ context.Context, groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return store.ErrGroupNotFound
	}
	for _, m := range g.Members {
		if m == userID {
			return nil // already a member, idempotent
		}
	}
	g.Members = append(append([]string(nil), g.Members...), userID)
	s.groups[groupID] = g
	return nil
}

func (s *Store) sortedGroups(keep func(model.Group) bool) []model.Group {
	var out []model.Group
	for _, g := range s.groups {
		if keep(g) {
			out = append(out, copyGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) ListGroupsForUser(_ context.Context, userID string) ([]model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedGroups(func(g model.Group) bool { return g.HasMember(userID) }), nil
}

func (s *Store) ListAllGroups(_ context.Context) ([]model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedGroups(func(model.Group) bool { return true }), nil
}

func (s *Store) DeleteGroup(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return store.ErrGroupNotFound
	}
	delete(s.groups, id)
	delete(s.byCode, g.InviteCode)
	return nil
}

// ----- messages -----

func (s *Store) AppendMessage(_ context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	if m.Attachment != nil {
		att := *m.Attachment
		cp.Attachment = &att
	}
	s.messages[m.GroupID] = append(s.messages[m.GroupID], cp)
	return nil
}

func (s *Store) ListMessagesForGroup(_ context.Context, groupID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[groupID]
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	// Stable sort keeps insertion order for equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) PurgeMessagesForGroup(_ context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, groupID)
	return nil
}

// ----- refresh tokens -----

func (s *Store) StoreRefresh(_ context.Context, userID, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = refreshRow{userID: userID, expiresAt: exp}
	return nil
}

func (s *Store) ValidateRefresh(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.tokens[tokenHash]
	if !ok || row.revoked || time.Now().UTC().After(row.expiresAt) {
		return "", store.ErrTokenNotFound
	}
	return row.userID, nil
}

func (s *Store) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.tokens[tokenHash]; ok {
		row.revoked = true
		s.tokens[tokenHash] = row
	}
	return nil
}

func (s *Store) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, row := range s.tokens {
		if row.userID == userID {
			row.revoked = true
			s.tokens[h] = row
		}
	}
	return nil
}
