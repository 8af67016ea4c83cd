package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/famlink/internal/model"
	"github.com/iliyamo/famlink/internal/notify"
	"github.com/iliyamo/famlink/internal/queue"
	"github.com/iliyamo/famlink/internal/store"
	"github.com/iliyamo/famlink/internal/utils"
)

// inviteCodeAttempts caps re-rolls on invite-code collision before the
// store error is surfaced. With a 36^6 code space a second collision in
// a row already means something is badly wrong.
const inviteCodeAttempts = 5

// Registry owns groups and their membership: creation, join-by-code,
// listing and the dissolve cascade.
type Registry struct {
	groups   store.GroupStore
	messages store.MessageStore
	notifier notify.Notifier
	events   *queue.Publisher
}

// NewRegistry creates a Registry. notifier may be notify.Nop{}.
func NewRegistry(groups store.GroupStore, messages store.MessageStore, notifier notify.Notifier, events *queue.Publisher) *Registry {
	return &Registry{groups: groups, messages: messages, notifier: notifier, events: events}
}

// Create makes a new group owned by ownerID, who becomes its sole
// member. The invite code is re-rolled when it collides with an
// existing group's code.
func (s *Registry) Create(ctx context.Context, name, description, ownerID string) (model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Group{}, fmt.Errorf("%w: group name required", ErrValidation)
	}

	g := model.Group{
		ID:          utils.NewID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
		Members:     []string{ownerID},
	}
	for attempt := 0; ; attempt++ {
		code, err := utils.NewInviteCode()
		if err != nil {
			return model.Group{}, err
		}
		g.InviteCode = code
		err = s.groups.CreateGroup(ctx, &g)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrInviteCodeTaken) && attempt < inviteCodeAttempts-1 {
			continue
		}
		return model.Group{}, err
	}
	slog.Info("group created", "group_id", g.ID, "name", g.Name, "owner_id", ownerID)

	s.notifier.NotifyUsers(ctx, g.Members, notify.Change{Kind: notify.KindGroupCreated, GroupID: g.ID})
	return g, nil
}

// Get returns a group visible to the requester: a member or an
// operator. Everyone else gets ErrNotAuthorized.
func (s *Registry) Get(ctx context.Context, groupID string, requester model.User) (model.Group, error) {
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return model.Group{}, err
	}
	if !g.HasMember(requester.ID) && !requester.IsOperator() {
		return model.Group{}, ErrNotAuthorized
	}
	return g, nil
}

// FindByInviteCode looks a group up by code, normalized to uppercase.
// A miss is ErrInvalidInviteCode.
func (s *Registry) FindByInviteCode(ctx context.Context, code string) (model.Group, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	g, err := s.groups.GetGroupByInviteCode(ctx, code)
	if errors.Is(err, store.ErrGroupNotFound) {
		return model.Group{}, ErrInvalidInviteCode
	}
	return g, err
}

// Join adds userID to the group behind the invite code. Joining a group
// the user already belongs to is a successful no-op, not an error, so
// two devices racing on the same code both succeed.
func (s *Registry) Join(ctx context.Context, code, userID string) (model.Group, error) {
	g, err := s.FindByInviteCode(ctx, code)
	if err != nil {
		return model.Group{}, err
	}
	if g.HasMember(userID) {
		return g, nil
	}
	if err := s.groups.AddMember(ctx, g.ID, userID); err != nil {
		if errors.Is(err, store.ErrGroupNotFound) {
			// Dissolved between lookup and join; same answer as a bad code.
			return model.Group{}, ErrInvalidInviteCode
		}
		return model.Group{}, err
	}
	g, err = s.groups.GetGroup(ctx, g.ID)
	if err != nil {
		return model.Group{}, err
	}
	slog.Info("member joined", "group_id", g.ID, "user_id", userID)

	s.notifier.NotifyUsers(ctx, g.Members, notify.Change{Kind: notify.KindMemberJoined, GroupID: g.ID})
	return g, nil
}

// Dissolve irreversibly removes a group and purges its messages. Only
// the owner or an operator may dissolve; anyone else gets
// ErrNotAuthorized and the group is left intact.
func (s *Registry) Dissolve(ctx context.Context, groupID string, requester model.User) error {
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID != requester.ID && !requester.IsOperator() {
		return ErrNotAuthorized
	}
	if err := s.groups.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	if err := s.messages.PurgeMessagesForGroup(ctx, groupID); err != nil {
		// The group row is already gone, so the leftovers are
		// unreachable; log and move on.
		slog.Warn("message purge failed after dissolve", "group_id", groupID, "error", err)
	}
	slog.Info("group dissolved", "group_id", groupID, "name", g.Name, "by", requester.ID)

	s.notifier.NotifyUsers(ctx, g.Members, notify.Change{Kind: notify.KindGroupDissolved, GroupID: groupID})
	_ = s.events.Publish(ctx, queue.ActivityEvent{
		Type:       queue.TypeGroupDissolved,
		GroupID:    groupID,
		GroupName:  g.Name,
		UserID:     requester.ID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// ListForUser returns the requester's groups. Operators receive every
// group in existence; that is the documented administrative override,
// not an accident.
func (s *Registry) ListForUser(ctx context.Context, requester model.User) ([]model.Group, error) {
	if requester.IsOperator() {
		return s.groups.ListAllGroups(ctx)
	}
	return s.groups.ListGroupsForUser(ctx, requester.ID)
}
