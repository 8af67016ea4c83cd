package service

import (
	"context"
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

// MessageLog owns the append-only per-group message sequence.
type MessageLog struct {
	messages store.MessageStore
	groups   store.GroupStore
	notifier notify.Notifier
	events   *queue.Publisher
}

// NewMessageLog creates a MessageLog. notifier may be notify.Nop{}.
func NewMessageLog(messages store.MessageStore, groups store.GroupStore, notifier notify.Notifier, events *queue.Publisher) *MessageLog {
	return &MessageLog{messages: messages, groups: groups, notifier: notifier, events: events}
}

// Append sends a message from sender to the group. The sender must be a
// member at send time; the message snapshots the sender's current
// username so later renames do not rewrite history. A send racing a
// dissolve may find the group gone and fails with ErrGroupNotFound,
// which is the same outcome as the message being purged with the group.
func (s *MessageLog) Append(ctx context.Context, groupID string, sender model.User, text string, attachment *model.Attachment) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && attachment == nil {
		return model.Message{}, fmt.Errorf("%w: empty message", ErrValidation)
	}
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return model.Message{}, err
	}
	if !g.HasMember(sender.ID) {
		return model.Message{}, ErrNotAuthorized
	}

	m := model.Message{
		ID:         utils.NewID(),
		GroupID:    groupID,
		SenderID:   sender.ID,
		SenderName: sender.Username,
		Text:       text,
		Attachment: attachment,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.messages.AppendMessage(ctx, &m); err != nil {
		return model.Message{}, err
	}
	slog.Debug("message appended", "group_id", groupID, "message_id", m.ID)

	s.notifier.NotifyUsers(ctx, g.Members, notify.Change{Kind: notify.KindMessagePosted, GroupID: groupID})
	_ = s.events.Publish(ctx, queue.ActivityEvent{
		Type:       queue.TypeMessagePosted,
		GroupID:    groupID,
		MessageID:  m.ID,
		SenderName: m.SenderName,
		OccurredAt: m.CreatedAt.Format(time.RFC3339),
	})
	return m, nil
}

// ListForGroup returns the group's messages in ascending timestamp
// order (ties broken by id). The requester must be a member or an
// operator. A dissolved group yields ErrGroupNotFound.
func (s *MessageLog) ListForGroup(ctx context.Context, groupID string, requester model.User) ([]model.Message, error) {
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.HasMember(requester.ID) && !requester.IsOperator() {
		return nil, ErrNotAuthorized
	}
	return s.messages.ListMessagesForGroup(ctx, groupID)
}
