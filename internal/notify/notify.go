// Package notify carries change notifications from the domain services
// to connected clients. Notifications are hints, not state: a client
// that receives one re-fetches the affected collection from the API,
// so duplicated or reordered deliveries are harmless.
package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Change event kinds.
const (
	KindGroupCreated   = "group.created"
	KindMemberJoined   = "member.joined"
	KindGroupDissolved = "group.dissolved"
	KindMessagePosted  = "message.posted"
)

// Change is the payload published on a user's channel. GroupID tells
// the client which collection to re-fetch; the payload deliberately
// carries no record data.
type Change struct {
	Kind    string `json:"kind"`
	GroupID string `json:"group_id"`
}

// Notifier fans a change out to a set of users. Implementations must
// never block the mutation path on delivery problems.
type Notifier interface {
	// NotifyUsers delivers the change to every listed user, best effort.
	NotifyUsers(ctx context.Context, userIDs []string, ch Change)
}

// channelFor returns the pub/sub channel name of one user's feed.
func channelFor(userID string) string { return "famlink:changes:" + userID }

// RedisNotifier publishes changes on per-user Redis pub/sub channels.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier wraps a Redis client. A nil client yields a notifier
// that drops everything, matching the degrade-gracefully behavior of
// the rest of the Redis integrations.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

// NotifyUsers publishes the change to each user's channel. Failures are
// logged and swallowed; delivery is at-least-once only while Redis is
// reachable, and clients recover by re-fetching on reconnect.
func (n *RedisNotifier) NotifyUsers(ctx context.Context, userIDs []string, ch Change) {
	if n == nil || n.client == nil {
		return
	}
	body, err := json.Marshal(ch)
	if err != nil {
		log.Printf("notify: marshal change failed: %v", err)
		return
	}
	for _, uid := range userIDs {
		if err := n.client.Publish(ctx, channelFor(uid), body).Err(); err != nil {
			log.Printf("notify: publish to %s failed: %v", uid, err)
		}
	}
}

// Subscribe opens the pub/sub feed for one user. The caller owns the
// returned subscription and must Close it.
func (n *RedisNotifier) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	if n == nil || n.client == nil {
		return nil
	}
	return n.client.Subscribe(ctx, channelFor(userID))
}

// Nop is a Notifier that discards every change. Used in tests and when
// Redis is not configured.
type Nop struct{}

// NotifyUsers discards the change.
func (Nop) NotifyUsers(context.Context, []string, Change) {}
