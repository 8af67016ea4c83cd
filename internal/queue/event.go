// Package queue defines message payloads exchanged over the message broker.
package queue

// ActivityQueueName is the durable queue carrying domain activity events.
const ActivityQueueName = "famlink.activity"

// Event types carried in ActivityEvent.Type.
const (
	TypeUserRegistered = "user.registered"
	TypeMessagePosted  = "message.posted"
	TypeGroupDissolved = "group.dissolved"
)

// ActivityEvent is published after a domain mutation commits. It
// contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database. Fields
// not relevant to a given type are left empty.
type ActivityEvent struct {
	Type       string `json:"type"`
	UserID     string `json:"user_id,omitempty"`
	Username   string `json:"username,omitempty"`
	GroupID    string `json:"group_id,omitempty"`
	GroupName  string `json:"group_name,omitempty"`
	MessageID  string `json:"message_id,omitempty"`
	SenderName string `json:"sender_name,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
