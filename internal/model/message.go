package model

import "time"

// Attachment media kinds as stored in messages.attachment_kind.
const (
	AttachmentImage = "image"
	AttachmentVideo = "video"
	AttachmentFile  = "file"
)

// Attachment is an uploaded media object referenced by a message. The
// URL is durable; Kind is a coarse classification used by clients to
// pick a renderer.
type Attachment struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// Message mirrors the `messages` table. Messages are immutable once
// created and are deleted only when their group is dissolved.
// SenderName is a denormalized snapshot of the sender's username at
// send time; a later rename does not rewrite history.
type Message struct {
	ID         string      // messages.id
	GroupID    string      // messages.group_id
	SenderID   string      // messages.sender_id
	SenderName string      // messages.sender_name
	Text       string      // messages.text
	Attachment *Attachment // messages.attachment_url / attachment_kind (nullable)
	CreatedAt  time.Time   // messages.created_at
}
