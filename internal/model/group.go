package model

import "time"

// Group mirrors the `chat_groups` table plus its membership rows from
// `group_members`. Membership is a set: adding the same user twice has
// no effect. The owner is always a member. A group is destroyed only by
// an explicit dissolve, which also purges every message in the group.
type Group struct {
	ID          string    // chat_groups.id
	Name        string    // chat_groups.name
	Description string    // chat_groups.description
	OwnerID     string    // chat_groups.owner_id
	Members     []string  // group_members.user_id for this group
	InviteCode  string    // chat_groups.invite_code (6 chars, uppercase)
	CreatedAt   time.Time // chat_groups.created_at
}

// HasMember reports whether userID belongs to the group.
func (g Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
