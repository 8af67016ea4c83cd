package mysql

import (
	"context"
	"database/sql"

	"github.com/iliyamo/famlink/internal/model"
)

// AppendMessage inserts a message row. Attachment columns stay NULL for
// plain text messages.
func (s *Store) AppendMessage(ctx context.Context, m *model.Message) error {
	var attURL, attKind any
	if m.Attachment != nil {
		attURL, attKind = m.Attachment.URL, m.Attachment.Kind
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (id, group_id, sender_id, sender_name, text, attachment_url, attachment_kind, created_at) VALUES (?,?,?,?,?,?,?,?)",
		m.ID, m.GroupID, m.SenderID, m.SenderName, m.Text, attURL, attKind, m.CreatedAt.UTC())
	return err
}

// ListMessagesForGroup returns the group's messages ascending by
// timestamp, id as tiebreak. Unknown groups yield an empty slice.
func (s *Store) ListMessagesForGroup(ctx context.Context, groupID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id,group_id,sender_id,sender_name,text,attachment_url,attachment_kind,created_at FROM messages WHERE group_id=? ORDER BY created_at, id",
		groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var (
			m       model.Message
			attURL  sql.NullString
			attKind sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.GroupID, &m.SenderID, &m.SenderName, &m.Text, &attURL, &attKind, &m.CreatedAt); err != nil {
			return nil, err
		}
		if attURL.Valid {
			m.Attachment = &model.Attachment{URL: attURL.String, Kind: attKind.String}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PurgeMessagesForGroup deletes every message of a group. Called by the
// registry right after DeleteGroup as part of the dissolve cascade.
func (s *Store) PurgeMessagesForGroup(ctx context.Context, groupID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE group_id=?", groupID)
	return err
}
