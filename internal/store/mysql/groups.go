package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/famlink/internal/model"
	"github.com/iliyamo/famlink/internal/store"
)

const groupCols = "id,name,description,owner_id,invite_code,created_at"

// CreateGroup inserts the group row and its initial membership rows in
// one transaction. A duplicate invite code is reported as
// store.ErrInviteCodeTaken so the registry can re-roll; the group id is
// caller-generated and assumed fresh.
func (s *Store) CreateGroup(ctx context.Context, g *model.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO chat_groups (id, name, description, owner_id, invite_code) VALUES (?,?,?,?,?)",
		g.ID, g.Name, g.Description, g.OwnerID, g.InviteCode)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrInviteCodeTaken
		}
		return err
	}
	for _, uid := range g.Members {
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO group_members (group_id, user_id) VALUES (?,?)",
			g.ID, uid); err != nil {
			return err
		}
	}
	if err := tx.QueryRowContext(ctx,
		"SELECT created_at FROM chat_groups WHERE id=?", g.ID).Scan(&g.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) scanGroup(ctx context.Context, row *sql.Row) (model.Group, error) {
	var g model.Group
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.OwnerID, &g.InviteCode, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return g, store.ErrGroupNotFound
	}
	if err != nil {
		return g, err
	}
	g.Members, err = s.members(ctx, g.ID)
	return g, err
}

// members loads the ordered member ids of a group.
func (s *Store) members(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id=? ORDER BY joined_at, user_id", groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// GetGroup fetches a group with its member set.
func (s *Store) GetGroup(ctx context.Context, id string) (model.Group, error) {
	return s.scanGroup(ctx, s.db.QueryRowContext(ctx,
		"SELECT "+groupCols+" FROM chat_groups WHERE id=? LIMIT 1", id))
}

// GetGroupByInviteCode fetches a group by exact invite code.
func (s *Store) GetGroupByInviteCode(ctx context.Context, code string) (model.Group, error) {
	return s.scanGroup(ctx, s.db.QueryRowContext(ctx,
		"SELECT "+groupCols+" FROM chat_groups WHERE invite_code=? LIMIT 1", code))
}

// AddMember inserts the membership row. INSERT IGNORE keeps the
// operation idempotent: joining twice leaves exactly one row.
func (s *Store) AddMember(ctx context.Context, groupID, userID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM chat_groups WHERE id=? LIMIT 1", groupID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrGroupNotFound
	}
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT IGNORE INTO group_members (group_id, user_id) VALUES (?,?)",
		groupID, userID)
	return err
}

// listGroups runs a query returning group rows and hydrates members.
func (s *Store) listGroups(ctx context.Context, query string, args ...any) ([]model.Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.OwnerID, &g.InviteCode, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Members, err = s.members(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListGroupsForUser returns groups whose member set contains userID.
func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]model.Group, error) {
	return s.listGroups(ctx, fmt.Sprintf(
		"SELECT %s FROM chat_groups WHERE id IN (SELECT group_id FROM group_members WHERE user_id=?) ORDER BY created_at, id",
		groupCols), userID)
}

// ListAllGroups returns every group (operator override).
func (s *Store) ListAllGroups(ctx context.Context) ([]model.Group, error) {
	return s.listGroups(ctx,
		"SELECT "+groupCols+" FROM chat_groups ORDER BY created_at, id")
}

// DeleteGroup removes the group and its membership rows in one
// transaction. The message purge is driven by the registry, which owns
// the dissolve cascade.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_members WHERE group_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM chat_groups WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrGroupNotFound
	}
	return tx.Commit()
}
