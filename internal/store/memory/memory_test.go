package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/famlink/internal/model"
	"github.com/iliyamo/famlink/internal/store"
)

func TestUserUniqueness(t *testing.T) {
	ctx := context.Background()
	st := New()

	u := &model.User{ID: "u1", Username: "alice", PasswordHash: "x", Role: model.RoleMember}
	if err := st.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	dup := &model.User{ID: "u2", Username: "alice"}
	if err := st.CreateUser(ctx, dup); !errors.Is(err, store.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	if err := st.UpdateUsername(ctx, "u1", "alice2"); err != nil {
		t.Fatalf("UpdateUsername failed: %v", err)
	}
	if _, err := st.GetUserByUsername(ctx, "alice"); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("old username should be free, got %v", err)
	}
	got, err := st.GetUserByUsername(ctx, "alice2")
	if err != nil || got.ID != "u1" {
		t.Fatalf("lookup by new username: %v (%+v)", err, got)
	}
}

func TestGroupInviteCodeUniqueness(t *testing.T) {
	ctx := context.Background()
	st := New()

	g := &model.Group{ID: "g1", Name: "one", OwnerID: "u1", Members: []string{"u1"}, InviteCode: "AAAAAA"}
	if err := st.CreateGroup(ctx, g); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	clash := &model.Group{ID: "g2", Name: "two", OwnerID: "u2", Members: []string{"u2"}, InviteCode: "AAAAAA"}
	if err := st.CreateGroup(ctx, clash); !errors.Is(err, store.ErrInviteCodeTaken) {
		t.Fatalf("expected ErrInviteCodeTaken, got %v", err)
	}

	// The code is released when the group goes away.
	if err := st.DeleteGroup(ctx, "g1"); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}
	if err := st.CreateGroup(ctx, clash); err != nil {
		t.Fatalf("expected freed code to be reusable, got %v", err)
	}
}

func TestAddMemberIdempotent(t *testing.T) {
	ctx := context.Background()
	st := New()

	g := &model.Group{ID: "g1", Name: "one", OwnerID: "u1", Members: []string{"u1"}, InviteCode: "AAAAAA"}
	if err := st.CreateGroup(ctx, g); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := st.AddMember(ctx, "g1", "u2"); err != nil {
			t.Fatalf("AddMember round %d failed: %v", i, err)
		}
	}
	got, _ := st.GetGroup(ctx, "g1")
	if len(got.Members) != 2 {
		t.Errorf("expected 2 members, got %v", got.Members)
	}

	if err := st.AddMember(ctx, "missing", "u2"); !errors.Is(err, store.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	st := New()

	g := &model.Group{ID: "g1", Name: "one", OwnerID: "u1", Members: []string{"u1"}, InviteCode: "AAAAAA"}
	_ = st.CreateGroup(ctx, g)

	got, _ := st.GetGroup(ctx, "g1")
	got.Members[0] = "tampered"

	fresh, _ := st.GetGroup(ctx, "g1")
	if fresh.Members[0] != "u1" {
		t.Error("mutating a returned group must not change stored state")
	}
}

func TestMessageOrdering(t *testing.T) {
	ctx := context.Background()
	st := New()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Insert out of order on purpose.
	for _, m := range []model.Message{
		{ID: "m2", GroupID: "g1", Text: "second", CreatedAt: base.Add(time.Second)},
		{ID: "m1", GroupID: "g1", Text: "first", CreatedAt: base},
		{ID: "m3", GroupID: "g1", Text: "third", CreatedAt: base.Add(2 * time.Second)},
	} {
		m := m
		if err := st.AppendMessage(ctx, &m); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	msgs, err := st.ListMessagesForGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("ListMessagesForGroup failed: %v", err)
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if msgs[i].Text != w {
			t.Errorf("position %d: expected %q, got %q", i, w, msgs[i].Text)
		}
	}

	if err := st.PurgeMessagesForGroup(ctx, "g1"); err != nil {
		t.Fatalf("PurgeMessagesForGroup failed: %v", err)
	}
	msgs, _ = st.ListMessagesForGroup(ctx, "g1")
	if len(msgs) != 0 {
		t.Errorf("expected empty log after purge, got %d", len(msgs))
	}
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()
	st := New()

	exp := time.Now().UTC().Add(time.Hour)
	if err := st.StoreRefresh(ctx, "u1", "hash1", exp); err != nil {
		t.Fatalf("StoreRefresh failed: %v", err)
	}
	uid, err := st.ValidateRefresh(ctx, "hash1")
	if err != nil || uid != "u1" {
		t.Fatalf("ValidateRefresh: %v (uid=%q)", err, uid)
	}

	if err := st.RevokeByHash(ctx, "hash1"); err != nil {
		t.Fatalf("RevokeByHash failed: %v", err)
	}
	if _, err := st.ValidateRefresh(ctx, "hash1"); !errors.Is(err, store.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound after revoke, got %v", err)
	}

	// Expired tokens don't validate.
	_ = st.StoreRefresh(ctx, "u1", "hash2", time.Now().UTC().Add(-time.Minute))
	if _, err := st.ValidateRefresh(ctx, "hash2"); !errors.Is(err, store.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound for expired token, got %v", err)
	}
}
