package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/famlink/internal/model"
	"github.com/iliyamo/famlink/internal/notify"
	"github.com/iliyamo/famlink/internal/store"
	"github.com/iliyamo/famlink/internal/store/memory"
)

// captureNotifier records every change for assertions.
type captureNotifier struct {
	mu      sync.Mutex
	changes []notify.Change
}

func (n *captureNotifier) NotifyUsers(_ context.Context, _ []string, ch notify.Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, ch)
}

func (n *captureNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.changes))
	for i, ch := range n.changes {
		out[i] = ch.Kind
	}
	return out
}

type registryFixture struct {
	st       *memory.Store
	identity *Identity
	registry *Registry
	notes    *captureNotifier
}

func newRegistryFixture() *registryFixture {
	st := memory.New()
	notes := &captureNotifier{}
	return &registryFixture{
		st:       st,
		identity: NewIdentity(st, bcrypt.MinCost, "", testPublisher()),
		registry: NewRegistry(st, st, notes, testPublisher()),
		notes:    notes,
	}
}

func (f *registryFixture) user(t *testing.T, name, role string) model.User {
	t.Helper()
	u, err := f.identity.Register(context.Background(), name, "pw", role)
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return u
}

var inviteCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture()
	alice := f.user(t, "alice", model.RoleMember)

	g, err := f.registry.Create(ctx, "Campout", "weekend trip", alice.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if g.OwnerID != alice.ID {
		t.Errorf("expected owner %q, got %q", alice.ID, g.OwnerID)
	}
	if len(g.Members) != 1 || !g.HasMember(alice.ID) {
		t.Errorf("expected members to be exactly the owner, got %v", g.Members)
	}
	if !inviteCodePattern.MatchString(g.InviteCode) {
		t.Errorf("invite code %q is not 6 uppercase alphanumerics", g.InviteCode)
	}

	if _, err := f.registry.Create(ctx, "  ", "", alice.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank name, got %v", err)
	}
}

func TestJoinGroup(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture()
	alice := f.user(t, "alice", model.RoleMember)
	bob := f.user(t, "bob", model.RoleMember)

	g, err := f.registry.Create(ctx, "Campout", "", alice.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	joined, err := f.registry.Join(ctx, g.InviteCode, bob.ID)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !joined.HasMember(bob.ID) {
		t.Error("expected bob in members after join")
	}

	t.Run("idempotent", func(t *testing.T) {
		again, err := f.registry.Join(ctx, g.InviteCode, bob.ID)
		if err != nil {
			t.Fatalf("second Join failed: %v", err)
		}
		count := 0
		for _, m := range again.Members {
			if m == bob.ID {
				count++
			}
		}
		if count != 1 {
			t.Errorf("expected bob exactly once in members, got %d", count)
		}
	})

	t.Run("lowercase code accepted", func(t *testing.T) {
		carol := f.user(t, "carol", model.RoleMember)
		joined, err := f.registry.Join(ctx, "  "+lower(g.InviteCode)+" ", carol.ID)
		if err != nil {
			t.Fatalf("Join with lowercase code failed: %v", err)
		}
		if !joined.HasMember(carol.ID) {
			t.Error("expected carol in members")
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		if _, err := f.registry.Join(ctx, "NOTACODE", bob.ID); !errors.Is(err, ErrInvalidInviteCode) {
			t.Fatalf("expected ErrInvalidInviteCode, got %v", err)
		}
	})
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func TestDissolveGroup(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture()
	alice := f.user(t, "alice", model.RoleMember)
	bob := f.user(t, "bob", model.RoleMember)
	op := f.user(t, "root", model.RoleOperator)

	g, _ := f.registry.Create(ctx, "Campout", "", alice.ID)
	if _, err := f.registry.Join(ctx, g.InviteCode, bob.ID); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	seedMessage(t, f.st, g.ID, alice)

	t.Run("non-owner non-operator denied", func(t *testing.T) {
		if err := f.registry.Dissolve(ctx, g.ID, bob); !errors.Is(err, ErrNotAuthorized) {
			t.Fatalf("expected ErrNotAuthorized, got %v", err)
		}
		if _, err := f.st.GetGroup(ctx, g.ID); err != nil {
			t.Fatalf("group should be intact after denied dissolve: %v", err)
		}
	})

	t.Run("owner dissolves, messages purged", func(t *testing.T) {
		if err := f.registry.Dissolve(ctx, g.ID, alice); err != nil {
			t.Fatalf("Dissolve failed: %v", err)
		}
		if _, err := f.st.GetGroup(ctx, g.ID); !errors.Is(err, store.ErrGroupNotFound) {
			t.Fatalf("expected ErrGroupNotFound, got %v", err)
		}
		msgs, err := f.st.ListMessagesForGroup(ctx, g.ID)
		if err != nil {
			t.Fatalf("ListMessagesForGroup failed: %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("expected no messages after dissolve, got %d", len(msgs))
		}
	})

	t.Run("operator may dissolve someone else's group", func(t *testing.T) {
		g2, _ := f.registry.Create(ctx, "Book club", "", alice.ID)
		if err := f.registry.Dissolve(ctx, g2.ID, op); err != nil {
			t.Fatalf("operator Dissolve failed: %v", err)
		}
	})
}

func TestListForUser(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture()
	alice := f.user(t, "alice", model.RoleMember)
	bob := f.user(t, "bob", model.RoleMember)
	op := f.user(t, "root", model.RoleOperator)

	gA, _ := f.registry.Create(ctx, "Campout", "", alice.ID)
	gB, _ := f.registry.Create(ctx, "Dinner", "", bob.ID)

	aliceGroups, err := f.registry.ListForUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(aliceGroups) != 1 || aliceGroups[0].ID != gA.ID {
		t.Errorf("expected alice to see only her group, got %v", aliceGroups)
	}

	t.Run("operator sees every group", func(t *testing.T) {
		all, err := f.registry.ListForUser(ctx, op)
		if err != nil {
			t.Fatalf("ListForUser failed: %v", err)
		}
		ids := map[string]bool{}
		for _, g := range all {
			ids[g.ID] = true
		}
		if !ids[gA.ID] || !ids[gB.ID] {
			t.Errorf("expected operator to see both groups, got %v", ids)
		}
	})
}

func TestChangeNotifications(t *testing.T) {
	ctx := context.Background()
	f := newRegistryFixture()
	alice := f.user(t, "alice", model.RoleMember)
	bob := f.user(t, "bob", model.RoleMember)

	g, _ := f.registry.Create(ctx, "Campout", "", alice.ID)
	_, _ = f.registry.Join(ctx, g.InviteCode, bob.ID)
	_ = f.registry.Dissolve(ctx, g.ID, alice)

	want := []string{notify.KindGroupCreated, notify.KindMemberJoined, notify.KindGroupDissolved}
	got := f.notes.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected %d notifications, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
