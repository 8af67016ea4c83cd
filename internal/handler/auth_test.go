package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/famlink/internal/handler"
	"github.com/iliyamo/famlink/internal/notify"
	"github.com/iliyamo/famlink/internal/queue"
	"github.com/iliyamo/famlink/internal/router"
	"github.com/iliyamo/famlink/internal/service"
	"github.com/iliyamo/famlink/internal/store/memory"
)

const testSecret = "handler-test-secret"

// newTestAPI wires the HTTP surface over the in-memory store, the same
// shape main.go builds minus Redis, RabbitMQ and uploads.
func newTestAPI(t *testing.T) *echo.Echo {
	t.Helper()
	st := memory.New()
	events := &queue.Publisher{Disabled: true}

	identity := service.NewIdentity(st, bcrypt.MinCost, "", events)
	registry := service.NewRegistry(st, st, notify.Nop{}, events)
	messages := service.NewMessageLog(st, st, notify.Nop{}, events)
	sessions := service.NewSession(identity, st, testSecret, 15, 7)

	e := echo.New()
	router.RegisterAPI(e, router.Handlers{
		Auth:     handler.NewAuthHandler(sessions, identity),
		Groups:   handler.NewGroupHandler(identity, registry),
		Messages: handler.NewMessageHandler(identity, messages),
		Admin:    handler.NewAdminHandler(identity),
	}, testSecret)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

type authBody struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
	Access struct {
		Token string `json:"token"`
	} `json:"access"`
	Refresh struct {
		Token string `json:"token"`
	} `json:"refresh"`
}

func register(t *testing.T, e *echo.Echo, username, password string) authBody {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": username, "password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	var body authBody
	decode(t, rec, &body)
	return body
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestAPI(t)

	body := register(t, e, "alice", "hunter22")
	if body.User.Username != "alice" || body.User.Role != "MEMBER" {
		t.Errorf("unexpected user in register response: %+v", body.User)
	}
	if body.Access.Token == "" || body.Refresh.Token == "" {
		t.Error("expected both tokens in register response")
	}

	// Duplicate username answers 409.
	rec := doJSON(t, e, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "alice", "password": "other",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: expected 409, got %d", rec.Code)
	}

	// Correct credentials pass.
	rec = doJSON(t, e, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "alice", "password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}

	// Wrong password and unknown user produce the same 401.
	for _, creds := range []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "nobody", "password": "hunter22"},
	} {
		rec = doJSON(t, e, http.MethodPost, "/v1/auth/login", "", creds)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("login %v: expected 401, got %d", creds, rec.Code)
		}
	}
}

func TestMeRequiresToken(t *testing.T) {
	e := newTestAPI(t)
	body := register(t, e, "alice", "hunter22")

	rec := doJSON(t, e, http.MethodGet, "/v1/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/me", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/me", body.Access.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", rec.Code, rec.Body.String())
	}
	var me struct {
		Username string `json:"username"`
	}
	decode(t, rec, &me)
	if me.Username != "alice" {
		t.Errorf("expected alice, got %q", me.Username)
	}
}

func TestRefreshRotation(t *testing.T) {
	e := newTestAPI(t)
	body := register(t, e, "alice", "hunter22")

	rec := doJSON(t, e, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": body.Refresh.Token,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status %d body %s", rec.Code, rec.Body.String())
	}
	var next authBody
	decode(t, rec, &next)
	if next.Refresh.Token == body.Refresh.Token {
		t.Error("refresh must rotate the refresh token")
	}

	// The old token is dead after rotation.
	rec = doJSON(t, e, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": body.Refresh.Token,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("replayed refresh: expected 401, got %d", rec.Code)
	}
}

func TestGroupAndMessageFlowOverHTTP(t *testing.T) {
	e := newTestAPI(t)
	alice := register(t, e, "alice", "hunter22")
	bob := register(t, e, "bob", "sekret99")

	// Alice creates a group.
	rec := doJSON(t, e, http.MethodPost, "/v1/groups", alice.Access.Token, map[string]string{
		"name": "Campout", "description": "summer trip",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group: status %d body %s", rec.Code, rec.Body.String())
	}
	var group struct {
		ID         string `json:"id"`
		InviteCode string `json:"invite_code"`
	}
	decode(t, rec, &group)
	if len(group.InviteCode) != 6 {
		t.Fatalf("unexpected invite code %q", group.InviteCode)
	}

	// Bob cannot read it before joining.
	rec = doJSON(t, e, http.MethodGet, "/v1/groups/"+group.ID, bob.Access.Token, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-member get: expected 403, got %d", rec.Code)
	}

	// Bob joins by invite code.
	rec = doJSON(t, e, http.MethodPost, "/v1/groups/join", bob.Access.Token, map[string]string{
		"invite_code": group.InviteCode,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("join: status %d body %s", rec.Code, rec.Body.String())
	}

	// Alice posts, Bob reads.
	rec = doJSON(t, e, http.MethodPost, "/v1/groups/"+group.ID+"/messages", alice.Access.Token, map[string]string{
		"text": "hi bob",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, e, http.MethodGet, "/v1/groups/"+group.ID+"/messages", bob.Access.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list messages: status %d body %s", rec.Code, rec.Body.String())
	}
	var listed struct {
		Messages []struct {
			Text       string `json:"text"`
			SenderName string `json:"sender_name"`
		} `json:"messages"`
	}
	decode(t, rec, &listed)
	if len(listed.Messages) != 1 || listed.Messages[0].Text != "hi bob" || listed.Messages[0].SenderName != "alice" {
		t.Errorf("unexpected messages: %+v", listed.Messages)
	}

	// Bob is not the owner, so dissolving answers 403.
	rec = doJSON(t, e, http.MethodDelete, "/v1/groups/"+group.ID, bob.Access.Token, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner dissolve: expected 403, got %d", rec.Code)
	}

	// Alice dissolves; the group is gone for everyone.
	rec = doJSON(t, e, http.MethodDelete, "/v1/groups/"+group.ID, alice.Access.Token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("dissolve: status %d body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, e, http.MethodGet, "/v1/groups/"+group.ID, bob.Access.Token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after dissolve: expected 404, got %d", rec.Code)
	}
}

func TestAdminRoutesRequireOperator(t *testing.T) {
	e := newTestAPI(t)
	alice := register(t, e, "alice", "hunter22")

	rec := doJSON(t, e, http.MethodGet, "/v1/admin/users", alice.Access.Token, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("member on admin route: expected 403, got %d", rec.Code)
	}
}
