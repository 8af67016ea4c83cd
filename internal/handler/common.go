package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/famlink/internal/model"
	"github.com/iliyamo/famlink/internal/service"
	"github.com/iliyamo/famlink/internal/store"
)

// dbTimeout bounds every store call made on behalf of a request.
const dbTimeout = 5 * time.Second

// reqCtx derives a bounded context from the incoming request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// authedUserID returns the subject the JWT middleware stored in context.
func authedUserID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}

// currentUser resolves the full user record behind the verified token.
// The role is re-read from the store rather than trusted from the
// claim, so a demoted operator loses the override at the next request.
func currentUser(ctx context.Context, c echo.Context, identity *service.Identity) (model.User, error) {
	return identity.Get(ctx, authedUserID(c))
}

// fail translates domain errors into the JSON error responses the API
// promises. Anything unrecognized is reported as the store being
// unavailable; the domain core never retries on the caller's behalf.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, store.ErrUsernameTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "username already taken"})
	case errors.Is(err, service.ErrBadCredential), errors.Is(err, store.ErrTokenNotFound):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, service.ErrInvalidInviteCode):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid invite code"})
	case errors.Is(err, store.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, store.ErrGroupNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
	case errors.Is(err, service.ErrNotAuthorized), errors.Is(err, service.ErrProtected):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
}

// ----- shared response shapes -----

type userPart struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Username: u.Username, Role: u.Role, AvatarURL: u.AvatarURL}
}

type groupPart struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	OwnerID     string   `json:"owner_id"`
	Members     []string `json:"members"`
	InviteCode  string   `json:"invite_code"`
	CreatedAt   string   `json:"created_at"`
}

func toGroupPart(g model.Group) groupPart {
	return groupPart{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		OwnerID:     g.OwnerID,
		Members:     g.Members,
		InviteCode:  g.InviteCode,
		CreatedAt:   g.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type messagePart struct {
	ID         string            `json:"id"`
	GroupID    string            `json:"group_id"`
	SenderID   string            `json:"sender_id"`
	SenderName string            `json:"sender_name"`
	Text       string            `json:"text"`
	Attachment *model.Attachment `json:"attachment,omitempty"`
	CreatedAt  string            `json:"created_at"`
}

func toMessagePart(m model.Message) messagePart {
	return messagePart{
		ID:         m.ID,
		GroupID:    m.GroupID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Text:       m.Text,
		Attachment: m.Attachment,
		CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
