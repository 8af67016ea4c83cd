package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/famlink/internal/service"
)

// GroupHandler exposes the group registry over HTTP.
type GroupHandler struct {
	Identity *service.Identity
	Registry *service.Registry
}

func NewGroupHandler(identity *service.Identity, registry *service.Registry) *GroupHandler {
	return &GroupHandler{Identity: identity, Registry: registry}
}

type createGroupReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
type joinGroupReq struct {
	InviteCode string `json:"invite_code"`
}

// Create makes a new group owned by the caller.
func (h *GroupHandler) Create(c echo.Context) error {
	var req createGroupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Registry.Create(ctx, req.Name, req.Description, authedUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toGroupPart(g))
}

// List returns the caller's groups; operators see every group.
func (h *GroupHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	me, err := currentUser(ctx, c, h.Identity)
	if err != nil {
		return fail(c, err)
	}
	groups, err := h.Registry.ListForUser(ctx, me)
	if err != nil {
		return fail(c, err)
	}
	out := make([]groupPart, len(groups))
	for i, g := range groups {
		out[i] = toGroupPart(g)
	}
	return c.JSON(http.StatusOK, echo.Map{"groups": out})
}

// Get returns one group the caller may see.
func (h *GroupHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	me, err := currentUser(ctx, c, h.Identity)
	if err != nil {
		return fail(c, err)
	}
	g, err := h.Registry.Get(ctx, c.Param("id"), me)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toGroupPart(g))
}

// Join adds the caller to the group behind an invite code. Joining a
// group the caller already belongs to succeeds and returns the group.
func (h *GroupHandler) Join(c echo.Context) error {
	var req joinGroupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Registry.Join(ctx, req.InviteCode, authedUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toGroupPart(g))
}

// Dissolve irreversibly deletes a group and its messages. Owner or
// operator only.
func (h *GroupHandler) Dissolve(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	me, err := currentUser(ctx, c, h.Identity)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Registry.Dissolve(ctx, c.Param("id"), me); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
