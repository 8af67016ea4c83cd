package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/famlink/internal/service"
)

// AdminHandler exposes the operator-only administrative surface. The
// router additionally gates these routes with RequireRole(OPERATOR);
// the service re-checks so the rule holds even if wiring changes.
type AdminHandler struct {
	Identity *service.Identity
}

func NewAdminHandler(identity *service.Identity) *AdminHandler {
	return &AdminHandler{Identity: identity}
}

// ListUsers returns every account.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	me, err := currentUser(ctx, c, h.Identity)
	if err != nil {
		return fail(c, err)
	}
	users, err := h.Identity.List(ctx, me)
	if err != nil {
		return fail(c, err)
	}
	out := make([]userPart, len(users))
	for i, u := range users {
		out[i] = toUserPart(u)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// DeleteUser removes another account. The seed operator is protected.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	me, err := currentUser(ctx, c, h.Identity)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Identity.Remove(ctx, me, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
