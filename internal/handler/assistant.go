package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/famlink/internal/assistant"
	"github.com/iliyamo/famlink/internal/service"
)

// AssistantHandler serves the advisory summary and icebreaker
// endpoints. Both degrade to static fallbacks when the text API is
// unreachable; only the membership checks can fail a request.
type AssistantHandler struct {
	Identity *service.Identity
	Registry *service.Registry
	Messages *service.MessageLog
	Client   *assistant.Client
}

func NewAssistantHandler(identity *service.Identity, registry *service.Registry, messages *service.MessageLog, client *assistant.Client) *AssistantHandler {
	return &AssistantHandler{Identity: identity, Registry: registry, Messages: messages, Client: client}
}

// Summary returns a short synopsis of the group's recent messages.
func (h *AssistantHandler) Summary(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	me, err := currentUser(ctx, c, h.Identity)
	if err != nil {
		return fail(c, err)
	}
	msgs, err := h.Messages.ListForGroup(ctx, c.Param("id"), me)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"summary": h.Client.SummarizeChat(c.Request().Context(), msgs)})
}

// Icebreaker suggests a conversation opener for the group.
func (h *AssistantHandler) Icebreaker(c echo.Context) error {
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
	return c.JSON(http.StatusOK, echo.Map{"icebreaker": h.Client.ConversationStarter(c.Request().Context(), g.Name)})
}
