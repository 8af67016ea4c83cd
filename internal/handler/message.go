package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/famlink/internal/model"
	"github.com/iliyamo/famlink/internal/service"
)

// MessageHandler exposes the per-group message log over HTTP.
type MessageHandler struct {
	Identity *service.Identity
	Messages *service.MessageLog
}

func NewMessageHandler(identity *service.Identity, messages *service.MessageLog) *MessageHandler {
	return &MessageHandler{Identity: identity, Messages: messages}
}

type sendMessageReq struct {
	Text           string `json:"text"`
	AttachmentURL  string `json:"attachment_url"`
	AttachmentKind string `json:"attachment_kind"`
}

// attachment builds the optional attachment reference from the request.
// The URL comes from a prior POST /v1/uploads; an unknown kind is
// stored as a plain file.
func (r sendMessageReq) attachment() *model.Attachment {
	url := strings.TrimSpace(r.AttachmentURL)
	if url == "" {
		return nil
	}
	kind := r.AttachmentKind
	switch kind {
	case model.AttachmentImage, model.AttachmentVideo, model.AttachmentFile:
	default:
		kind = model.AttachmentFile
	}
	return &model.Attachment{URL: url, Kind: kind}
}

// List returns the group's messages in ascending timestamp order.
func (h *MessageHandler) List(c echo.Context) error {
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
	out := make([]messagePart, len(msgs))
	for i, m := range msgs {
		out[i] = toMessagePart(m)
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": out})
}

// Send appends a message to the group. Members only.
func (h *MessageHandler) Send(c echo.Context) error {
	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	me, err := currentUser(ctx, c, h.Identity)
	if err != nil {
		return fail(c, err)
	}
	m, err := h.Messages.Append(ctx, c.Param("id"), me, req.Text, req.attachment())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toMessagePart(m))
}
