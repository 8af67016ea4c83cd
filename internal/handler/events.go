package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/famlink/internal/notify"
)

// EventsHandler streams the authenticated user's change feed as
// server-sent events. Payloads are re-fetch hints only; a client that
// misses events (reconnect, dropped Redis) simply re-fetches its
// collections, so the stream needs no replay or ordering guarantees.
type EventsHandler struct {
	Notifier *notify.RedisNotifier
}

func NewEventsHandler(notifier *notify.RedisNotifier) *EventsHandler {
	return &EventsHandler{Notifier: notifier}
}

// Stream subscribes to the caller's channel and forwards each change as
// one SSE data frame until the client disconnects.
func (h *EventsHandler) Stream(c echo.Context) error {
	sub := h.Notifier.Subscribe(c.Request().Context(), authedUserID(c))
	if sub == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "change feed unavailable"})
	}
	defer sub.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", msg.Payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
