package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"academy/internal/notify"
)

// EventsHandler streams lifecycle events over a websocket.
type EventsHandler struct {
	Hub    *notify.Hub
	Logger *zap.Logger
	// OriginPatterns lists hosts allowed to open cross-origin sockets.
	OriginPatterns []string
}

func (h *EventsHandler) Register(user *gin.RouterGroup) {
	user.GET("/ws/events", h.stream)
}

// @Summary Live question and leaderboard events (websocket)
// @Tags events
// @Router /api/ws/events [get]
func (h *EventsHandler) stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{OriginPatterns: h.OriginPatterns})
	if err != nil {
		// Accept already wrote the HTTP error.
		return
	}
	defer conn.CloseNow()

	events, cancel := h.Hub.Subscribe(64)
	defer cancel()

	// Clients only listen; CloseRead handles pings and the close frame.
	ctx := conn.CloseRead(c.Request.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(wctx, conn, ev)
			wcancel()
			if err != nil {
				if h.Logger != nil && !errors.Is(err, context.Canceled) {
					h.Logger.Debug("ws write failed", zap.Error(err))
				}
				return
			}
		}
	}
}
