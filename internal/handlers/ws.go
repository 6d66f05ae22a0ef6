package handlers

import (
	"signlearn-service/internal/auth"
	"signlearn-service/internal/middleware"
	"signlearn-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WSHandler upgrades authenticated callers to a notification socket.
// Browsers cannot set headers on the upgrade, so the token may come as
// ?token= instead.
type WSHandler struct {
	Responder
	hub    *websocket.Hub
	policy *auth.Policy
}

func NewWSHandler(hub *websocket.Hub, policy *auth.Policy, r Responder) *WSHandler {
	return &WSHandler{Responder: r, hub: hub, policy: policy}
}

func (h *WSHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = auth.BearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		middleware.Abort(c, errTokenRequired)
		return
	}
	actor, err := h.policy.AuthorizeToken(c.Request.Context(), token, auth.Protected)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	conn, err := websocket.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.Logger.Info("websocket connected", zap.String("actor_id", actor.ID))
	websocket.NewClient(h.hub, conn, actor.ID, h.Logger).Serve()
}
