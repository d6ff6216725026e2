package handler

import (
	"QA_Community/internal/notify"
	"QA_Community/internal/pkg"

	"github.com/gin-gonic/gin"
)

type WSHandler struct {
	hub *notify.Hub
}

func NewWSHandler(hub *notify.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Serve 实时通道；username 用于私有收藏夹事件的过滤
func (h *WSHandler) Serve(c *gin.Context) {
	username := viewer(c, "username")
	if err := h.hub.ServeWS(c.Writer, c.Request, username); err != nil {
		pkg.Log(c.Request.Context()).WithError(err).Debug("websocket upgrade failed")
	}
}
