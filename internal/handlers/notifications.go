package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/middleware"
)

type NotificationHandler struct {
	forum *forum.Service
}

func NewNotificationHandler(svc *forum.Service) *NotificationHandler {
	return &NotificationHandler{forum: svc}
}

// GetNotifications lists the caller's notifications, newest first. ?unread=true
// restricts the list to unread ones.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	unread := c.Query("unread") == "true"
	list, page, err := h.forum.ListNotifications(c.Request.Context(), middleware.CurrentActor(c), unread, queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, list, page)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.forum.MarkNotificationRead(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "notification marked as read", nil)
}
