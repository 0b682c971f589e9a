package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/middleware"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

type TagHandler struct {
	forum *forum.Service
}

func NewTagHandler(svc *forum.Service) *TagHandler {
	return &TagHandler{forum: svc}
}

func (h *TagHandler) GetTags(c *gin.Context) {
	tags, page, err := h.forum.ListTags(c.Request.Context(), c.Query("search"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, tags, page)
}

func (h *TagHandler) CreateTag(c *gin.Context) {
	var input models.CreateTagRequest
	if !bindJSON(c, &input) {
		return
	}
	tag, err := h.forum.CreateTag(c.Request.Context(), middleware.CurrentActor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "tag created", tag)
}
