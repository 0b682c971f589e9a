package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/search"
)

const defaultSearchLimit = 20

type SearchHandler struct {
	search *search.Service
}

func NewSearchHandler(svc *search.Service) *SearchHandler {
	return &SearchHandler{search: svc}
}

// Search runs ?q= across questions, answers, users and tags.
func (h *SearchHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		respondFail(c, http.StatusBadRequest, "search query is required")
		return
	}
	typ, ok := search.ParseType(c.Query("type"))
	if !ok {
		respondFail(c, http.StatusBadRequest, "type must be one of all, questions, answers, users, tags")
		return
	}

	page := forum.NewPage(queryInt(c, "page"), queryInt(c, "limit"), defaultSearchLimit)
	resp := h.search.Search(search.Query{Text: q, Type: typ, Limit: page.Limit, Offset: page.Offset()})
	respondPage(c, resp, page.Info(int64(resp.Total)))
}
