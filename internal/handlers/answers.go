package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/middleware"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

type AnswerHandler struct {
	forum *forum.Service
}

func NewAnswerHandler(svc *forum.Service) *AnswerHandler {
	return &AnswerHandler{forum: svc}
}

// GetAnswers lists answers, optionally for one question (?questionId=)
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	var questionID uint
	if raw := c.Query("questionId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondFail(c, http.StatusBadRequest, "invalid questionId")
			return
		}
		questionID = uint(id)
	}
	answers, page, err := h.forum.ListAnswers(c.Request.Context(), forum.ListAnswersParams{
		QuestionID: questionID,
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, answers, page)
}

func (h *AnswerHandler) GetAnswer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	a, err := h.forum.GetAnswer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", a)
}

// CreateAnswer posts an answer to an open question
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	var input models.CreateAnswerRequest
	if !bindJSON(c, &input) {
		return
	}
	a, err := h.forum.CreateAnswer(c.Request.Context(), middleware.CurrentActor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "answer created", a)
}

func (h *AnswerHandler) UpdateAnswer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateAnswerRequest
	if !bindJSON(c, &input) {
		return
	}
	a, err := h.forum.UpdateAnswer(c.Request.Context(), middleware.CurrentActor(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "answer updated", a)
}

// DeleteAnswer detaches and removes an answer (owner or admin)
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.forum.AuthorizeAnswer(ctx, middleware.CurrentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	if err := h.forum.DeleteAnswer(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "answer deleted", nil)
}

func (h *AnswerHandler) VoteAnswer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	castVote(c, h.forum, forum.Target{Type: models.TargetAnswer, ID: id})
}
