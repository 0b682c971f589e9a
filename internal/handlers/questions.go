package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/middleware"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

type QuestionHandler struct {
	forum *forum.Service
}

func NewQuestionHandler(svc *forum.Service) *QuestionHandler {
	return &QuestionHandler{forum: svc}
}

func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	questions, page, err := h.forum.ListQuestions(c.Request.Context(), forum.ListQuestionsParams{
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
		Tag:       c.Query("tag"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, questions, page)
}

// GetQuestion returns a question with its answers and counts the view.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	detail, err := h.forum.GetQuestion(c.Request.Context(), id, middleware.CurrentActor(c).UserID, true)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", detail)
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var input models.CreateQuestionRequest
	if !bindJSON(c, &input) {
		return
	}
	q, err := h.forum.CreateQuestion(c.Request.Context(), middleware.CurrentActor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "question created", q)
}

// UpdateQuestion edits a question (owner or admin)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.UpdateQuestionRequest
	if !bindJSON(c, &input) {
		return
	}
	q, err := h.forum.UpdateQuestion(c.Request.Context(), middleware.CurrentActor(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "question updated", q)
}

// DeleteQuestion removes a question and everything hanging off it (owner or admin)
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.forum.AuthorizeQuestion(ctx, middleware.CurrentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	if err := h.forum.DeleteQuestion(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "question deleted", nil)
}

func (h *QuestionHandler) VoteQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	castVote(c, h.forum, forum.Target{Type: models.TargetQuestion, ID: id})
}

func (h *QuestionHandler) AcceptAnswer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.AcceptAnswerRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.forum.AcceptAnswer(c.Request.Context(), id, input.AnswerID, middleware.CurrentActor(c).UserID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "answer accepted", gin.H{"questionId": id, "acceptedAnswer": input.AnswerID})
}

func (h *QuestionHandler) UnacceptAnswer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.forum.UnacceptAnswer(c.Request.Context(), id, middleware.CurrentActor(c).UserID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "answer unaccepted", gin.H{"questionId": id, "acceptedAnswer": nil})
}

func (h *QuestionHandler) CloseQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.CloseQuestionRequest
	if !bindJSON(c, &input) {
		return
	}
	q, err := h.forum.CloseQuestion(c.Request.Context(), middleware.CurrentActor(c), id, input.Closed)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "question updated", q)
}

func castVote(c *gin.Context, svc *forum.Service, target forum.Target) {
	var input models.VoteRequest
	if !bindJSON(c, &input) {
		return
	}
	result, err := svc.CastVote(c.Request.Context(), middleware.CurrentActor(c).UserID, target, input.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "vote recorded", result)
}
