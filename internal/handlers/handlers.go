package handlers

import (
	"github.com/TheRealSoutrikDas/stackit/backend/internal/auth"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/media"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/search"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/session"
)

// Deps are the collaborators shared by the handlers. Uploader may be nil,
// which disables avatar uploads.
type Deps struct {
	Forum        *forum.Service
	Tokens       *auth.Tokens
	Revoker      session.Revoker
	Search       *search.Service
	Uploader     media.Uploader
	SecureCookie bool
}

// Handler combines all handler types
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Question     *QuestionHandler
	Answer       *AnswerHandler
	Tag          *TagHandler
	Search       *SearchHandler
	Notification *NotificationHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(d.Forum, d.Tokens, d.Revoker, d.SecureCookie),
		User:         NewUserHandler(d.Forum, d.Uploader),
		Question:     NewQuestionHandler(d.Forum),
		Answer:       NewAnswerHandler(d.Forum),
		Tag:          NewTagHandler(d.Forum),
		Search:       NewSearchHandler(d.Search),
		Notification: NewNotificationHandler(d.Forum),
	}
}
