package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/media"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/middleware"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

type UserHandler struct {
	forum    *forum.Service
	uploader media.Uploader
}

func NewUserHandler(svc *forum.Service, uploader media.Uploader) *UserHandler {
	return &UserHandler{forum: svc, uploader: uploader}
}

// Register creates an account
func (h *UserHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.forum.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "user registered", user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, page, err := h.forum.ListUsers(c.Request.Context(), c.Query("search"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}
	respondPage(c, summaries, page)
}

// GetUserProfile returns a user's public profile
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.forum.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", user.Summary())
}

func (h *UserHandler) SetBanned(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Banned bool `json:"banned"`
	}
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.forum.SetBanned(c.Request.Context(), middleware.CurrentActor(c), id, input.Banned)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "user updated", user)
}

func (h *UserHandler) SetRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}
	user, err := h.forum.SetRole(c.Request.Context(), middleware.CurrentActor(c), id, input.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "user updated", user)
}

// UploadAvatar stores the multipart "avatar" file and records its URL.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	actor := middleware.CurrentActor(c)
	if actor.UserID != id {
		respondFail(c, http.StatusForbidden, "you can only update your own avatar")
		return
	}
	if h.uploader == nil {
		respondFail(c, http.StatusServiceUnavailable, "avatar uploads are not configured")
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		respondFail(c, http.StatusBadRequest, "avatar file is required")
		return
	}
	if file.Size > media.MaxAvatarBytes {
		respondFail(c, http.StatusBadRequest, "avatar must be at most 2 MB")
		return
	}
	contentType := file.Header.Get("Content-Type")
	ext, ok := media.Extension(contentType)
	if !ok {
		respondFail(c, http.StatusBadRequest, "avatar must be a png, jpeg, gif or webp image")
		return
	}

	f, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	url, err := h.uploader.Upload(c.Request.Context(), media.AvatarKey(id, ext), f, file.Size, contentType)
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.forum.SetAvatar(c.Request.Context(), actor, id, url)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "avatar updated", user)
}
