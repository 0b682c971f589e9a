package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/auth"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/middleware"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/session"
)

type AuthHandler struct {
	forum        *forum.Service
	tokens       *auth.Tokens
	revoker      session.Revoker
	secureCookie bool
}

func NewAuthHandler(svc *forum.Service, tokens *auth.Tokens, revoker session.Revoker, secureCookie bool) *AuthHandler {
	return &AuthHandler{forum: svc, tokens: tokens, revoker: revoker, secureCookie: secureCookie}
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.forum.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, _, err := h.tokens.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.tokens.TTL()/time.Second), "/", "", h.secureCookie, true)
	respond(c, http.StatusOK, "login successful", models.AuthResponse{Token: token, User: user})
}

// Logout revokes the token used for the request and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := middleware.TokenIdentity(c)
	if h.revoker != nil && jti != "" {
		if exp.IsZero() {
			exp = time.Now().Add(h.tokens.TTL())
		}
		if err := h.revoker.Revoke(c.Request.Context(), jti, exp); err != nil {
			respondError(c, err)
			return
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookie, true)
	respond(c, http.StatusOK, "logged out", nil)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.forum.CurrentUser(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", user)
}
