package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/auth"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/session"
)

// Context keys set by the auth middleware.
const (
	KeyUserID   = "user_id"
	KeyRole     = "role"
	KeyTokenID  = "jti"
	KeyTokenExp = "token_exp"

	TokenCookie = "auth-token"
)

// UserLookup loads the account behind a token. forum.Store satisfies it.
type UserLookup interface {
	GetUser(ctx context.Context, id uint) (models.User, error)
}

type Authenticator struct {
	tokens  *auth.Tokens
	revoker session.Revoker
	users   UserLookup
}

// NewAuthenticator builds the token middleware. With a nil users lookup the
// role is taken from the token claims and bans are not checked.
func NewAuthenticator(tokens *auth.Tokens, revoker session.Revoker, users UserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, revoker: revoker, users: users}
}

type authResult int

const (
	authMissing authResult = iota
	authBanned
	authOK
)

// Required rejects requests without a valid, unrevoked token, and requests
// from banned accounts.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch a.authenticate(c) {
		case authOK:
			c.Next()
		case authBanned:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "account is banned",
				"error":   "forbidden",
			})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "authentication required",
				"error":   "unauthorized",
			})
		}
	}
}

// Optional populates the caller when a valid token is present and lets
// anonymous requests through otherwise. Banned accounts are treated as
// anonymous.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.authenticate(c)
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) authResult {
	raw := tokenFromRequest(c)
	if raw == "" {
		return authMissing
	}
	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return authMissing
	}
	ctx := c.Request.Context()
	if a.revoker != nil && claims.ID != "" {
		revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			slog.Error("auth: revocation lookup failed", "error", err)
			return authMissing
		}
		if revoked {
			return authMissing
		}
	}

	// stored ban and role override the claims
	role := claims.Role
	if a.users != nil {
		u, err := a.users.GetUser(ctx, claims.UserID)
		if err != nil {
			if !errors.Is(err, forum.ErrNotFound) {
				slog.Error("auth: user lookup failed", "user_id", claims.UserID, "error", err)
			}
			return authMissing
		}
		if u.IsBanned {
			return authBanned
		}
		role = u.Role
	}

	c.Set(KeyUserID, claims.UserID)
	c.Set(KeyRole, role)
	c.Set(KeyTokenID, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(KeyTokenExp, claims.ExpiresAt.Time)
	}
	return authOK
}

// RequireAdmin must run after Required.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentActor(c).Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "admin access required",
				"error":   "forbidden",
			})
			return
		}
		c.Next()
	}
}

// CurrentActor returns the authenticated caller, or the zero Actor.
func CurrentActor(c *gin.Context) forum.Actor {
	id := c.GetUint(KeyUserID)
	role, _ := c.Get(KeyRole)
	r, _ := role.(models.Role)
	return forum.Actor{UserID: id, Role: r}
}

// TokenIdentity returns the id and expiry of the token used for the request.
func TokenIdentity(c *gin.Context) (string, time.Time) {
	return c.GetString(KeyTokenID), c.GetTime(KeyTokenExp)
}

func tokenFromRequest(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}
