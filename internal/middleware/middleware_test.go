package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/auth"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers map[uint]models.User

func (f fakeUsers) GetUser(_ context.Context, id uint) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, forum.ErrNotFound
	}
	return u, nil
}

func newRouter(a *Authenticator) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/private", a.Required(), func(c *gin.Context) {
		actor := CurrentActor(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.UserID, "role": actor.Role})
	})
	r.GET("/optional", a.Optional(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentActor(c).UserID})
	})
	r.GET("/admin", a.Required(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func issue(t *testing.T, tokens *auth.Tokens, u models.User) (string, *auth.Claims) {
	t.Helper()
	token, claims, err := tokens.Issue(u)
	require.NoError(t, err)
	return token, claims
}

func get(r http.Handler, path string, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestRequired(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	r := newRouter(NewAuthenticator(tokens, session.NewMemoryStore(), nil))
	token, _ := issue(t, tokens, models.User{ID: 7, Role: models.RoleUser})

	w := get(r, "/private", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/private", bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/private", bearer(token))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"role":"user"}`, w.Body.String())

	w = get(r, "/private", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRevokedTokenRejected(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	revoker := session.NewMemoryStore()
	r := newRouter(NewAuthenticator(tokens, revoker, nil))
	token, claims := issue(t, tokens, models.User{ID: 7, Role: models.RoleUser})

	require.NoError(t, revoker.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))

	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", bearer(token)).Code)
	assert.JSONEq(t, `{"id":0}`, get(r, "/optional", bearer(token)).Body.String())
}

func TestOptional(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	r := newRouter(NewAuthenticator(tokens, nil, nil))
	token, _ := issue(t, tokens, models.User{ID: 3, Role: models.RoleUser})

	assert.JSONEq(t, `{"id":0}`, get(r, "/optional", nil).Body.String())
	assert.JSONEq(t, `{"id":3}`, get(r, "/optional", bearer(token)).Body.String())
}

func TestRequireAdmin(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	r := newRouter(NewAuthenticator(tokens, nil, nil))
	user, _ := issue(t, tokens, models.User{ID: 3, Role: models.RoleUser})
	admin, _ := issue(t, tokens, models.User{ID: 1, Role: models.RoleAdmin})

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", bearer(user)).Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", bearer(admin)).Code)
}

func TestStoredAccountOverridesClaims(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	users := fakeUsers{
		1: {ID: 1, Role: models.RoleUser},
		3: {ID: 3, Role: models.RoleUser, IsBanned: true},
	}
	r := newRouter(NewAuthenticator(tokens, nil, users))
	demoted, _ := issue(t, tokens, models.User{ID: 1, Role: models.RoleAdmin})
	banned, _ := issue(t, tokens, models.User{ID: 3, Role: models.RoleUser})
	deleted, _ := issue(t, tokens, models.User{ID: 9, Role: models.RoleUser})

	w := get(r, "/private", bearer(demoted))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"role":"user"}`, w.Body.String())
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", bearer(demoted)).Code)

	w = get(r, "/private", bearer(banned))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"account is banned","error":"forbidden"}`, w.Body.String())
	assert.JSONEq(t, `{"id":0}`, get(r, "/optional", bearer(banned)).Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", bearer(deleted)).Code)
}
