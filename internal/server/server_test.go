package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/auth"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/config"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/handlers"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/middleware"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/notify"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/search"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/session"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUploader struct {
	key         string
	contentType string
	body        []byte
}

func (f *fakeUploader) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.key, f.contentType, f.body = key, contentType, body
	return "http://cdn.test/" + key, nil
}

type testServer struct {
	t        *testing.T
	store    *store.MemoryStore
	router   http.Handler
	uploader *fakeUploader
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := store.NewMemoryStore()
	searchSvc := search.NewService(nil, search.NewStoreSearcher(st))
	svc := forum.NewService(st, forum.WithIndexer(searchSvc), forum.WithNotifier(notify.New(st, nil)))
	tokens := auth.NewTokens("test-secret", time.Hour)
	revoker := session.NewMemoryStore()
	uploader := &fakeUploader{}

	h := handlers.NewHandler(handlers.Deps{
		Forum:    svc,
		Tokens:   tokens,
		Revoker:  revoker,
		Search:   searchSvc,
		Uploader: uploader,
	})
	s := &Server{opts: Options{
		Config:  config.Config{Port: "0", StoreDriver: "memory", CORSOrigins: []string{"*"}},
		Handler: h,
		Auth:    middleware.NewAuthenticator(tokens, revoker, st),
		Store:   st,
		Revoker: revoker,
		Search:  searchSvc,
	}}
	return &testServer{t: t, store: st, router: s.RegisterRoutes(), uploader: uploader}
}

type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Pagination *forum.Pagination `json:"pagination"`
}

func (ts *testServer) do(method, path, token string, body any) (int, envelope) {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.serve(req)
}

func (ts *testServer) serve(req *http.Request) (int, envelope) {
	ts.t.Helper()
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(ts.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

// signUp registers and logs in a user, returning its id and token.
func (ts *testServer) signUp(name string) (uint, string) {
	ts.t.Helper()
	code, env := ts.do(http.MethodPost, "/api/users", "", gin.H{"username": name, "email": name + "@example.com", "password": "secret123"})
	require.Equal(ts.t, http.StatusCreated, code, env.Message)
	user := decode[models.User](ts.t, env)

	code, env = ts.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": name + "@example.com", "password": "secret123"})
	require.Equal(ts.t, http.StatusOK, code, env.Message)
	resp := decode[models.AuthResponse](ts.t, env)
	return user.ID, resp.Token
}

func (ts *testServer) ask(token string) uint {
	ts.t.Helper()
	code, env := ts.do(http.MethodPost, "/api/questions", token, gin.H{
		"title":       "How do I stop leaking goroutines?",
		"description": "My worker goroutines never exit after the request ends.",
		"tags":        []string{"Go", "concurrency"},
	})
	require.Equal(ts.t, http.StatusCreated, code, env.Message)
	return decode[struct{ ID uint }](ts.t, env).ID
}

func (ts *testServer) answer(token string, questionID uint) uint {
	ts.t.Helper()
	code, env := ts.do(http.MethodPost, "/api/answers", token, gin.H{"questionId": questionID, "content": "Pass a context and return on ctx.Done()."})
	require.Equal(ts.t, http.StatusCreated, code, env.Message)
	return decode[struct{ ID uint }](ts.t, env).ID
}

func (ts *testServer) reputation(id uint) int {
	ts.t.Helper()
	u, err := ts.store.GetUser(context.Background(), id)
	require.NoError(ts.t, err)
	return u.Reputation
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	id, token := ts.signUp("alice")

	code, env := ts.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, decode[models.User](t, env).ID)

	code, _ = ts.do(http.MethodPost, "/api/users", "", gin.H{"username": "alice", "email": "other@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = ts.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = ts.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = ts.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
}

func TestBannedUser(t *testing.T) {
	ts := newTestServer(t)
	adminID, _ := ts.signUp("admin")
	require.NoError(t, ts.store.SetUserRole(context.Background(), adminID, models.RoleAdmin))
	// log in again so the token carries the new role
	code, env := ts.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "admin@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, code)
	adminToken := decode[models.AuthResponse](t, env).Token

	bobID, bobToken := ts.signUp("bob")

	code, _ = ts.do(http.MethodPatch, fmt.Sprintf("/api/users/%d/ban", bobID), bobToken, gin.H{"banned": true})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = ts.do(http.MethodPatch, fmt.Sprintf("/api/users/%d/ban", bobID), adminToken, gin.H{"banned": true})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.True(t, decode[models.User](t, env).IsBanned)

	code, _ = ts.do(http.MethodGet, "/api/auth/me", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = ts.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "bob@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestBannedUserTokenCannotWrite(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.signUp("alice")
	bobID, bob := ts.signUp("bob")
	qid := ts.ask(alice)
	require.NoError(t, ts.store.SetUserBanned(context.Background(), bobID, true))

	code, env := ts.do(http.MethodPost, "/api/questions", bob, gin.H{
		"title":       "Posting while banned",
		"description": "This token was issued before the ban.",
		"tags":        []string{"go"},
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "account is banned", env.Message)

	code, _ = ts.do(http.MethodPost, "/api/answers", bob, gin.H{"questionId": qid, "content": "Still trying to answer."})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = ts.do(http.MethodPost, fmt.Sprintf("/api/questions/%d/vote", qid), bob, gin.H{"value": 1})
	assert.Equal(t, http.StatusForbidden, code)

	// optional routes see a banned caller as anonymous
	code, _ = ts.do(http.MethodGet, fmt.Sprintf("/api/questions/%d", qid), bob, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestDemotedAdminTokenLosesAdminRoutes(t *testing.T) {
	ts := newTestServer(t)
	adminID, _ := ts.signUp("admin")
	require.NoError(t, ts.store.SetUserRole(context.Background(), adminID, models.RoleAdmin))
	code, env := ts.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "admin@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, code)
	adminToken := decode[models.AuthResponse](t, env).Token
	bobID, _ := ts.signUp("bob")

	require.NoError(t, ts.store.SetUserRole(context.Background(), adminID, models.RoleUser))

	code, _ = ts.do(http.MethodPatch, fmt.Sprintf("/api/users/%d/ban", bobID), adminToken, gin.H{"banned": true})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = ts.do(http.MethodPatch, fmt.Sprintf("/api/users/%d/role", bobID), adminToken, gin.H{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, code)
	u, err := ts.store.GetUser(context.Background(), bobID)
	require.NoError(t, err)
	assert.False(t, u.IsBanned)
	assert.Equal(t, models.RoleUser, u.Role)
}

func TestQuestionAnswerFlow(t *testing.T) {
	ts := newTestServer(t)
	aliceID, alice := ts.signUp("alice")
	bobID, bob := ts.signUp("bob")

	qid := ts.ask(alice)
	aid := ts.answer(bob, qid)

	code, env := ts.do(http.MethodPost, fmt.Sprintf("/api/answers/%d/vote", aid), alice, gin.H{"value": 1})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, forum.VoteResult{Votes: 1, UserVote: 1}, decode[forum.VoteResult](t, env))
	assert.Equal(t, 10, ts.reputation(bobID))

	code, env = ts.do(http.MethodPost, fmt.Sprintf("/api/questions/%d/accept-answer", qid), bob, gin.H{"answerId": aid})
	assert.Equal(t, http.StatusForbidden, code, env.Message)

	code, env = ts.do(http.MethodPost, fmt.Sprintf("/api/questions/%d/accept-answer", qid), alice, gin.H{"answerId": aid})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, 25, ts.reputation(bobID))
	assert.Equal(t, 0, ts.reputation(aliceID))

	code, env = ts.do(http.MethodGet, fmt.Sprintf("/api/questions/%d", qid), alice, nil)
	require.Equal(t, http.StatusOK, code)
	detail := decode[struct {
		AcceptedAnswer *uint `json:"acceptedAnswer"`
		Views          int   `json:"views"`
		Tags           []models.Tag
		Answers        []struct {
			ID         uint `json:"id"`
			IsAccepted bool `json:"isAccepted"`
			Votes      int  `json:"votes"`
		} `json:"answers"`
	}](t, env)
	require.NotNil(t, detail.AcceptedAnswer)
	assert.Equal(t, aid, *detail.AcceptedAnswer)
	assert.Equal(t, 1, detail.Views)
	var tagNames []string
	for _, tag := range detail.Tags {
		tagNames = append(tagNames, tag.Name)
	}
	assert.ElementsMatch(t, []string{"go", "concurrency"}, tagNames)
	require.Len(t, detail.Answers, 1)
	assert.True(t, detail.Answers[0].IsAccepted)
	assert.Equal(t, 1, detail.Answers[0].Votes)

	code, env = ts.do(http.MethodGet, "/api/notifications?unread=true", alice, nil)
	require.Equal(t, http.StatusOK, code)
	aliceNotes := decode[[]models.Notification](t, env)
	require.Len(t, aliceNotes, 1)
	assert.Equal(t, models.NotificationAnswer, aliceNotes[0].Type)

	code, env = ts.do(http.MethodGet, "/api/notifications", bob, nil)
	require.Equal(t, http.StatusOK, code)
	bobNotes := decode[[]models.Notification](t, env)
	require.Len(t, bobNotes, 1)
	assert.Equal(t, models.NotificationAccepted, bobNotes[0].Type)

	code, _ = ts.do(http.MethodPatch, fmt.Sprintf("/api/notifications/%d/read", bobNotes[0].ID), alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = ts.do(http.MethodPatch, fmt.Sprintf("/api/notifications/%d/read", bobNotes[0].ID), bob, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = ts.do(http.MethodDelete, fmt.Sprintf("/api/questions/%d/accept-answer", qid), alice, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, 10, ts.reputation(bobID))
}

func TestDeleteQuestionCascades(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.signUp("alice")
	_, bob := ts.signUp("bob")
	qid := ts.ask(alice)
	aid := ts.answer(bob, qid)

	code, _ := ts.do(http.MethodDelete, fmt.Sprintf("/api/questions/%d", qid), bob, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := ts.do(http.MethodDelete, fmt.Sprintf("/api/questions/%d", qid), alice, nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	code, _ = ts.do(http.MethodGet, fmt.Sprintf("/api/questions/%d", qid), "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = ts.do(http.MethodGet, fmt.Sprintf("/api/answers/%d", aid), "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCloseQuestionRejectsAnswers(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.signUp("alice")
	_, bob := ts.signUp("bob")
	qid := ts.ask(alice)

	code, env := ts.do(http.MethodPatch, fmt.Sprintf("/api/questions/%d/close", qid), alice, gin.H{"closed": true})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = ts.do(http.MethodPost, "/api/answers", bob, gin.H{"questionId": qid, "content": "Too late for this one."})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "question is closed", env.Message)
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.signUp("alice")
	qid := ts.ask(alice)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"vote needs auth", http.MethodPost, fmt.Sprintf("/api/questions/%d/vote", qid), "", gin.H{"value": 1}, http.StatusUnauthorized},
		{"vote value", http.MethodPost, fmt.Sprintf("/api/questions/%d/vote", qid), alice, gin.H{"value": 2}, http.StatusBadRequest},
		{"vote missing target", http.MethodPost, "/api/answers/999/vote", alice, gin.H{"value": 1}, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/questions/abc", "", nil, http.StatusBadRequest},
		{"short title", http.MethodPost, "/api/questions", alice, gin.H{"title": "Hi", "description": "long enough body", "tags": []string{"go"}}, http.StatusBadRequest},
		{"too many tags", http.MethodPost, "/api/questions", alice, gin.H{"title": "Valid title", "description": "long enough body", "tags": []string{"a1", "b2", "c3", "d4", "e5", "f6"}}, http.StatusBadRequest},
		{"search needs q", http.MethodGet, "/api/search", "", nil, http.StatusBadRequest},
		{"search type", http.MethodGet, "/api/search?q=go&type=comments", "", nil, http.StatusBadRequest},
		{"notifications need auth", http.MethodGet, "/api/notifications", "", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := ts.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, code, env.Message)
			assert.False(t, env.Success)
		})
	}
}

func TestListAndSearch(t *testing.T) {
	ts := newTestServer(t)
	_, alice := ts.signUp("alice")
	for i := 0; i < 3; i++ {
		ts.ask(alice)
	}

	code, env := ts.do(http.MethodGet, "/api/questions?limit=2&page=2&tag=go", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, forum.Pagination{Page: 2, Limit: 2, Total: 3, Pages: 2}, *env.Pagination)
	assert.Len(t, decode[[]json.RawMessage](t, env), 1)

	code, env = ts.do(http.MethodGet, "/api/tags", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.Tag](t, env), 2)

	code, env = ts.do(http.MethodPost, "/api/tags", alice, gin.H{"name": "go", "description": "The Go language"})
	assert.Equal(t, http.StatusConflict, code, env.Message)

	code, env = ts.do(http.MethodGet, "/api/search?q=goroutines&type=questions", "", nil)
	require.Equal(t, http.StatusOK, code)
	resp := decode[search.Response](t, env)
	assert.Equal(t, 3, resp.Total)
	for _, r := range resp.Results {
		assert.Equal(t, search.ResultQuestion, r.Type)
	}
}

func TestUploadAvatar(t *testing.T) {
	ts := newTestServer(t)
	aliceID, alice := ts.signUp("alice")
	_, bob := ts.signUp("bob")

	upload := func(token, contentType string) (int, envelope) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG fake"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/users/%d/avatar", aliceID), &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		return ts.serve(req)
	}

	code, _ := upload(bob, "image/png")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = upload(alice, "application/pdf")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := upload(alice, "image/png")
	require.Equal(t, http.StatusOK, code, env.Message)
	user := decode[models.User](t, env)
	assert.Equal(t, "http://cdn.test/"+ts.uploader.key, user.Avatar)
	assert.Equal(t, "image/png", ts.uploader.contentType)
	assert.Equal(t, []byte("\x89PNG fake"), ts.uploader.body)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "up", body["sessions"])
	assert.Equal(t, "fallback", body["search"])
}
