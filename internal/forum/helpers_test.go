package forum_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/store"
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *store.MemoryStore
	svc      *forum.Service
	notifier *recordingNotifier
	indexer  *recordingIndexer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	n := &recordingNotifier{}
	idx := &recordingIndexer{}
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    st,
		svc:      forum.NewService(st, forum.WithNotifier(n), forum.WithIndexer(idx)),
		notifier: n,
		indexer:  idx,
	}
}

func (f *fixture) user(name string) models.User {
	f.t.Helper()
	u := models.User{Username: name, Email: name + "@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(f.t, f.store.CreateUser(f.ctx, &u))
	return u
}

func (f *fixture) admin(name string) models.User {
	f.t.Helper()
	u := f.user(name)
	require.NoError(f.t, f.store.SetUserRole(f.ctx, u.ID, models.RoleAdmin))
	u.Role = models.RoleAdmin
	return u
}

func actor(u models.User) forum.Actor {
	return forum.Actor{UserID: u.ID, Role: u.Role}
}

func (f *fixture) question(author models.User, title string) forum.QuestionView {
	f.t.Helper()
	q, err := f.svc.CreateQuestion(f.ctx, actor(author), models.CreateQuestionRequest{
		Title:       title,
		Description: "a description long enough",
		Tags:        []string{"go"},
	})
	require.NoError(f.t, err)
	return q
}

func (f *fixture) answer(author models.User, questionID uint) forum.AnswerView {
	f.t.Helper()
	a, err := f.svc.CreateAnswer(f.ctx, actor(author), models.CreateAnswerRequest{
		QuestionID: questionID,
		Content:    fmt.Sprintf("answer by %s", author.Username),
	})
	require.NoError(f.t, err)
	return a
}

func (f *fixture) reputation(id uint) int {
	f.t.Helper()
	u, err := f.store.GetUser(f.ctx, id)
	require.NoError(f.t, err)
	return u.Reputation
}

func (f *fixture) sum(target forum.Target) int {
	f.t.Helper()
	s, err := f.store.SumTargetVotes(f.ctx, target)
	require.NoError(f.t, err)
	return s
}

func questionTarget(id uint) forum.Target {
	return forum.Target{Type: models.TargetQuestion, ID: id}
}

func answerTarget(id uint) forum.Target {
	return forum.Target{Type: models.TargetAnswer, ID: id}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) all() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.sent...)
}

type recordingIndexer struct {
	mu               sync.Mutex
	questions        []uint
	answers          []uint
	removedQuestions []uint
	removedAnswers   []uint
}

func (r *recordingIndexer) IndexQuestion(q models.Question) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = append(r.questions, q.ID)
}

func (r *recordingIndexer) IndexAnswer(a models.Answer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = append(r.answers, a.ID)
}

func (r *recordingIndexer) IndexTag(models.Tag)   {}
func (r *recordingIndexer) IndexUser(models.User) {}

func (r *recordingIndexer) RemoveQuestion(id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removedQuestions = append(r.removedQuestions, id)
}

func (r *recordingIndexer) RemoveAnswer(id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removedAnswers = append(r.removedAnswers, id)
}
