package search

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

// Service tries the engine first and falls back to the store searcher. It
// also receives committed changes from the forum service and pushes them to
// the engine in the background.
type Service struct {
	engine   Engine
	fallback Searcher
	wg       sync.WaitGroup
}

var _ forum.Indexer = (*Service)(nil)

// NewService builds the facade. engine may be nil when Meilisearch is not configured.
func NewService(engine Engine, fallback Searcher) *Service {
	return &Service{engine: engine, fallback: fallback}
}

func (s *Service) Search(q Query) Response {
	q.Text = strings.TrimSpace(q.Text)
	if s.engine != nil && s.engine.Healthy() {
		results, total, err := s.engine.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		slog.Warn("search: engine error, falling back to store", "error", err)
	}

	if s.fallback == nil {
		return Response{Results: []Result{}, Query: q.Text}
	}
	results, total, err := s.fallback.Search(q)
	if err != nil {
		slog.Error("search: fallback error", "error", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// Healthy reports the engine state, or false when only the fallback is in use.
func (s *Service) Healthy() bool {
	return s.engine != nil && s.engine.Healthy()
}

func (s *Service) async(what string, id uint, fn func() error) {
	if s.engine == nil || !s.engine.Healthy() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(); err != nil {
			slog.Warn("search: "+what, "id", id, "error", err)
		}
	}()
}

// Wait blocks until queued index writes have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) IndexQuestion(q models.Question) {
	r := questionRecord(q)
	s.async("index question", q.ID, func() error { return s.engine.IndexQuestion(r) })
}

func (s *Service) IndexAnswer(a models.Answer) {
	r := answerRecord(a)
	s.async("index answer", a.ID, func() error { return s.engine.IndexAnswer(r) })
}

func (s *Service) IndexUser(u models.User) {
	r := userRecord(u)
	s.async("index user", u.ID, func() error { return s.engine.IndexUser(r) })
}

func (s *Service) IndexTag(t models.Tag) {
	r := tagRecord(t)
	s.async("index tag", t.ID, func() error { return s.engine.IndexTag(r) })
}

func (s *Service) RemoveQuestion(id uint) {
	s.async("delete question", id, func() error { return s.engine.DeleteQuestion(id) })
}

func (s *Service) RemoveAnswer(id uint) {
	s.async("delete answer", id, func() error { return s.engine.DeleteAnswer(id) })
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
