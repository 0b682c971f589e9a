package search

import (
	"context"
	"time"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

// Lister is the subset of forum.Store the fallback searcher reads from.
type Lister interface {
	ListQuestions(ctx context.Context, f forum.QuestionFilter) ([]models.Question, int64, error)
	ListAnswers(ctx context.Context, f forum.AnswerFilter) ([]models.Answer, int64, error)
	ListUsers(ctx context.Context, f forum.UserFilter) ([]models.User, int64, error)
	ListTags(ctx context.Context, f forum.TagFilter) ([]models.Tag, int64, error)
}

// StoreSearcher runs substring matches against the primary store. It is
// always healthy and is used whenever Meilisearch is absent or failing.
type StoreSearcher struct {
	store   Lister
	timeout time.Duration
}

var _ Searcher = (*StoreSearcher)(nil)

func NewStoreSearcher(store Lister) *StoreSearcher {
	return &StoreSearcher{store: store, timeout: 5 * time.Second}
}

func (s *StoreSearcher) Healthy() bool { return true }

func (s *StoreSearcher) Search(q Query) ([]Result, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	limit := q.Limit
	if limit == 0 {
		limit = 20
	}
	page := forum.Page{Page: q.Offset/limit + 1, Limit: limit}
	want := func(t ResultType) bool { return q.Type == "" || q.Type == t }

	var (
		results []Result
		total   int
	)
	if want(ResultQuestion) {
		qs, n, err := s.store.ListQuestions(ctx, forum.QuestionFilter{Page: page, Search: q.Text, SortBy: forum.SortVotes, Desc: true})
		if err != nil {
			return nil, 0, err
		}
		total += int(n)
		for _, item := range qs {
			results = append(results, Result{Type: ResultQuestion, ID: item.ID, Title: item.Title, Snippet: snippet(item.Description, snippetLength), QuestionID: item.ID})
		}
	}
	if want(ResultAnswer) {
		as, n, err := s.store.ListAnswers(ctx, forum.AnswerFilter{Page: page, Search: q.Text, SortBy: forum.SortVotes, Desc: true})
		if err != nil {
			return nil, 0, err
		}
		total += int(n)
		for _, item := range as {
			results = append(results, Result{Type: ResultAnswer, ID: item.ID, Snippet: snippet(item.Content, snippetLength), QuestionID: item.QuestionID})
		}
	}
	if want(ResultUser) {
		us, n, err := s.store.ListUsers(ctx, forum.UserFilter{Page: page, Search: q.Text})
		if err != nil {
			return nil, 0, err
		}
		total += int(n)
		for _, item := range us {
			results = append(results, Result{Type: ResultUser, ID: item.ID, Title: item.Username})
		}
	}
	if want(ResultTag) {
		ts, n, err := s.store.ListTags(ctx, forum.TagFilter{Page: page, Search: q.Text})
		if err != nil {
			return nil, 0, err
		}
		total += int(n)
		for _, item := range ts {
			results = append(results, Result{Type: ResultTag, ID: item.ID, Title: item.Name, Snippet: item.Description})
		}
	}
	return results, total, nil
}
