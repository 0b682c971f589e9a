package forum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

func TestCreateQuestionNormalizesTags(t *testing.T) {
	f := newFixture(t)
	u := f.user("asker")

	q, err := f.svc.CreateQuestion(f.ctx, actor(u), models.CreateQuestionRequest{
		Title:       "  Goroutine leaks  ",
		Description: "How do I find goroutine leaks?",
		Tags:        []string{" Go ", "go", "Concurrency"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Goroutine leaks", q.Title)
	assert.Equal(t, u.ID, q.Author.ID)

	names := make([]string, 0, len(q.Tags))
	for _, tag := range q.Tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"go", "concurrency"}, names)
	assert.Contains(t, f.indexer.questions, q.ID)

	tags, page, err := f.svc.ListTags(f.ctx, "", 1, 0)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
	assert.Equal(t, 20, page.Limit)
}

func TestCreateQuestionValidation(t *testing.T) {
	f := newFixture(t)
	u := f.user("asker")

	tests := []struct {
		name string
		req  models.CreateQuestionRequest
		kind error
	}{
		{"short title", models.CreateQuestionRequest{Title: "Go?", Description: "long enough body", Tags: []string{"go"}}, forum.ErrInvalidArgument},
		{"short description", models.CreateQuestionRequest{Title: "Valid title", Description: "short", Tags: []string{"go"}}, forum.ErrInvalidArgument},
		{"no tags", models.CreateQuestionRequest{Title: "Valid title", Description: "long enough body"}, forum.ErrInvalidArgument},
		{"blank tag", models.CreateQuestionRequest{Title: "Valid title", Description: "long enough body", Tags: []string{" "}}, forum.ErrInvalidArgument},
		{"too many tags", models.CreateQuestionRequest{Title: "Valid title", Description: "long enough body", Tags: []string{"a1", "b2", "c3", "d4", "e5", "f6"}}, forum.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateQuestion(f.ctx, actor(u), tt.req)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	_, err := f.svc.CreateQuestion(f.ctx, forum.Actor{}, models.CreateQuestionRequest{})
	assert.ErrorIs(t, err, forum.ErrUnauthorized)
}

func TestGetQuestionCountsViewsAndOrdersAnswers(t *testing.T) {
	f := newFixture(t)
	asker, h1, h2, voter := f.user("asker"), f.user("h1"), f.user("h2"), f.user("voter")
	q := f.question(asker, "Ordering answers")
	first := f.answer(h1, q.ID)
	second := f.answer(h2, q.ID)
	_, err := f.svc.CastVote(f.ctx, voter.ID, answerTarget(second.ID), 1)
	require.NoError(t, err)
	_, err = f.svc.CastVote(f.ctx, voter.ID, questionTarget(q.ID), -1)
	require.NoError(t, err)

	detail, err := f.svc.GetQuestion(f.ctx, q.ID, voter.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Views)
	assert.Equal(t, 2, detail.AnswerCount)
	assert.Equal(t, -1, detail.UserVote)
	require.Len(t, detail.Answers, 2)
	assert.Equal(t, second.ID, detail.Answers[0].ID)
	assert.Equal(t, first.ID, detail.Answers[1].ID)
	assert.Equal(t, "h2", detail.Answers[0].Author.Username)

	detail, err = f.svc.GetQuestion(f.ctx, q.ID, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Views)

	_, err = f.svc.GetQuestion(f.ctx, 9999, 0, true)
	assert.ErrorIs(t, err, forum.ErrNotFound)
}

func TestListQuestions(t *testing.T) {
	f := newFixture(t)
	u, voter := f.user("asker"), f.user("voter")
	q1, err := f.svc.CreateQuestion(f.ctx, actor(u), models.CreateQuestionRequest{
		Title: "Postgres arrays", Description: "how to append to a bigint array", Tags: []string{"postgres"},
	})
	require.NoError(t, err)
	q2, err := f.svc.CreateQuestion(f.ctx, actor(u), models.CreateQuestionRequest{
		Title: "Gin middleware", Description: "how to write gin middleware", Tags: []string{"go", "gin"},
	})
	require.NoError(t, err)
	_, err = f.svc.CastVote(f.ctx, voter.ID, questionTarget(q1.ID), 1)
	require.NoError(t, err)

	list, page, err := f.svc.ListQuestions(f.ctx, forum.ListQuestionsParams{SortBy: "votes"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, q1.ID, list[0].ID)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 10, page.Limit)

	list, _, err = f.svc.ListQuestions(f.ctx, forum.ListQuestionsParams{Tag: "GIN"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, q2.ID, list[0].ID)

	list, _, err = f.svc.ListQuestions(f.ctx, forum.ListQuestionsParams{Search: "BIGINT"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, q1.ID, list[0].ID)

	list, page, err = f.svc.ListQuestions(f.ctx, forum.ListQuestionsParams{Page: 2, Limit: 1, SortBy: "createdAt", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, q2.ID, list[0].ID)
	assert.Equal(t, int64(2), page.Pages)
}

func TestUpdateQuestionAuthorization(t *testing.T) {
	f := newFixture(t)
	owner, other, admin := f.user("owner"), f.user("other"), f.admin("admin")
	q := f.question(owner, "Original title")
	req := models.UpdateQuestionRequest{Title: "Edited title", Description: "edited description", Tags: []string{"edited"}}

	_, err := f.svc.UpdateQuestion(f.ctx, actor(other), q.ID, req)
	assert.ErrorIs(t, err, forum.ErrForbidden)

	updated, err := f.svc.UpdateQuestion(f.ctx, actor(admin), q.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Edited title", updated.Title)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "edited", updated.Tags[0].Name)

	_, err = f.svc.UpdateQuestion(f.ctx, actor(owner), 9999, req)
	assert.ErrorIs(t, err, forum.ErrNotFound)
}

func TestCloseQuestionBlocksAnswers(t *testing.T) {
	f := newFixture(t)
	owner, helper := f.user("owner"), f.user("helper")
	q := f.question(owner, "Closing time")

	_, err := f.svc.CloseQuestion(f.ctx, actor(helper), q.ID, true)
	assert.ErrorIs(t, err, forum.ErrForbidden)

	closed, err := f.svc.CloseQuestion(f.ctx, actor(owner), q.ID, true)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)

	_, err = f.svc.CreateAnswer(f.ctx, actor(helper), models.CreateAnswerRequest{QuestionID: q.ID, Content: "too late now"})
	assert.ErrorIs(t, err, forum.ErrInvalidArgument)

	_, err = f.svc.CloseQuestion(f.ctx, actor(owner), q.ID, false)
	require.NoError(t, err)
	f.answer(helper, q.ID)
}

func TestDeleteQuestionCascades(t *testing.T) {
	f := newFixture(t)
	asker, h1, h2, voter := f.user("asker"), f.user("h1"), f.user("h2"), f.user("voter")
	q := f.question(asker, "Doomed question")
	keep := f.question(asker, "Surviving question")
	a1 := f.answer(h1, q.ID)
	a2 := f.answer(h2, q.ID)
	kept := f.answer(h1, keep.ID)
	for _, target := range []forum.Target{questionTarget(q.ID), answerTarget(a1.ID), answerTarget(a2.ID), answerTarget(kept.ID)} {
		_, err := f.svc.CastVote(f.ctx, voter.ID, target, 1)
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.DeleteQuestion(f.ctx, q.ID))

	_, err := f.store.GetQuestion(f.ctx, q.ID)
	assert.ErrorIs(t, err, forum.ErrNotFound)
	for _, id := range []uint{a1.ID, a2.ID} {
		_, err := f.store.GetAnswer(f.ctx, id)
		assert.ErrorIs(t, err, forum.ErrNotFound)
		assert.Equal(t, 0, f.sum(answerTarget(id)))
	}
	assert.Equal(t, 0, f.sum(questionTarget(q.ID)))

	_, err = f.store.GetAnswer(f.ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.sum(answerTarget(kept.ID)))
	assert.ElementsMatch(t, []uint{a1.ID, a2.ID}, f.indexer.removedAnswers)
	assert.Equal(t, []uint{q.ID}, f.indexer.removedQuestions)

	assert.ErrorIs(t, f.svc.DeleteQuestion(f.ctx, q.ID), forum.ErrNotFound)
}

func TestDeleteQuestionTakesBackReputation(t *testing.T) {
	f := newFixture(t)
	asker, helper, voter := f.user("asker"), f.user("helper"), f.user("voter")
	q := f.question(asker, "Reputation after a delete")
	keep := f.question(asker, "Reputation that stays")
	a := f.answer(helper, q.ID)
	kept := f.answer(helper, keep.ID)

	for _, target := range []forum.Target{questionTarget(q.ID), answerTarget(a.ID), answerTarget(kept.ID)} {
		_, err := f.svc.CastVote(f.ctx, voter.ID, target, 1)
		require.NoError(t, err)
	}
	_, err := f.svc.CastVote(f.ctx, asker.ID, questionTarget(q.ID), 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.AcceptAnswer(f.ctx, q.ID, a.ID, asker.ID))
	require.Equal(t, 5, f.reputation(asker.ID))
	require.Equal(t, 35, f.reputation(helper.ID))

	require.NoError(t, f.svc.DeleteQuestion(f.ctx, q.ID))
	assert.Equal(t, 0, f.reputation(asker.ID))
	assert.Equal(t, 10, f.reputation(helper.ID))
	assert.Equal(t, 0, f.reputation(voter.ID))
}

func TestAuthorizeQuestion(t *testing.T) {
	f := newFixture(t)
	owner, other, admin := f.user("owner"), f.user("other"), f.admin("admin")
	q := f.question(owner, "Who may delete me")

	_, err := f.svc.AuthorizeQuestion(f.ctx, actor(other), q.ID)
	assert.ErrorIs(t, err, forum.ErrForbidden)
	_, err = f.svc.AuthorizeQuestion(f.ctx, forum.Actor{}, q.ID)
	assert.ErrorIs(t, err, forum.ErrUnauthorized)
	_, err = f.svc.AuthorizeQuestion(f.ctx, actor(owner), q.ID)
	assert.NoError(t, err)
	_, err = f.svc.AuthorizeQuestion(f.ctx, actor(admin), q.ID)
	assert.NoError(t, err)
}
