package store

import (
	"context"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

// Outside a transaction every call takes the store lock for its own duration.

func (s *MemoryStore) FindVote(ctx context.Context, key forum.VoteKey) (models.Vote, error) {
	defer s.lock()()
	return s.data.FindVote(ctx, key)
}

func (s *MemoryStore) InsertVote(ctx context.Context, v *models.Vote) error {
	defer s.lock()()
	return s.data.InsertVote(ctx, v)
}

func (s *MemoryStore) SwapVoteValue(ctx context.Context, id uint, from, to int) error {
	defer s.lock()()
	return s.data.SwapVoteValue(ctx, id, from, to)
}

func (s *MemoryStore) DeleteVoteIfValue(ctx context.Context, id uint, value int) error {
	defer s.lock()()
	return s.data.DeleteVoteIfValue(ctx, id, value)
}

func (s *MemoryStore) AdjustTargetVotes(ctx context.Context, target forum.Target, delta int) (int, error) {
	defer s.lock()()
	return s.data.AdjustTargetVotes(ctx, target, delta)
}

func (s *MemoryStore) TargetAuthor(ctx context.Context, target forum.Target) (uint, error) {
	defer s.lock()()
	return s.data.TargetAuthor(ctx, target)
}

func (s *MemoryStore) SumTargetVotes(ctx context.Context, target forum.Target) (int, error) {
	defer s.lock()()
	return s.data.SumTargetVotes(ctx, target)
}

func (s *MemoryStore) DeleteTargetVotes(ctx context.Context, targetType models.TargetType, ids ...uint) error {
	defer s.lock()()
	return s.data.DeleteTargetVotes(ctx, targetType, ids...)
}

func (s *MemoryStore) CreateQuestion(ctx context.Context, q *models.Question) error {
	defer s.lock()()
	return s.data.CreateQuestion(ctx, q)
}

func (s *MemoryStore) GetQuestion(ctx context.Context, id uint) (models.Question, error) {
	defer s.lock()()
	return s.data.GetQuestion(ctx, id)
}

func (s *MemoryStore) LockQuestion(ctx context.Context, id uint) (models.Question, error) {
	defer s.lock()()
	return s.data.LockQuestion(ctx, id)
}

func (s *MemoryStore) ListQuestions(ctx context.Context, f forum.QuestionFilter) ([]models.Question, int64, error) {
	defer s.lock()()
	return s.data.ListQuestions(ctx, f)
}

func (s *MemoryStore) UpdateQuestion(ctx context.Context, id uint, title, description string, tags []models.Tag) error {
	defer s.lock()()
	return s.data.UpdateQuestion(ctx, id, title, description, tags)
}

func (s *MemoryStore) SetQuestionClosed(ctx context.Context, id uint, closed bool) error {
	defer s.lock()()
	return s.data.SetQuestionClosed(ctx, id, closed)
}

func (s *MemoryStore) IncrementViews(ctx context.Context, id uint) error {
	defer s.lock()()
	return s.data.IncrementViews(ctx, id)
}

func (s *MemoryStore) SetAcceptedAnswer(ctx context.Context, questionID uint, answerID *uint) error {
	defer s.lock()()
	return s.data.SetAcceptedAnswer(ctx, questionID, answerID)
}

func (s *MemoryStore) ClearAcceptedAnswerIf(ctx context.Context, questionID, answerID uint) error {
	defer s.lock()()
	return s.data.ClearAcceptedAnswerIf(ctx, questionID, answerID)
}

func (s *MemoryStore) AppendAnswerRef(ctx context.Context, questionID, answerID uint) error {
	defer s.lock()()
	return s.data.AppendAnswerRef(ctx, questionID, answerID)
}

func (s *MemoryStore) RemoveAnswerRef(ctx context.Context, questionID, answerID uint) error {
	defer s.lock()()
	return s.data.RemoveAnswerRef(ctx, questionID, answerID)
}

func (s *MemoryStore) DeleteQuestion(ctx context.Context, id uint) error {
	defer s.lock()()
	return s.data.DeleteQuestion(ctx, id)
}

func (s *MemoryStore) CreateAnswer(ctx context.Context, a *models.Answer) error {
	defer s.lock()()
	return s.data.CreateAnswer(ctx, a)
}

func (s *MemoryStore) GetAnswer(ctx context.Context, id uint) (models.Answer, error) {
	defer s.lock()()
	return s.data.GetAnswer(ctx, id)
}

func (s *MemoryStore) ListAnswers(ctx context.Context, f forum.AnswerFilter) ([]models.Answer, int64, error) {
	defer s.lock()()
	return s.data.ListAnswers(ctx, f)
}

func (s *MemoryStore) AnswersForQuestion(ctx context.Context, questionID uint) ([]models.Answer, error) {
	defer s.lock()()
	return s.data.AnswersForQuestion(ctx, questionID)
}

func (s *MemoryStore) UpdateAnswerContent(ctx context.Context, id uint, content string) error {
	defer s.lock()()
	return s.data.UpdateAnswerContent(ctx, id, content)
}

func (s *MemoryStore) SetAnswerAccepted(ctx context.Context, id uint, accepted bool) error {
	defer s.lock()()
	return s.data.SetAnswerAccepted(ctx, id, accepted)
}

func (s *MemoryStore) DeleteAnswersOf(ctx context.Context, questionID uint) error {
	defer s.lock()()
	return s.data.DeleteAnswersOf(ctx, questionID)
}

func (s *MemoryStore) DeleteAnswer(ctx context.Context, id uint) error {
	defer s.lock()()
	return s.data.DeleteAnswer(ctx, id)
}

func (s *MemoryStore) EnsureTag(ctx context.Context, name, description string) (models.Tag, error) {
	defer s.lock()()
	return s.data.EnsureTag(ctx, name, description)
}

func (s *MemoryStore) CreateTag(ctx context.Context, t *models.Tag) error {
	defer s.lock()()
	return s.data.CreateTag(ctx, t)
}

func (s *MemoryStore) ListTags(ctx context.Context, f forum.TagFilter) ([]models.Tag, int64, error) {
	defer s.lock()()
	return s.data.ListTags(ctx, f)
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	defer s.lock()()
	return s.data.CreateUser(ctx, u)
}

func (s *MemoryStore) GetUser(ctx context.Context, id uint) (models.User, error) {
	defer s.lock()()
	return s.data.GetUser(ctx, id)
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	defer s.lock()()
	return s.data.FindUserByEmail(ctx, email)
}

func (s *MemoryStore) ListUsers(ctx context.Context, f forum.UserFilter) ([]models.User, int64, error) {
	defer s.lock()()
	return s.data.ListUsers(ctx, f)
}

func (s *MemoryStore) SetUserBanned(ctx context.Context, id uint, banned bool) error {
	defer s.lock()()
	return s.data.SetUserBanned(ctx, id, banned)
}

func (s *MemoryStore) SetUserRole(ctx context.Context, id uint, role models.Role) error {
	defer s.lock()()
	return s.data.SetUserRole(ctx, id, role)
}

func (s *MemoryStore) SetUserAvatar(ctx context.Context, id uint, url string) error {
	defer s.lock()()
	return s.data.SetUserAvatar(ctx, id, url)
}

func (s *MemoryStore) AdjustReputation(ctx context.Context, id uint, delta int) error {
	defer s.lock()()
	return s.data.AdjustReputation(ctx, id, delta)
}

func (s *MemoryStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	defer s.lock()()
	return s.data.CreateNotification(ctx, n)
}

func (s *MemoryStore) ListNotifications(ctx context.Context, recipientID uint, unreadOnly bool, p forum.Page) ([]models.Notification, int64, error) {
	defer s.lock()()
	return s.data.ListNotifications(ctx, recipientID, unreadOnly, p)
}

func (s *MemoryStore) MarkNotificationRead(ctx context.Context, id, recipientID uint) error {
	defer s.lock()()
	return s.data.MarkNotificationRead(ctx, id, recipientID)
}
