package forum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

const defaultAnswerLimit = 10

type ListAnswersParams struct {
	QuestionID uint
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

func validateAnswer(content string) (string, error) {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) < 5 {
		return "", newError(ErrInvalidArgument, "answer must be at least 5 characters")
	}
	return content, nil
}

// CreateAnswer posts an answer and appends it to the question's answer list.
// Closed questions do not take new answers.
func (s *Service) CreateAnswer(ctx context.Context, actor Actor, req models.CreateAnswerRequest) (AnswerView, error) {
	if actor.UserID == 0 {
		return AnswerView{}, newError(ErrUnauthorized, "authentication required")
	}
	content, err := validateAnswer(req.Content)
	if err != nil {
		return AnswerView{}, err
	}

	var (
		question models.Question
		id       uint
	)
	err = s.store.Transaction(ctx, func(tx Tx) error {
		q, err := tx.LockQuestion(ctx, req.QuestionID)
		if err != nil {
			return notFound(err, "question not found")
		}
		if q.IsClosed {
			return newError(ErrInvalidArgument, "question is closed")
		}
		a := &models.Answer{Content: content, AuthorID: actor.UserID, QuestionID: q.ID}
		if err := tx.CreateAnswer(ctx, a); err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		if err := tx.AppendAnswerRef(ctx, q.ID, a.ID); err != nil {
			return fmt.Errorf("link answer: %w", err)
		}
		question, id = q, a.ID
		return nil
	})
	if err != nil {
		return AnswerView{}, err
	}

	a, err := s.store.GetAnswer(ctx, id)
	if err != nil {
		return AnswerView{}, err
	}
	s.indexer.IndexAnswer(a)
	if question.AuthorID != actor.UserID {
		s.notifier.Notify(ctx, models.Notification{
			RecipientID: question.AuthorID,
			Type:        models.NotificationAnswer,
			Title:       "New answer",
			Message:     fmt.Sprintf("%s answered your question %q.", a.Author.Username, question.Title),
			RelatedID:   question.ID,
		})
	}
	return answerView(a), nil
}

func (s *Service) GetAnswer(ctx context.Context, id uint) (AnswerView, error) {
	a, err := s.store.GetAnswer(ctx, id)
	if err != nil {
		return AnswerView{}, notFound(err, "answer not found")
	}
	return answerView(a), nil
}

func (s *Service) ListAnswers(ctx context.Context, p ListAnswersParams) ([]AnswerView, Pagination, error) {
	page := NewPage(p.Page, p.Limit, defaultAnswerLimit)
	field, desc := ParseSort(p.SortBy, p.SortOrder, false)
	as, total, err := s.store.ListAnswers(ctx, AnswerFilter{
		Page:       page,
		QuestionID: p.QuestionID,
		SortBy:     field,
		Desc:       desc,
	})
	if err != nil {
		return nil, Pagination{}, err
	}
	views := make([]AnswerView, 0, len(as))
	for _, a := range as {
		views = append(views, answerView(a))
	}
	return views, page.Info(total), nil
}

// AuthorizeAnswer returns the answer if actor may modify it.
func (s *Service) AuthorizeAnswer(ctx context.Context, actor Actor, id uint) (models.Answer, error) {
	if actor.UserID == 0 {
		return models.Answer{}, newError(ErrUnauthorized, "authentication required")
	}
	a, err := s.store.GetAnswer(ctx, id)
	if err != nil {
		return models.Answer{}, notFound(err, "answer not found")
	}
	if !CanModify(actor, a.AuthorID) {
		return models.Answer{}, newError(ErrForbidden, "you can only modify your own answers")
	}
	return a, nil
}

func (s *Service) UpdateAnswer(ctx context.Context, actor Actor, id uint, req models.UpdateAnswerRequest) (AnswerView, error) {
	if _, err := s.AuthorizeAnswer(ctx, actor, id); err != nil {
		return AnswerView{}, err
	}
	content, err := validateAnswer(req.Content)
	if err != nil {
		return AnswerView{}, err
	}
	if err := s.store.UpdateAnswerContent(ctx, id, content); err != nil {
		return AnswerView{}, notFound(err, "answer not found")
	}
	a, err := s.store.GetAnswer(ctx, id)
	if err != nil {
		return AnswerView{}, notFound(err, "answer not found")
	}
	s.indexer.IndexAnswer(a)
	return answerView(a), nil
}

// DeleteAnswer detaches the answer from its question, clearing the accepted
// answer if it was this one, then deletes its votes and the answer itself.
// Reputation earned through the answer's votes and acceptance is taken back.
func (s *Service) DeleteAnswer(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(tx Tx) error {
		a, err := tx.GetAnswer(ctx, id)
		if err != nil {
			return notFound(err, "answer not found")
		}
		q, err := tx.GetQuestion(ctx, a.QuestionID)
		switch {
		case err == nil:
			if err := dropAcceptanceBonus(ctx, tx, q.AuthorID, a); err != nil {
				return fmt.Errorf("revert acceptance bonus: %w", err)
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}
		if err := reverseVoteReputation(ctx, tx, Target{Type: models.TargetAnswer, ID: a.ID}, a.AuthorID); err != nil {
			return fmt.Errorf("revert answer vote reputation: %w", err)
		}
		if err := tx.RemoveAnswerRef(ctx, a.QuestionID, a.ID); err != nil {
			return fmt.Errorf("unlink answer: %w", err)
		}
		if err := tx.ClearAcceptedAnswerIf(ctx, a.QuestionID, a.ID); err != nil {
			return fmt.Errorf("clear accepted answer: %w", err)
		}
		if err := tx.DeleteTargetVotes(ctx, models.TargetAnswer, a.ID); err != nil {
			return fmt.Errorf("delete answer votes: %w", err)
		}
		if err := tx.DeleteAnswer(ctx, a.ID); err != nil {
			return fmt.Errorf("delete answer: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.indexer.RemoveAnswer(id)
	return nil
}
