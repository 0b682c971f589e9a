package forum

import (
	"context"
	"errors"
	"fmt"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

// AcceptAnswer marks answerID as the accepted answer of questionID. Only the
// question author may do this. Accepting the already-accepted answer is a no-op.
func (s *Service) AcceptAnswer(ctx context.Context, questionID, answerID, callerID uint) error {
	if callerID == 0 {
		return newError(ErrUnauthorized, "authentication required")
	}

	var (
		question models.Question
		answer   models.Answer
		changed  bool
	)
	err := s.store.Transaction(ctx, func(tx Tx) error {
		q, err := tx.LockQuestion(ctx, questionID)
		if err != nil {
			return notFound(err, "question not found")
		}
		if q.AuthorID != callerID {
			return newError(ErrForbidden, "only the question author can accept an answer")
		}
		a, err := tx.GetAnswer(ctx, answerID)
		if err != nil {
			return notFound(err, "answer not found")
		}
		if a.QuestionID != questionID || !q.HasAnswer(a.ID) {
			return newError(ErrInvalidArgument, "answer does not belong to this question")
		}
		question, answer = q, a

		if q.AcceptedAnswerID != nil && *q.AcceptedAnswerID == answerID {
			return nil
		}
		if q.AcceptedAnswerID != nil {
			if err := revokeAcceptance(ctx, tx, q, *q.AcceptedAnswerID); err != nil {
				return err
			}
		}
		id := answerID
		if err := tx.SetAcceptedAnswer(ctx, questionID, &id); err != nil {
			return fmt.Errorf("set accepted answer: %w", err)
		}
		if err := tx.SetAnswerAccepted(ctx, answerID, true); err != nil {
			return fmt.Errorf("mark answer accepted: %w", err)
		}
		if a.AuthorID != callerID {
			if err := tx.AdjustReputation(ctx, a.AuthorID, acceptanceBonus); err != nil {
				return err
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		return err
	}

	if changed && answer.AuthorID != callerID {
		s.notifier.Notify(ctx, models.Notification{
			RecipientID: answer.AuthorID,
			Type:        models.NotificationAccepted,
			Title:       "Your answer was accepted",
			Message:     fmt.Sprintf("Your answer to %q was accepted.", question.Title),
			RelatedID:   questionID,
		})
	}
	if changed {
		answer.IsAccepted = true
		s.indexer.IndexAnswer(answer)
	}
	return nil
}

// UnacceptAnswer clears the accepted answer of questionID.
func (s *Service) UnacceptAnswer(ctx context.Context, questionID, callerID uint) error {
	if callerID == 0 {
		return newError(ErrUnauthorized, "authentication required")
	}
	return s.store.Transaction(ctx, func(tx Tx) error {
		q, err := tx.LockQuestion(ctx, questionID)
		if err != nil {
			return notFound(err, "question not found")
		}
		if q.AuthorID != callerID {
			return newError(ErrForbidden, "only the question author can unaccept an answer")
		}
		if q.AcceptedAnswerID == nil {
			return nil
		}
		if err := revokeAcceptance(ctx, tx, q, *q.AcceptedAnswerID); err != nil {
			return err
		}
		return tx.SetAcceptedAnswer(ctx, questionID, nil)
	})
}

// revokeAcceptance clears the flag on a previously accepted answer and takes
// back its author's bonus. A previously accepted answer that is gone is skipped.
func revokeAcceptance(ctx context.Context, tx Tx, q models.Question, answerID uint) error {
	prev, err := tx.GetAnswer(ctx, answerID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.SetAnswerAccepted(ctx, prev.ID, false); err != nil {
		return fmt.Errorf("clear accepted flag: %w", err)
	}
	if prev.AuthorID != q.AuthorID {
		return tx.AdjustReputation(ctx, prev.AuthorID, -acceptanceBonus)
	}
	return nil
}

// dropAcceptanceBonus takes back the bonus of an accepted answer that is about
// to be deleted. Self-accepted answers never earned one.
func dropAcceptanceBonus(ctx context.Context, tx Tx, questionAuthorID uint, a models.Answer) error {
	if !a.IsAccepted || a.AuthorID == questionAuthorID {
		return nil
	}
	return tx.AdjustReputation(ctx, a.AuthorID, -acceptanceBonus)
}

func notFound(err error, msg string) error {
	if errors.Is(err, ErrNotFound) {
		return newError(ErrNotFound, "%s", msg)
	}
	return err
}
