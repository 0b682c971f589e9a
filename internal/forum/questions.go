package forum

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

const defaultQuestionLimit = 10

type ListQuestionsParams struct {
	Page      int
	Limit     int
	Tag       string
	Search    string
	SortBy    string
	SortOrder string
}

// ParseSort maps the API sort names onto store columns. Unknown names fall
// back to creation time; order defaults to descending.
func ParseSort(sortBy, sortOrder string, allowViews bool) (SortField, bool) {
	field := SortCreated
	switch sortBy {
	case "votes":
		field = SortVotes
	case "views":
		if allowViews {
			field = SortViews
		}
	}
	return field, !strings.EqualFold(sortOrder, "asc")
}

func validateQuestion(title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if n := utf8.RuneCountInString(title); n < 5 || n > 200 {
		return "", "", newError(ErrInvalidArgument, "title must be 5 to 200 characters")
	}
	if utf8.RuneCountInString(description) < 10 {
		return "", "", newError(ErrInvalidArgument, "description must be at least 10 characters")
	}
	return title, description, nil
}

func (s *Service) CreateQuestion(ctx context.Context, actor Actor, req models.CreateQuestionRequest) (QuestionView, error) {
	if actor.UserID == 0 {
		return QuestionView{}, newError(ErrUnauthorized, "authentication required")
	}
	title, description, err := validateQuestion(req.Title, req.Description)
	if err != nil {
		return QuestionView{}, err
	}
	names, err := normalizeTags(req.Tags)
	if err != nil {
		return QuestionView{}, err
	}

	var id uint
	err = s.store.Transaction(ctx, func(tx Tx) error {
		tags, err := ensureTags(ctx, tx, names)
		if err != nil {
			return err
		}
		q := &models.Question{
			Title:       title,
			Description: description,
			AuthorID:    actor.UserID,
			Tags:        tags,
			AnswerIDs:   []int64{},
		}
		if err := tx.CreateQuestion(ctx, q); err != nil {
			return fmt.Errorf("create question: %w", err)
		}
		id = q.ID
		return nil
	})
	if err != nil {
		return QuestionView{}, err
	}

	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return QuestionView{}, err
	}
	s.indexer.IndexQuestion(q)
	return questionView(q), nil
}

// GetQuestion returns the question with its answers ordered by votes, then
// age. When countView is set the view counter is bumped first.
func (s *Service) GetQuestion(ctx context.Context, id, viewerID uint, countView bool) (QuestionDetail, error) {
	if countView {
		if err := s.store.IncrementViews(ctx, id); err != nil {
			return QuestionDetail{}, notFound(err, "question not found")
		}
	}
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return QuestionDetail{}, notFound(err, "question not found")
	}
	answers, err := s.store.AnswersForQuestion(ctx, id)
	if err != nil {
		return QuestionDetail{}, err
	}
	detail := QuestionDetail{QuestionView: questionView(q), Answers: make([]AnswerView, 0, len(answers))}
	for _, a := range answers {
		detail.Answers = append(detail.Answers, answerView(a))
	}
	detail.UserVote, err = s.UserVote(ctx, viewerID, Target{Type: models.TargetQuestion, ID: id})
	if err != nil {
		return QuestionDetail{}, err
	}
	return detail, nil
}

func (s *Service) ListQuestions(ctx context.Context, p ListQuestionsParams) ([]QuestionView, Pagination, error) {
	page := NewPage(p.Page, p.Limit, defaultQuestionLimit)
	field, desc := ParseSort(p.SortBy, p.SortOrder, true)
	qs, total, err := s.store.ListQuestions(ctx, QuestionFilter{
		Page:    page,
		TagName: NormalizeTag(p.Tag),
		Search:  strings.TrimSpace(p.Search),
		SortBy:  field,
		Desc:    desc,
	})
	if err != nil {
		return nil, Pagination{}, err
	}
	views := make([]QuestionView, 0, len(qs))
	for _, q := range qs {
		views = append(views, questionView(q))
	}
	return views, page.Info(total), nil
}

// AuthorizeQuestion returns the question if actor may modify it.
func (s *Service) AuthorizeQuestion(ctx context.Context, actor Actor, id uint) (models.Question, error) {
	if actor.UserID == 0 {
		return models.Question{}, newError(ErrUnauthorized, "authentication required")
	}
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return models.Question{}, notFound(err, "question not found")
	}
	if !CanModify(actor, q.AuthorID) {
		return models.Question{}, newError(ErrForbidden, "you can only modify your own questions")
	}
	return q, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, actor Actor, id uint, req models.UpdateQuestionRequest) (QuestionView, error) {
	if _, err := s.AuthorizeQuestion(ctx, actor, id); err != nil {
		return QuestionView{}, err
	}
	title, description, err := validateQuestion(req.Title, req.Description)
	if err != nil {
		return QuestionView{}, err
	}
	names, err := normalizeTags(req.Tags)
	if err != nil {
		return QuestionView{}, err
	}
	err = s.store.Transaction(ctx, func(tx Tx) error {
		tags, err := ensureTags(ctx, tx, names)
		if err != nil {
			return err
		}
		if err := tx.UpdateQuestion(ctx, id, title, description, tags); err != nil {
			return notFound(err, "question not found")
		}
		return nil
	})
	if err != nil {
		return QuestionView{}, err
	}
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return QuestionView{}, notFound(err, "question not found")
	}
	s.indexer.IndexQuestion(q)
	return questionView(q), nil
}

// CloseQuestion opens or closes a question for new answers.
func (s *Service) CloseQuestion(ctx context.Context, actor Actor, id uint, closed bool) (QuestionView, error) {
	if _, err := s.AuthorizeQuestion(ctx, actor, id); err != nil {
		return QuestionView{}, err
	}
	if err := s.store.SetQuestionClosed(ctx, id, closed); err != nil {
		return QuestionView{}, notFound(err, "question not found")
	}
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return QuestionView{}, notFound(err, "question not found")
	}
	return questionView(q), nil
}

// DeleteQuestion removes a question together with its answers, their votes and
// its tag links. Answers go first so none is ever left pointing at a missing
// question. Reputation earned through the deleted votes and acceptance is
// taken back.
func (s *Service) DeleteQuestion(ctx context.Context, id uint) error {
	var answerIDs []uint
	err := s.store.Transaction(ctx, func(tx Tx) error {
		q, err := tx.LockQuestion(ctx, id)
		if err != nil {
			return notFound(err, "question not found")
		}
		answers, err := tx.AnswersForQuestion(ctx, id)
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(answers))
		for _, a := range answers {
			if err := dropAcceptanceBonus(ctx, tx, q.AuthorID, a); err != nil {
				return fmt.Errorf("revert acceptance bonus: %w", err)
			}
			if err := reverseVoteReputation(ctx, tx, Target{Type: models.TargetAnswer, ID: a.ID}, a.AuthorID); err != nil {
				return fmt.Errorf("revert answer vote reputation: %w", err)
			}
			ids = append(ids, a.ID)
		}
		if err := reverseVoteReputation(ctx, tx, Target{Type: models.TargetQuestion, ID: id}, q.AuthorID); err != nil {
			return fmt.Errorf("revert question vote reputation: %w", err)
		}
		if len(ids) > 0 {
			if err := tx.DeleteTargetVotes(ctx, models.TargetAnswer, ids...); err != nil {
				return fmt.Errorf("delete answer votes: %w", err)
			}
		}
		if err := tx.DeleteAnswersOf(ctx, id); err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		if err := tx.DeleteTargetVotes(ctx, models.TargetQuestion, id); err != nil {
			return fmt.Errorf("delete question votes: %w", err)
		}
		if err := tx.DeleteQuestion(ctx, id); err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		answerIDs = ids
		return nil
	})
	if err != nil {
		return err
	}
	for _, aid := range answerIDs {
		s.indexer.RemoveAnswer(aid)
	}
	s.indexer.RemoveQuestion(id)
	return nil
}
