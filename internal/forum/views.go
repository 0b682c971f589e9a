package forum

import "github.com/TheRealSoutrikDas/stackit/backend/internal/models"

type QuestionView struct {
	models.Question
	Author      models.UserSummary `json:"author"`
	AnswerCount int                `json:"answerCount"`
}

type AnswerView struct {
	models.Answer
	Author models.UserSummary `json:"author"`
}

// QuestionDetail is a question with its answers and the caller's votes.
type QuestionDetail struct {
	QuestionView
	Answers  []AnswerView `json:"answers"`
	UserVote int          `json:"userVote"`
}

func questionView(q models.Question) QuestionView {
	if q.Tags == nil {
		q.Tags = []models.Tag{}
	}
	if q.AnswerIDs == nil {
		q.AnswerIDs = []int64{}
	}
	return QuestionView{Question: q, Author: q.Author.Summary(), AnswerCount: len(q.AnswerIDs)}
}

func answerView(a models.Answer) AnswerView {
	return AnswerView{Answer: a, Author: a.Author.Summary()}
}
