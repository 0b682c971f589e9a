// Package search indexes questions, answers, users and tags and answers
// free-text queries, preferring Meilisearch and falling back to the store.
package search

import (
	"strings"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

type ResultType string

const (
	ResultQuestion ResultType = "questions"
	ResultAnswer   ResultType = "answers"
	ResultUser     ResultType = "users"
	ResultTag      ResultType = "tags"
)

// ParseType maps the ?type= parameter. "all" and "" mean every type.
func ParseType(s string) (ResultType, bool) {
	switch t := ResultType(strings.ToLower(strings.TrimSpace(s))); t {
	case "", "all":
		return "", true
	case ResultQuestion, ResultAnswer, ResultUser, ResultTag:
		return t, true
	}
	return "", false
}

type Result struct {
	Type       ResultType `json:"type"`
	ID         uint       `json:"id"`
	Title      string     `json:"title"`
	Snippet    string     `json:"snippet"`
	QuestionID uint       `json:"questionId,omitempty"`
}

type Query struct {
	Text   string
	Type   ResultType // empty = all types
	Limit  int
	Offset int
}

type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

type QuestionRecord struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	AuthorID    uint     `json:"authorId"`
	Votes       int      `json:"votes"`
}

type AnswerRecord struct {
	ID         uint   `json:"id"`
	Content    string `json:"content"`
	QuestionID uint   `json:"questionId"`
	AuthorID   uint   `json:"authorId"`
	Votes      int    `json:"votes"`
	IsAccepted bool   `json:"isAccepted"`
}

type UserRecord struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	Reputation int    `json:"reputation"`
}

type TagRecord struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func questionRecord(q models.Question) QuestionRecord {
	tags := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		tags = append(tags, t.Name)
	}
	return QuestionRecord{ID: q.ID, Title: q.Title, Description: q.Description, Tags: tags, AuthorID: q.AuthorID, Votes: q.Votes}
}

func answerRecord(a models.Answer) AnswerRecord {
	return AnswerRecord{ID: a.ID, Content: a.Content, QuestionID: a.QuestionID, AuthorID: a.AuthorID, Votes: a.Votes, IsAccepted: a.IsAccepted}
}

func userRecord(u models.User) UserRecord {
	return UserRecord{ID: u.ID, Username: u.Username, Reputation: u.Reputation}
}

func tagRecord(t models.Tag) TagRecord {
	return TagRecord{ID: t.ID, Name: t.Name, Description: t.Description}
}

// Searcher executes a free-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Engine is a search backend that can also be written to.
type Engine interface {
	Searcher
	IndexQuestion(r QuestionRecord) error
	IndexAnswer(r AnswerRecord) error
	IndexUser(r UserRecord) error
	IndexTag(r TagRecord) error
	DeleteQuestion(id uint) error
	DeleteAnswer(id uint) error
}

func snippet(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
