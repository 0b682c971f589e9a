package models

import (
	"time"

	"github.com/lib/pq"
)

type Question struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	Title            string        `gorm:"size:200;not null" json:"title"`
	Description      string        `gorm:"type:text;not null" json:"description"`
	AuthorID         uint          `gorm:"not null;index" json:"authorId"`
	Author           User          `gorm:"foreignKey:AuthorID" json:"-"`
	Tags             []Tag         `gorm:"many2many:question_tags" json:"tags"`
	Votes            int           `gorm:"not null;default:0" json:"votes"`
	Views            int           `gorm:"not null;default:0" json:"views"`
	AnswerIDs        pq.Int64Array `gorm:"type:bigint[];not null;default:'{}'" json:"answerIds"`
	AcceptedAnswerID *uint         `gorm:"index" json:"acceptedAnswer"`
	IsClosed         bool          `gorm:"not null;default:false" json:"isClosed"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// HasAnswer reports whether answerID is in the question's ordered answer list.
func (q Question) HasAnswer(answerID uint) bool {
	for _, id := range q.AnswerIDs {
		if uint(id) == answerID {
			return true
		}
	}
	return false
}

type CreateQuestionRequest struct {
	Title       string   `json:"title" binding:"required,min=5,max=200"`
	Description string   `json:"description" binding:"required,min=10"`
	Tags        []string `json:"tags" binding:"required,min=1,max=5"`
}

type UpdateQuestionRequest struct {
	Title       string   `json:"title" binding:"required,min=5,max=200"`
	Description string   `json:"description" binding:"required,min=10"`
	Tags        []string `json:"tags" binding:"required,min=1,max=5"`
}

type CloseQuestionRequest struct {
	Closed bool `json:"closed"`
}

type AcceptAnswerRequest struct {
	AnswerID uint `json:"answerId" binding:"required"`
}
