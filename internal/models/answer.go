package models

import "time"

type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	AuthorID   uint      `gorm:"not null;index" json:"authorId"`
	Author     User      `gorm:"foreignKey:AuthorID" json:"-"`
	QuestionID uint      `gorm:"<-:create;not null;index" json:"questionId"` // immutable once created
	Votes      int       `gorm:"not null;default:0" json:"votes"`
	IsAccepted bool      `gorm:"not null;default:false" json:"isAccepted"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type CreateAnswerRequest struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	Content    string `json:"content" binding:"required,min=5"`
}

type UpdateAnswerRequest struct {
	Content string `json:"content" binding:"required,min=5"`
}
