package models

type Tag struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string `gorm:"size:200" json:"description"`
}

type CreateTagRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=50"`
	Description string `json:"description" binding:"required,min=5,max=200"`
}
