package models

import "time"

type NotificationType string

const (
	NotificationAnswer   NotificationType = "answer"
	NotificationAccepted NotificationType = "accepted"
	NotificationMention  NotificationType = "mention"
)

type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index" json:"recipientId"`
	Type        NotificationType `gorm:"type:varchar(16);not null" json:"type"`
	Title       string           `gorm:"not null" json:"title"`
	Message     string           `gorm:"not null" json:"message"`
	RelatedID   uint             `gorm:"not null" json:"relatedId"`
	IsRead      bool             `gorm:"not null;default:false" json:"isRead"`
	CreatedAt   time.Time        `json:"createdAt"`
}
