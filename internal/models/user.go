package models

import "time"

type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleUser, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"type:varchar(16);not null;default:user" json:"role"`
	IsBanned     bool   `gorm:"not null;default:false" json:"isBanned"`
	Reputation   int    `gorm:"not null;default:0" json:"reputation"`
	Avatar       string `json:"avatar"` // object URL after upload
	Phone        string `json:"-"`      // E.164, used for SMS notifications

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserSummary is the public projection embedded in questions and answers.
type UserSummary struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	Reputation int    `json:"reputation"`
	Avatar     string `json:"avatar,omitempty"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Reputation: u.Reputation, Avatar: u.Avatar}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
