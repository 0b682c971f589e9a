package models

import "time"

type TargetType string

const (
	TargetQuestion TargetType = "question"
	TargetAnswer   TargetType = "answer"
)

func (t TargetType) Valid() bool {
	return t == TargetQuestion || t == TargetAnswer
}

// Vote is a ledger entry: one user's current opinion on one question or answer.
// (user_id, target_id, target_type) is unique.
type Vote struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_votes_user_target,priority:1" json:"userId"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_votes_user_target,priority:2;index:idx_votes_target,priority:1" json:"targetId"`
	TargetType TargetType `gorm:"type:varchar(16);not null;uniqueIndex:idx_votes_user_target,priority:3;index:idx_votes_target,priority:2" json:"targetType"`
	Value      int        `gorm:"not null;check:value IN (-1,1)" json:"value"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type VoteRequest struct {
	Value int `json:"value"`
}
