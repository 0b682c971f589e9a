package forum

import (
	"context"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

// Target identifies a votable question or answer.
type Target struct {
	Type models.TargetType
	ID   uint
}

type VoteKey struct {
	UserID uint
	Target Target
}

type SortField string

const (
	SortCreated SortField = "created_at"
	SortVotes   SortField = "votes"
	SortViews   SortField = "views"
)

type QuestionFilter struct {
	Page
	TagName  string
	Search   string
	AuthorID uint
	SortBy   SortField
	Desc     bool
}

type AnswerFilter struct {
	Page
	QuestionID uint
	AuthorID   uint
	Search     string
	SortBy     SortField
	Desc       bool
}

type TagFilter struct {
	Page
	Search string
}

type UserFilter struct {
	Page
	Search string
}

// VoteStore is the ledger side of the store. Every mutation is a single
// atomic statement; callers combine them inside Store.Transaction.
type VoteStore interface {
	FindVote(ctx context.Context, key VoteKey) (models.Vote, error)
	// InsertVote returns ErrConflict when the (user, target) key already exists.
	InsertVote(ctx context.Context, v *models.Vote) error
	// SwapVoteValue changes the value only if it still equals from, else ErrConflict.
	SwapVoteValue(ctx context.Context, id uint, from, to int) error
	// DeleteVoteIfValue deletes only if the value still equals value, else ErrConflict.
	DeleteVoteIfValue(ctx context.Context, id uint, value int) error
	// AdjustTargetVotes adds delta to the target counter and returns the new value.
	AdjustTargetVotes(ctx context.Context, target Target, delta int) (int, error)
	TargetAuthor(ctx context.Context, target Target) (uint, error)
	SumTargetVotes(ctx context.Context, target Target) (int, error)
	DeleteTargetVotes(ctx context.Context, targetType models.TargetType, ids ...uint) error
}

type QuestionStore interface {
	CreateQuestion(ctx context.Context, q *models.Question) error
	GetQuestion(ctx context.Context, id uint) (models.Question, error)
	// LockQuestion loads the question row for update within a transaction.
	LockQuestion(ctx context.Context, id uint) (models.Question, error)
	ListQuestions(ctx context.Context, f QuestionFilter) ([]models.Question, int64, error)
	UpdateQuestion(ctx context.Context, id uint, title, description string, tags []models.Tag) error
	SetQuestionClosed(ctx context.Context, id uint, closed bool) error
	IncrementViews(ctx context.Context, id uint) error
	SetAcceptedAnswer(ctx context.Context, questionID uint, answerID *uint) error
	// ClearAcceptedAnswerIf unsets accepted_answer_id only when it equals answerID.
	ClearAcceptedAnswerIf(ctx context.Context, questionID, answerID uint) error
	AppendAnswerRef(ctx context.Context, questionID, answerID uint) error
	// RemoveAnswerRef is a no-op when the question no longer exists.
	RemoveAnswerRef(ctx context.Context, questionID, answerID uint) error
	DeleteQuestion(ctx context.Context, id uint) error
}

type AnswerStore interface {
	CreateAnswer(ctx context.Context, a *models.Answer) error
	GetAnswer(ctx context.Context, id uint) (models.Answer, error)
	ListAnswers(ctx context.Context, f AnswerFilter) ([]models.Answer, int64, error)
	// AnswersForQuestion returns answers sorted by votes desc, then oldest first.
	AnswersForQuestion(ctx context.Context, questionID uint) ([]models.Answer, error)
	UpdateAnswerContent(ctx context.Context, id uint, content string) error
	SetAnswerAccepted(ctx context.Context, id uint, accepted bool) error
	DeleteAnswersOf(ctx context.Context, questionID uint) error
	DeleteAnswer(ctx context.Context, id uint) error
}

type TagStore interface {
	// EnsureTag returns the tag with the given normalized name, creating it if absent.
	EnsureTag(ctx context.Context, name, description string) (models.Tag, error)
	CreateTag(ctx context.Context, t *models.Tag) error
	ListTags(ctx context.Context, f TagFilter) ([]models.Tag, int64, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uint) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error)
	SetUserBanned(ctx context.Context, id uint, banned bool) error
	SetUserRole(ctx context.Context, id uint, role models.Role) error
	SetUserAvatar(ctx context.Context, id uint, url string) error
	AdjustReputation(ctx context.Context, id uint, delta int) error
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, recipientID uint, unreadOnly bool, p Page) ([]models.Notification, int64, error)
	MarkNotificationRead(ctx context.Context, id, recipientID uint) error
}

// Tx is the set of operations available inside and outside a transaction.
type Tx interface {
	VoteStore
	QuestionStore
	AnswerStore
	TagStore
	UserStore
	NotificationStore
}

// Store is the persistence handle shared by all requests.
type Store interface {
	Tx
	// Transaction runs fn atomically. If fn returns an error nothing it did is kept.
	Transaction(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}
