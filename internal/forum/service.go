package forum

import (
	"context"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

const (
	questionVoteWeight = 5
	answerVoteWeight   = 10
	acceptanceBonus    = 15

	maxVoteAttempts = 5
)

// Indexer receives documents after they are committed. Calls must not block.
type Indexer interface {
	IndexQuestion(q models.Question)
	IndexAnswer(a models.Answer)
	IndexTag(t models.Tag)
	IndexUser(u models.User)
	RemoveQuestion(id uint)
	RemoveAnswer(id uint)
}

// Notifier delivers a notification after the triggering change is committed.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

type nopIndexer struct{}

func (nopIndexer) IndexQuestion(models.Question) {}
func (nopIndexer) IndexAnswer(models.Answer)     {}
func (nopIndexer) IndexTag(models.Tag)           {}
func (nopIndexer) IndexUser(models.User)         {}
func (nopIndexer) RemoveQuestion(uint)           {}
func (nopIndexer) RemoveAnswer(uint)             {}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.Notification) {}

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID uint
	Role   models.Role
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// CanModify reports whether the actor may edit or delete content owned by authorID.
func CanModify(a Actor, authorID uint) bool {
	if a.UserID == 0 {
		return false
	}
	return a.UserID == authorID || a.IsAdmin()
}

type Service struct {
	store    Store
	indexer  Indexer
	notifier Notifier
}

type Option func(*Service)

func WithIndexer(i Indexer) Option {
	return func(s *Service) {
		if i != nil {
			s.indexer = i
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, indexer: nopIndexer{}, notifier: nopNotifier{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Store() Store { return s.store }
