package store

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

// MemoryStore keeps everything in process. Transactions are serialized by a
// single mutex and rolled back by replaying an undo log of the entries they
// overwrote, so a write costs only what it touches.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
}

var _ forum.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemData()}
}

type memData struct {
	seq           map[string]uint
	users         map[uint]models.User
	questions     map[uint]models.Question
	questionTags  map[uint][]uint
	answers       map[uint]models.Answer
	tags          map[uint]models.Tag
	votes         map[uint]models.Vote
	notifications map[uint]models.Notification

	inTx bool
	undo []func()
}

func newMemData() *memData {
	return &memData{
		seq:           map[string]uint{},
		users:         map[uint]models.User{},
		questions:     map[uint]models.Question{},
		questionTags:  map[uint][]uint{},
		answers:       map[uint]models.Answer{},
		tags:          map[uint]models.Tag{},
		votes:         map[uint]models.Vote{},
		notifications: map[uint]models.Notification{},
	}
}

// put and drop write through to m, logging the previous entry while a
// transaction is open.
func put[K comparable, V any](d *memData, m map[K]V, k K, v V) {
	record(d, m, k)
	m[k] = v
}

func drop[K comparable, V any](d *memData, m map[K]V, k K) {
	record(d, m, k)
	delete(m, k)
}

func record[K comparable, V any](d *memData, m map[K]V, k K) {
	if !d.inTx {
		return
	}
	old, existed := m[k]
	d.undo = append(d.undo, func() {
		if existed {
			m[k] = old
		} else {
			delete(m, k)
		}
	})
}

func (d *memData) begin() {
	d.inTx, d.undo = true, d.undo[:0]
}

// end closes the transaction, replaying the undo log newest first on rollback.
func (d *memData) end(rollback bool) {
	if rollback {
		for i := len(d.undo) - 1; i >= 0; i-- {
			d.undo[i]()
		}
	}
	clear(d.undo)
	d.inTx, d.undo = false, d.undo[:0]
}

func (d *memData) next(table string) uint {
	put(d, d.seq, table, d.seq[table]+1)
	return d.seq[table]
}

func (s *MemoryStore) lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx forum.Tx) error) error {
	defer s.lock()()
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data.begin()
	rollback := true
	defer func() { s.data.end(rollback) }()
	err := fn(s.data)
	rollback = err != nil
	return err
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func paginate[T any](items []T, p forum.Page) []T {
	off := p.Offset()
	if off >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && off+p.Limit < end {
		end = off + p.Limit
	}
	return items[off:end]
}

// votes

func (d *memData) FindVote(_ context.Context, key forum.VoteKey) (models.Vote, error) {
	for _, v := range d.votes {
		if v.UserID == key.UserID && v.TargetID == key.Target.ID && v.TargetType == key.Target.Type {
			return v, nil
		}
	}
	return models.Vote{}, forum.ErrNotFound
}

func (d *memData) InsertVote(ctx context.Context, v *models.Vote) error {
	key := forum.VoteKey{UserID: v.UserID, Target: forum.Target{Type: v.TargetType, ID: v.TargetID}}
	if _, err := d.FindVote(ctx, key); err == nil {
		return forum.ErrConflict
	}
	now := time.Now()
	v.ID = d.next("votes")
	v.CreatedAt, v.UpdatedAt = now, now
	put(d, d.votes, v.ID, *v)
	return nil
}

func (d *memData) SwapVoteValue(_ context.Context, id uint, from, to int) error {
	v, ok := d.votes[id]
	if !ok || v.Value != from {
		return forum.ErrConflict
	}
	v.Value = to
	v.UpdatedAt = time.Now()
	put(d, d.votes, id, v)
	return nil
}

func (d *memData) DeleteVoteIfValue(_ context.Context, id uint, value int) error {
	v, ok := d.votes[id]
	if !ok || v.Value != value {
		return forum.ErrConflict
	}
	drop(d, d.votes, id)
	return nil
}

func (d *memData) AdjustTargetVotes(_ context.Context, target forum.Target, delta int) (int, error) {
	switch target.Type {
	case models.TargetQuestion:
		q, ok := d.questions[target.ID]
		if !ok {
			return 0, forum.ErrNotFound
		}
		q.Votes += delta
		put(d, d.questions, q.ID, q)
		return q.Votes, nil
	case models.TargetAnswer:
		a, ok := d.answers[target.ID]
		if !ok {
			return 0, forum.ErrNotFound
		}
		a.Votes += delta
		put(d, d.answers, a.ID, a)
		return a.Votes, nil
	}
	return 0, forum.ErrInvalidArgument
}

func (d *memData) TargetAuthor(_ context.Context, target forum.Target) (uint, error) {
	switch target.Type {
	case models.TargetQuestion:
		if q, ok := d.questions[target.ID]; ok {
			return q.AuthorID, nil
		}
	case models.TargetAnswer:
		if a, ok := d.answers[target.ID]; ok {
			return a.AuthorID, nil
		}
	default:
		return 0, forum.ErrInvalidArgument
	}
	return 0, forum.ErrNotFound
}

func (d *memData) SumTargetVotes(_ context.Context, target forum.Target) (int, error) {
	sum := 0
	for _, v := range d.votes {
		if v.TargetID == target.ID && v.TargetType == target.Type {
			sum += v.Value
		}
	}
	return sum, nil
}

func (d *memData) DeleteTargetVotes(_ context.Context, targetType models.TargetType, ids ...uint) error {
	for id, v := range d.votes {
		if v.TargetType == targetType && slices.Contains(ids, v.TargetID) {
			drop(d, d.votes, id)
		}
	}
	return nil
}

// questions

func (d *memData) hydrateQuestion(q models.Question) models.Question {
	q.Author = d.users[q.AuthorID]
	q.Tags = make([]models.Tag, 0, len(d.questionTags[q.ID]))
	for _, id := range d.questionTags[q.ID] {
		q.Tags = append(q.Tags, d.tags[id])
	}
	q.AnswerIDs = slices.Clone(q.AnswerIDs)
	return q
}

func (d *memData) CreateQuestion(_ context.Context, q *models.Question) error {
	now := time.Now()
	q.ID = d.next("questions")
	q.CreatedAt, q.UpdatedAt = now, now
	if q.AnswerIDs == nil {
		q.AnswerIDs = []int64{}
	}
	stored := *q
	stored.Tags = nil
	stored.Author = models.User{}
	stored.AnswerIDs = slices.Clone(q.AnswerIDs)
	put(d, d.questions, q.ID, stored)
	ids := make([]uint, 0, len(q.Tags))
	for _, t := range q.Tags {
		ids = append(ids, t.ID)
	}
	put(d, d.questionTags, q.ID, ids)
	return nil
}

func (d *memData) GetQuestion(_ context.Context, id uint) (models.Question, error) {
	q, ok := d.questions[id]
	if !ok {
		return models.Question{}, forum.ErrNotFound
	}
	return d.hydrateQuestion(q), nil
}

func (d *memData) LockQuestion(ctx context.Context, id uint) (models.Question, error) {
	return d.GetQuestion(ctx, id)
}

func (d *memData) hasTag(questionID uint, name string) bool {
	for _, id := range d.questionTags[questionID] {
		if d.tags[id].Name == name {
			return true
		}
	}
	return false
}

func (d *memData) ListQuestions(_ context.Context, f forum.QuestionFilter) ([]models.Question, int64, error) {
	var out []models.Question
	for _, q := range d.questions {
		if f.AuthorID != 0 && q.AuthorID != f.AuthorID {
			continue
		}
		if f.TagName != "" && !d.hasTag(q.ID, f.TagName) {
			continue
		}
		if f.Search != "" && !contains(q.Title, f.Search) && !contains(q.Description, f.Search) {
			continue
		}
		out = append(out, q)
	}
	key := func(q models.Question) int64 {
		switch f.SortBy {
		case forum.SortVotes:
			return int64(q.Votes)
		case forum.SortViews:
			return int64(q.Views)
		}
		return q.CreatedAt.UnixNano()
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if ki == kj {
			ki, kj = int64(out[i].ID), int64(out[j].ID)
		}
		if f.Desc {
			return ki > kj
		}
		return ki < kj
	})
	page := paginate(out, f.Page)
	for i := range page {
		page[i] = d.hydrateQuestion(page[i])
	}
	return page, int64(len(out)), nil
}

func (d *memData) UpdateQuestion(_ context.Context, id uint, title, description string, tags []models.Tag) error {
	q, ok := d.questions[id]
	if !ok {
		return forum.ErrNotFound
	}
	q.Title, q.Description = title, description
	q.UpdatedAt = time.Now()
	put(d, d.questions, id, q)
	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	put(d, d.questionTags, id, ids)
	return nil
}

func (d *memData) updateQuestion(id uint, fn func(q *models.Question)) error {
	q, ok := d.questions[id]
	if !ok {
		return forum.ErrNotFound
	}
	fn(&q)
	put(d, d.questions, id, q)
	return nil
}

func (d *memData) SetQuestionClosed(_ context.Context, id uint, closed bool) error {
	return d.updateQuestion(id, func(q *models.Question) { q.IsClosed = closed })
}

func (d *memData) IncrementViews(_ context.Context, id uint) error {
	return d.updateQuestion(id, func(q *models.Question) { q.Views++ })
}

func (d *memData) SetAcceptedAnswer(_ context.Context, questionID uint, answerID *uint) error {
	return d.updateQuestion(questionID, func(q *models.Question) {
		if answerID == nil {
			q.AcceptedAnswerID = nil
			return
		}
		id := *answerID
		q.AcceptedAnswerID = &id
	})
}

func (d *memData) ClearAcceptedAnswerIf(_ context.Context, questionID, answerID uint) error {
	q, ok := d.questions[questionID]
	if !ok || q.AcceptedAnswerID == nil || *q.AcceptedAnswerID != answerID {
		return nil
	}
	q.AcceptedAnswerID = nil
	put(d, d.questions, questionID, q)
	return nil
}

func (d *memData) AppendAnswerRef(_ context.Context, questionID, answerID uint) error {
	return d.updateQuestion(questionID, func(q *models.Question) {
		q.AnswerIDs = append(slices.Clone(q.AnswerIDs), int64(answerID))
	})
}

func (d *memData) RemoveAnswerRef(_ context.Context, questionID, answerID uint) error {
	q, ok := d.questions[questionID]
	if !ok {
		return nil
	}
	q.AnswerIDs = slices.DeleteFunc(slices.Clone(q.AnswerIDs), func(id int64) bool { return id == int64(answerID) })
	put(d, d.questions, questionID, q)
	return nil
}

func (d *memData) DeleteQuestion(_ context.Context, id uint) error {
	if _, ok := d.questions[id]; !ok {
		return forum.ErrNotFound
	}
	drop(d, d.questions, id)
	drop(d, d.questionTags, id)
	return nil
}

// answers

func (d *memData) hydrateAnswer(a models.Answer) models.Answer {
	a.Author = d.users[a.AuthorID]
	return a
}

func (d *memData) CreateAnswer(_ context.Context, a *models.Answer) error {
	now := time.Now()
	a.ID = d.next("answers")
	a.CreatedAt, a.UpdatedAt = now, now
	stored := *a
	stored.Author = models.User{}
	put(d, d.answers, a.ID, stored)
	return nil
}

func (d *memData) GetAnswer(_ context.Context, id uint) (models.Answer, error) {
	a, ok := d.answers[id]
	if !ok {
		return models.Answer{}, forum.ErrNotFound
	}
	return d.hydrateAnswer(a), nil
}

func (d *memData) ListAnswers(_ context.Context, f forum.AnswerFilter) ([]models.Answer, int64, error) {
	var out []models.Answer
	for _, a := range d.answers {
		if f.QuestionID != 0 && a.QuestionID != f.QuestionID {
			continue
		}
		if f.AuthorID != 0 && a.AuthorID != f.AuthorID {
			continue
		}
		if f.Search != "" && !contains(a.Content, f.Search) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano()
		if f.SortBy == forum.SortVotes {
			ki, kj = int64(out[i].Votes), int64(out[j].Votes)
		}
		if ki == kj {
			ki, kj = int64(out[i].ID), int64(out[j].ID)
		}
		if f.Desc {
			return ki > kj
		}
		return ki < kj
	})
	page := paginate(out, f.Page)
	for i := range page {
		page[i] = d.hydrateAnswer(page[i])
	}
	return page, int64(len(out)), nil
}

func (d *memData) AnswersForQuestion(_ context.Context, questionID uint) ([]models.Answer, error) {
	out := []models.Answer{}
	for _, a := range d.answers {
		if a.QuestionID == questionID {
			out = append(out, d.hydrateAnswer(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (d *memData) UpdateAnswerContent(_ context.Context, id uint, content string) error {
	a, ok := d.answers[id]
	if !ok {
		return forum.ErrNotFound
	}
	a.Content = content
	a.UpdatedAt = time.Now()
	put(d, d.answers, id, a)
	return nil
}

func (d *memData) SetAnswerAccepted(_ context.Context, id uint, accepted bool) error {
	a, ok := d.answers[id]
	if !ok {
		return forum.ErrNotFound
	}
	a.IsAccepted = accepted
	put(d, d.answers, id, a)
	return nil
}

func (d *memData) DeleteAnswersOf(_ context.Context, questionID uint) error {
	for id, a := range d.answers {
		if a.QuestionID == questionID {
			drop(d, d.answers, id)
		}
	}
	return nil
}

func (d *memData) DeleteAnswer(_ context.Context, id uint) error {
	if _, ok := d.answers[id]; !ok {
		return forum.ErrNotFound
	}
	drop(d, d.answers, id)
	return nil
}

// tags

func (d *memData) tagByName(name string) (models.Tag, bool) {
	for _, t := range d.tags {
		if t.Name == name {
			return t, true
		}
	}
	return models.Tag{}, false
}

func (d *memData) EnsureTag(_ context.Context, name, description string) (models.Tag, error) {
	if t, ok := d.tagByName(name); ok {
		return t, nil
	}
	t := models.Tag{ID: d.next("tags"), Name: name, Description: description}
	put(d, d.tags, t.ID, t)
	return t, nil
}

func (d *memData) CreateTag(_ context.Context, t *models.Tag) error {
	if _, ok := d.tagByName(t.Name); ok {
		return forum.ErrConflict
	}
	t.ID = d.next("tags")
	put(d, d.tags, t.ID, *t)
	return nil
}

func (d *memData) ListTags(_ context.Context, f forum.TagFilter) ([]models.Tag, int64, error) {
	var out []models.Tag
	for _, t := range d.tags {
		if f.Search != "" && !contains(t.Name, f.Search) && !contains(t.Description, f.Search) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, f.Page), int64(len(out)), nil
}

// users

func (d *memData) CreateUser(_ context.Context, u *models.User) error {
	for _, existing := range d.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return forum.ErrConflict
		}
	}
	now := time.Now()
	u.ID = d.next("users")
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	put(d, d.users, u.ID, *u)
	return nil
}

func (d *memData) GetUser(_ context.Context, id uint) (models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return models.User{}, forum.ErrNotFound
	}
	return u, nil
}

func (d *memData) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, forum.ErrNotFound
}

func (d *memData) ListUsers(_ context.Context, f forum.UserFilter) ([]models.User, int64, error) {
	var out []models.User
	for _, u := range d.users {
		if f.Search != "" && !contains(u.Username, f.Search) && !contains(u.Email, f.Search) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Reputation != out[j].Reputation {
			return out[i].Reputation > out[j].Reputation
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Page), int64(len(out)), nil
}

func (d *memData) updateUser(id uint, fn func(u *models.User)) error {
	u, ok := d.users[id]
	if !ok {
		return forum.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	put(d, d.users, id, u)
	return nil
}

func (d *memData) SetUserBanned(_ context.Context, id uint, banned bool) error {
	return d.updateUser(id, func(u *models.User) { u.IsBanned = banned })
}

func (d *memData) SetUserRole(_ context.Context, id uint, role models.Role) error {
	return d.updateUser(id, func(u *models.User) { u.Role = role })
}

func (d *memData) SetUserAvatar(_ context.Context, id uint, url string) error {
	return d.updateUser(id, func(u *models.User) { u.Avatar = url })
}

func (d *memData) AdjustReputation(_ context.Context, id uint, delta int) error {
	return d.updateUser(id, func(u *models.User) { u.Reputation += delta })
}

// notifications

func (d *memData) CreateNotification(_ context.Context, n *models.Notification) error {
	n.ID = d.next("notifications")
	n.CreatedAt = time.Now()
	put(d, d.notifications, n.ID, *n)
	return nil
}

func (d *memData) ListNotifications(_ context.Context, recipientID uint, unreadOnly bool, p forum.Page) ([]models.Notification, int64, error) {
	var out []models.Notification
	for _, n := range d.notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, p), int64(len(out)), nil
}

func (d *memData) MarkNotificationRead(_ context.Context, id, recipientID uint) error {
	n, ok := d.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return forum.ErrNotFound
	}
	n.IsRead = true
	put(d, d.notifications, id, n)
	return nil
}
