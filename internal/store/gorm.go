// Package store implements forum.Store on PostgreSQL (through gorm) and in memory.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// GormStore is the PostgreSQL-backed store.
type GormStore struct {
	gormTx
}

var _ forum.Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{gormTx{db: db}}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx forum.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{db: tx})
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translate maps driver errors onto the forum error kinds.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return forum.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return forum.ErrConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %s", forum.ErrConflict, pgErr.Message)
		}
	}
	return err
}

func affected(res *gorm.DB, missing error) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return missing
	}
	return nil
}

func like(s string) string { return "%" + s + "%" }

func orderBy(field forum.SortField, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	col := "created_at"
	switch field {
	case forum.SortVotes:
		col = "votes"
	case forum.SortViews:
		col = "views"
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

type gormTx struct {
	db *gorm.DB
}

func (t gormTx) conn(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx)
}

func targetModel(target forum.Target) (any, error) {
	switch target.Type {
	case models.TargetQuestion:
		return &models.Question{ID: target.ID}, nil
	case models.TargetAnswer:
		return &models.Answer{ID: target.ID}, nil
	}
	return nil, forum.ErrInvalidArgument
}

// votes

func (t gormTx) FindVote(ctx context.Context, key forum.VoteKey) (models.Vote, error) {
	var v models.Vote
	err := t.conn(ctx).
		Where("user_id = ? AND target_id = ? AND target_type = ?", key.UserID, key.Target.ID, key.Target.Type).
		Take(&v).Error
	return v, translate(err)
}

func (t gormTx) InsertVote(ctx context.Context, v *models.Vote) error {
	return translate(t.conn(ctx).Create(v).Error)
}

func (t gormTx) SwapVoteValue(ctx context.Context, id uint, from, to int) error {
	res := t.conn(ctx).Model(&models.Vote{}).
		Where("id = ? AND value = ?", id, from).
		Update("value", to)
	return affected(res, forum.ErrConflict)
}

func (t gormTx) DeleteVoteIfValue(ctx context.Context, id uint, value int) error {
	res := t.conn(ctx).Where("id = ? AND value = ?", id, value).Delete(&models.Vote{})
	return affected(res, forum.ErrConflict)
}

func (t gormTx) AdjustTargetVotes(ctx context.Context, target forum.Target, delta int) (int, error) {
	m, err := targetModel(target)
	if err != nil {
		return 0, err
	}
	res := t.conn(ctx).Model(m).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "votes"}}}).
		UpdateColumn("votes", gorm.Expr("votes + ?", delta))
	if err := affected(res, forum.ErrNotFound); err != nil {
		return 0, err
	}
	switch v := m.(type) {
	case *models.Question:
		return v.Votes, nil
	case *models.Answer:
		return v.Votes, nil
	}
	return 0, nil
}

func (t gormTx) TargetAuthor(ctx context.Context, target forum.Target) (uint, error) {
	m, err := targetModel(target)
	if err != nil {
		return 0, err
	}
	var row struct{ AuthorID uint }
	err = t.conn(ctx).Model(m).Select("author_id").Where("id = ?", target.ID).Take(&row).Error
	return row.AuthorID, translate(err)
}

func (t gormTx) SumTargetVotes(ctx context.Context, target forum.Target) (int, error) {
	var sum int
	err := t.conn(ctx).Model(&models.Vote{}).
		Select("COALESCE(SUM(value), 0)").
		Where("target_id = ? AND target_type = ?", target.ID, target.Type).
		Scan(&sum).Error
	return sum, translate(err)
}

func (t gormTx) DeleteTargetVotes(ctx context.Context, targetType models.TargetType, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := t.conn(ctx).
		Where("target_type = ? AND target_id IN ?", targetType, ids).
		Delete(&models.Vote{}).Error
	return translate(err)
}

// questions

func (t gormTx) CreateQuestion(ctx context.Context, q *models.Question) error {
	return translate(t.conn(ctx).Omit("Author", "Tags.*").Create(q).Error)
}

func (t gormTx) GetQuestion(ctx context.Context, id uint) (models.Question, error) {
	var q models.Question
	err := t.conn(ctx).Preload("Author").Preload("Tags").First(&q, id).Error
	return q, translate(err)
}

func (t gormTx) LockQuestion(ctx context.Context, id uint) (models.Question, error) {
	var q models.Question
	err := t.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, id).Error
	return q, translate(err)
}

func (t gormTx) ListQuestions(ctx context.Context, f forum.QuestionFilter) ([]models.Question, int64, error) {
	base := func() *gorm.DB {
		query := t.conn(ctx).Model(&models.Question{})
		if f.AuthorID != 0 {
			query = query.Where("author_id = ?", f.AuthorID)
		}
		if f.TagName != "" {
			tagged := t.conn(ctx).Table("question_tags").
				Select("question_tags.question_id").
				Joins("JOIN tags ON tags.id = question_tags.tag_id").
				Where("tags.name = ?", f.TagName)
			query = query.Where("id IN (?)", tagged)
		}
		if f.Search != "" {
			query = query.Where("title ILIKE ? OR description ILIKE ?", like(f.Search), like(f.Search))
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var qs []models.Question
	err := base().Preload("Author").Preload("Tags").
		Order(orderBy(f.SortBy, f.Desc)).
		Offset(f.Offset()).Limit(f.Limit).
		Find(&qs).Error
	return qs, total, translate(err)
}

func (t gormTx) UpdateQuestion(ctx context.Context, id uint, title, description string, tags []models.Tag) error {
	q := models.Question{ID: id}
	res := t.conn(ctx).Model(&q).Updates(map[string]any{"title": title, "description": description})
	if err := affected(res, forum.ErrNotFound); err != nil {
		return err
	}
	return translate(t.conn(ctx).Model(&q).Omit("Tags.*").Association("Tags").Replace(tags))
}

func (t gormTx) SetQuestionClosed(ctx context.Context, id uint, closed bool) error {
	res := t.conn(ctx).Model(&models.Question{}).Where("id = ?", id).Update("is_closed", closed)
	return affected(res, forum.ErrNotFound)
}

func (t gormTx) IncrementViews(ctx context.Context, id uint) error {
	res := t.conn(ctx).Model(&models.Question{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + 1"))
	return affected(res, forum.ErrNotFound)
}

func (t gormTx) SetAcceptedAnswer(ctx context.Context, questionID uint, answerID *uint) error {
	res := t.conn(ctx).Model(&models.Question{}).Where("id = ?", questionID).Update("accepted_answer_id", answerID)
	return affected(res, forum.ErrNotFound)
}

func (t gormTx) ClearAcceptedAnswerIf(ctx context.Context, questionID, answerID uint) error {
	err := t.conn(ctx).Model(&models.Question{}).
		Where("id = ? AND accepted_answer_id = ?", questionID, answerID).
		Update("accepted_answer_id", nil).Error
	return translate(err)
}

func (t gormTx) AppendAnswerRef(ctx context.Context, questionID, answerID uint) error {
	res := t.conn(ctx).Model(&models.Question{}).Where("id = ?", questionID).
		UpdateColumn("answer_ids", gorm.Expr("array_append(answer_ids, ?::bigint)", int64(answerID)))
	return affected(res, forum.ErrNotFound)
}

func (t gormTx) RemoveAnswerRef(ctx context.Context, questionID, answerID uint) error {
	err := t.conn(ctx).Model(&models.Question{}).Where("id = ?", questionID).
		UpdateColumn("answer_ids", gorm.Expr("array_remove(answer_ids, ?::bigint)", int64(answerID))).Error
	return translate(err)
}

// DeleteQuestion also drops the question's tag links.
func (t gormTx) DeleteQuestion(ctx context.Context, id uint) error {
	q := models.Question{ID: id}
	if err := t.conn(ctx).Model(&q).Association("Tags").Clear(); err != nil {
		return translate(err)
	}
	res := t.conn(ctx).Delete(&models.Question{}, id)
	return affected(res, forum.ErrNotFound)
}

// answers

func (t gormTx) CreateAnswer(ctx context.Context, a *models.Answer) error {
	return translate(t.conn(ctx).Omit("Author").Create(a).Error)
}

func (t gormTx) GetAnswer(ctx context.Context, id uint) (models.Answer, error) {
	var a models.Answer
	err := t.conn(ctx).Preload("Author").First(&a, id).Error
	return a, translate(err)
}

func (t gormTx) ListAnswers(ctx context.Context, f forum.AnswerFilter) ([]models.Answer, int64, error) {
	base := func() *gorm.DB {
		query := t.conn(ctx).Model(&models.Answer{})
		if f.QuestionID != 0 {
			query = query.Where("question_id = ?", f.QuestionID)
		}
		if f.AuthorID != 0 {
			query = query.Where("author_id = ?", f.AuthorID)
		}
		if f.Search != "" {
			query = query.Where("content ILIKE ?", like(f.Search))
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var as []models.Answer
	err := base().Preload("Author").
		Order(orderBy(f.SortBy, f.Desc)).
		Offset(f.Offset()).Limit(f.Limit).
		Find(&as).Error
	return as, total, translate(err)
}

func (t gormTx) AnswersForQuestion(ctx context.Context, questionID uint) ([]models.Answer, error) {
	var as []models.Answer
	err := t.conn(ctx).Preload("Author").
		Where("question_id = ?", questionID).
		Order("votes DESC, created_at ASC, id ASC").
		Find(&as).Error
	return as, translate(err)
}

func (t gormTx) UpdateAnswerContent(ctx context.Context, id uint, content string) error {
	res := t.conn(ctx).Model(&models.Answer{}).Where("id = ?", id).Update("content", content)
	return affected(res, forum.ErrNotFound)
}

func (t gormTx) SetAnswerAccepted(ctx context.Context, id uint, accepted bool) error {
	res := t.conn(ctx).Model(&models.Answer{}).Where("id = ?", id).Update("is_accepted", accepted)
	return affected(res, forum.ErrNotFound)
}

func (t gormTx) DeleteAnswersOf(ctx context.Context, questionID uint) error {
	return translate(t.conn(ctx).Where("question_id = ?", questionID).Delete(&models.Answer{}).Error)
}

func (t gormTx) DeleteAnswer(ctx context.Context, id uint) error {
	res := t.conn(ctx).Delete(&models.Answer{}, id)
	return affected(res, forum.ErrNotFound)
}

// tags

func (t gormTx) EnsureTag(ctx context.Context, name, description string) (models.Tag, error) {
	err := t.conn(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&models.Tag{Name: name, Description: description}).Error
	if err != nil {
		return models.Tag{}, translate(err)
	}
	var tag models.Tag
	err = t.conn(ctx).Where("name = ?", name).Take(&tag).Error
	return tag, translate(err)
}

func (t gormTx) CreateTag(ctx context.Context, tag *models.Tag) error {
	return translate(t.conn(ctx).Create(tag).Error)
}

func (t gormTx) ListTags(ctx context.Context, f forum.TagFilter) ([]models.Tag, int64, error) {
	base := func() *gorm.DB {
		query := t.conn(ctx).Model(&models.Tag{})
		if f.Search != "" {
			query = query.Where("name ILIKE ? OR description ILIKE ?", like(f.Search), like(f.Search))
		}
		return query
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var tags []models.Tag
	err := base().Order("name ASC").Offset(f.Offset()).Limit(f.Limit).Find(&tags).Error
	return tags, total, translate(err)
}

// users

func (t gormTx) CreateUser(ctx context.Context, u *models.User) error {
	return translate(t.conn(ctx).Create(u).Error)
}

func (t gormTx) GetUser(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	err := t.conn(ctx).First(&u, id).Error
	return u, translate(err)
}

func (t gormTx) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := t.conn(ctx).Where("email = ?", email).Take(&u).Error
	return u, translate(err)
}

func (t gormTx) ListUsers(ctx context.Context, f forum.UserFilter) ([]models.User, int64, error) {
	base := func() *gorm.DB {
		query := t.conn(ctx).Model(&models.User{})
		if f.Search != "" {
			query = query.Where("username ILIKE ? OR email ILIKE ?", like(f.Search), like(f.Search))
		}
		return query
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var users []models.User
	err := base().Order("reputation DESC, id ASC").Offset(f.Offset()).Limit(f.Limit).Find(&users).Error
	return users, total, translate(err)
}

func (t gormTx) SetUserBanned(ctx context.Context, id uint, banned bool) error {
	res := t.conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_banned", banned)
	return affected(res, forum.ErrNotFound)
}

func (t gormTx) SetUserRole(ctx context.Context, id uint, role models.Role) error {
	res := t.conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	return affected(res, forum.ErrNotFound)
}

func (t gormTx) SetUserAvatar(ctx context.Context, id uint, url string) error {
	res := t.conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("avatar", url)
	return affected(res, forum.ErrNotFound)
}

func (t gormTx) AdjustReputation(ctx context.Context, id uint, delta int) error {
	res := t.conn(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("reputation", gorm.Expr("reputation + ?", delta))
	return affected(res, forum.ErrNotFound)
}

// notifications

func (t gormTx) CreateNotification(ctx context.Context, n *models.Notification) error {
	return translate(t.conn(ctx).Create(n).Error)
}

func (t gormTx) ListNotifications(ctx context.Context, recipientID uint, unreadOnly bool, p forum.Page) ([]models.Notification, int64, error) {
	base := func() *gorm.DB {
		query := t.conn(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
		if unreadOnly {
			query = query.Where("is_read = ?", false)
		}
		return query
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var ns []models.Notification
	err := base().Order("id DESC").Offset(p.Offset()).Limit(p.Limit).Find(&ns).Error
	return ns, total, translate(err)
}

func (t gormTx) MarkNotificationRead(ctx context.Context, id, recipientID uint) error {
	res := t.conn(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	return affected(res, forum.ErrNotFound)
}
