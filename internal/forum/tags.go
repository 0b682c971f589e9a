package forum

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

const (
	maxQuestionTags = 5
	defaultTagLimit = 20
)

// NormalizeTag lower-cases and trims a tag name.
func NormalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// normalizeTags dedupes names after normalization, keeping first-seen order.
func normalizeTags(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = NormalizeTag(n)
		if n == "" {
			return nil, newError(ErrInvalidArgument, "tag names must not be empty")
		}
		if utf8.RuneCountInString(n) > 50 {
			return nil, newError(ErrInvalidArgument, "tag %q is too long", n)
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	if len(out) < 1 || len(out) > maxQuestionTags {
		return nil, newError(ErrInvalidArgument, "a question needs between 1 and %d tags", maxQuestionTags)
	}
	return out, nil
}

func ensureTags(ctx context.Context, tx Tx, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	for _, n := range names {
		t, err := tx.EnsureTag(ctx, n, "")
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

func (s *Service) ListTags(ctx context.Context, search string, page, limit int) ([]models.Tag, Pagination, error) {
	p := NewPage(page, limit, defaultTagLimit)
	tags, total, err := s.store.ListTags(ctx, TagFilter{Page: p, Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, Pagination{}, err
	}
	return tags, p.Info(total), nil
}

func (s *Service) CreateTag(ctx context.Context, actor Actor, req models.CreateTagRequest) (models.Tag, error) {
	if actor.UserID == 0 {
		return models.Tag{}, newError(ErrUnauthorized, "authentication required")
	}
	name := NormalizeTag(req.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return models.Tag{}, newError(ErrInvalidArgument, "tag name must be 2 to 50 characters")
	}
	tag := models.Tag{Name: name, Description: strings.TrimSpace(req.Description)}
	if err := s.store.CreateTag(ctx, &tag); err != nil {
		if errors.Is(err, ErrConflict) {
			return models.Tag{}, newError(ErrConflict, "tag %q already exists", name)
		}
		return models.Tag{}, err
	}
	s.indexer.IndexTag(tag)
	return tag, nil
}
