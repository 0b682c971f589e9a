package forum

import (
	"context"
	"errors"
	"strings"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/auth"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

const defaultUserLimit = 20

func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if len(username) < 3 || len(username) > 30 {
		return models.User{}, newError(ErrInvalidArgument, "username must be 3 to 30 characters")
	}
	if !strings.Contains(email, "@") {
		return models.User{}, newError(ErrInvalidArgument, "invalid email address")
	}
	if len(req.Password) < 6 {
		return models.User{}, newError(ErrInvalidArgument, "password must be at least 6 characters")
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Phone:        strings.TrimSpace(req.Phone),
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, ErrConflict) {
			return models.User{}, newError(ErrConflict, "username or email already exists")
		}
		return models.User{}, err
	}
	s.indexer.IndexUser(u)
	return u, nil
}

// Authenticate checks credentials. Banned users are rejected with ErrForbidden.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return models.User{}, newError(ErrUnauthorized, "invalid credentials")
	}
	if err != nil {
		return models.User{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return models.User{}, newError(ErrUnauthorized, "invalid credentials")
	}
	if u.IsBanned {
		return models.User{}, newError(ErrForbidden, "account is banned")
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uint) (models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return models.User{}, notFound(err, "user not found")
	}
	return u, nil
}

// CurrentUser loads the caller and rejects banned accounts.
func (s *Service) CurrentUser(ctx context.Context, actor Actor) (models.User, error) {
	if actor.UserID == 0 {
		return models.User{}, newError(ErrUnauthorized, "authentication required")
	}
	u, err := s.GetUser(ctx, actor.UserID)
	if err != nil {
		return models.User{}, err
	}
	if u.IsBanned {
		return models.User{}, newError(ErrForbidden, "account is banned")
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, search string, page, limit int) ([]models.User, Pagination, error) {
	p := NewPage(page, limit, defaultUserLimit)
	users, total, err := s.store.ListUsers(ctx, UserFilter{Page: p, Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, Pagination{}, err
	}
	return users, p.Info(total), nil
}

func (s *Service) SetBanned(ctx context.Context, actor Actor, id uint, banned bool) (models.User, error) {
	if !actor.IsAdmin() {
		return models.User{}, newError(ErrForbidden, "admin access required")
	}
	if id == actor.UserID && banned {
		return models.User{}, newError(ErrInvalidArgument, "admins cannot ban themselves")
	}
	if err := s.store.SetUserBanned(ctx, id, banned); err != nil {
		return models.User{}, notFound(err, "user not found")
	}
	return s.GetUser(ctx, id)
}

func (s *Service) SetRole(ctx context.Context, actor Actor, id uint, role models.Role) (models.User, error) {
	if !actor.IsAdmin() {
		return models.User{}, newError(ErrForbidden, "admin access required")
	}
	if !role.Valid() {
		return models.User{}, newError(ErrInvalidArgument, "unknown role %q", role)
	}
	if err := s.store.SetUserRole(ctx, id, role); err != nil {
		return models.User{}, notFound(err, "user not found")
	}
	return s.GetUser(ctx, id)
}

// SetAvatar records the uploaded avatar URL. Users may only change their own.
func (s *Service) SetAvatar(ctx context.Context, actor Actor, id uint, url string) (models.User, error) {
	if actor.UserID == 0 {
		return models.User{}, newError(ErrUnauthorized, "authentication required")
	}
	if actor.UserID != id {
		return models.User{}, newError(ErrForbidden, "you can only update your own avatar")
	}
	if err := s.store.SetUserAvatar(ctx, id, url); err != nil {
		return models.User{}, notFound(err, "user not found")
	}
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	s.indexer.IndexUser(u)
	return u, nil
}
