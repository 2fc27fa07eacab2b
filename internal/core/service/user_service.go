package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type userService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

// NewUserService returns a UserService implementation.
func NewUserService(users ports.UserRepository, hasher ports.PasswordHasher, log zerolog.Logger) ports.UserService {
	return &userService{users: users, hasher: hasher, log: log}
}

func (s *userService) Profile(ctx context.Context, p domain.Principal) (*domain.User, error) {
	return s.users.FindByUsername(ctx, p.Username)
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *userService) List(ctx context.Context, page, size int) (*ports.UserPage, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	// Keeps the stores' (page-1)*size offset from overflowing.
	query := page
	if maxPage := math.MaxInt32/size + 1; query > maxPage {
		query = maxPage
	}

	items, total, err := s.users.List(ctx, query, size)
	if err != nil {
		return nil, err
	}

	return &ports.UserPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Size:       size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

func (s *userService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" {
		return nil, fmt.Errorf("%w: username and email are required", domain.ErrValidation)
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != user.Username {
		taken, err := s.users.ExistsByUsername(ctx, in.Username)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if taken {
			return nil, domain.ErrUsernameTaken
		}
	}
	if in.Email != user.Email {
		taken, err := s.users.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if taken {
			return nil, domain.ErrEmailTaken
		}
	}

	user.Username = in.Username
	user.Email = in.Email
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	if strings.TrimSpace(in.Password) != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user updated")
	return user, nil
}

func (s *userService) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	return s.mutate(ctx, id, func(u *domain.User) { u.IsActive = active })
}

func (s *userService) VerifyEmail(ctx context.Context, id string) (*domain.User, error) {
	return s.mutate(ctx, id, func(u *domain.User) { u.IsEmailVerified = true })
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

func (s *userService) mutate(ctx context.Context, id string, apply func(*domain.User)) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(user)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
