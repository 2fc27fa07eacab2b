package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// UserPage is one page of the user listing.
type UserPage struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Size       int
	TotalPages int
}

// UpdateUserInput replaces an account's profile. An empty Password keeps the
// current one.
type UpdateUserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UserService covers account administration behind the authorization gate.
type UserService interface {
	Profile(ctx context.Context, p domain.Principal) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, page, size int) (*UserPage, error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error)
	SetActive(ctx context.Context, id string, active bool) (*domain.User, error)
	VerifyEmail(ctx context.Context, id string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
