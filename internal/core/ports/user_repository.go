package ports

import (
	"context"
	"time"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// UserRepository defines the persistence operations on user accounts.
// Implementations return domain.ErrUserNotFound for missing records and
// domain.ErrUserExists when a unique constraint is hit.
type UserRepository interface {
	// FindByUsernameOrEmail matches login against either the username or the email.
	FindByUsernameOrEmail(ctx context.Context, login string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Save inserts a new user and returns it with its assigned ID.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	// Update overwrites the mutable fields of an existing user, including
	// username, email and password hash. Duplicates map as in Save.
	Update(ctx context.Context, user *domain.User) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// List returns one page of users (1-based) and the total count.
	List(ctx context.Context, page, size int) ([]*domain.User, int64, error)
	Delete(ctx context.Context, id string) error
}

// RoleRepository holds the fixed catalogue of roles.
type RoleRepository interface {
	FindByName(ctx context.Context, name domain.Role) (*domain.RoleRecord, error)
	// Ensure creates the role if it does not exist yet.
	Ensure(ctx context.Context, role domain.RoleRecord) error
}
