package repositories

import (
	"context"
	"errors"

	"github.com/upb/user-api/models"
)

// ErrNotFound is returned when a lookup or delete matches no row
var ErrNotFound = errors.New("record not found")

// UserRepository handles user data operations
type UserRepository interface {
	// List returns every user ordered by id
	List(ctx context.Context) ([]*models.User, error)

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int32) (*models.User, error)

	// Insert stores a new user and fills in its generated ID and CreatedAt
	Insert(ctx context.Context, user *models.User) error

	// DeleteByID removes a user
	DeleteByID(ctx context.Context, id int32) error
}

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
