package userRepo

import (
	"context"
	"errors"

	"freshtrack/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the notification-facing user data access.
type UserRepository interface {
	// ListUsers returns every user with their notification state.
	ListUsers(ctx context.Context) ([]models.User, error)
	// GetByID retrieves a user by its unique ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// CommitHistory merges sent markers and the digest timestamp into the
	// user record, one field per key.
	CommitHistory(ctx context.Context, update models.HistoryUpdate) error
}
