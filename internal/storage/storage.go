package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhadat/listing-auth/internal/models"
)

// ErrNotFound indicates a record does not exist or is soft-deleted.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrDuplicateEmail and ErrDuplicatePhone narrow ErrAlreadyExists to the violated column.
var (
	ErrDuplicateEmail = fmt.Errorf("%w: email", ErrAlreadyExists)
	ErrDuplicatePhone = fmt.Errorf("%w: phone", ErrAlreadyExists)
)

// UserStore captures the credential store operations needed by the session service.
// Lookups only ever return non-deleted identities.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByPhone(ctx context.Context, phone string) (models.User, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}
