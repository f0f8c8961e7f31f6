package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"task-service/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*model.User, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) (*model.Task, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	// Update persists task only if it is still owned by task.UserID.
	Update(ctx context.Context, task *model.Task) (*model.Task, error)
	// DeleteOwned removes the task when it belongs to userID and reports the number of removed records.
	DeleteOwned(ctx context.Context, id, userID uuid.UUID) (int64, error)
}

// Pinger is implemented by stores that can report their connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store groups the repositories of one backend.
type Store interface {
	Pinger
	Users() UserRepository
	Tasks() TaskRepository
}
