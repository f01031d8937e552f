package repositories

import (
	"context"
	"errors"
	"time"

	"studiorit/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict means the aggregate changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
	ErrDuplicate       = errors.New("duplicate")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetMany(ctx context.Context, ids []string) (map[string]*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	SetTelegramChat(ctx context.Context, id string, chatID int64) error
}

// ProjectRepository persists Project aggregates. Update is a conditional
// write against project.Version and bumps it on success.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
}

// TaskRepository persists Task aggregates. Update is a conditional write
// against task.Version and bumps it on success.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}

// TelegramLinkRepository keeps pending link codes. Create replaces every
// earlier code of the same user; Use consumes a code that is still valid
// at now and returns ErrNotFound for unknown, used or expired codes.
type TelegramLinkRepository interface {
	Create(ctx context.Context, link *models.TelegramLink) error
	Use(ctx context.Context, code string, now time.Time) (*models.TelegramLink, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Users    UserRepository
	Projects ProjectRepository
	Tasks    TaskRepository
	Links    TelegramLinkRepository
	Close    func(ctx context.Context) error
}
