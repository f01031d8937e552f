package memory

import (
	"context"
	"sync"

	"studiorit/internal/clock"
	"studiorit/internal/models"
	"studiorit/internal/repositories"
)

type userRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
}

func NewUserRepository() repositories.UserRepository {
	return &userRepository{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

func (r *userRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; ok {
		return repositories.ErrDuplicate
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return repositories.ErrDuplicate
	}
	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *userRepository) GetMany(_ context.Context, ids []string) (map[string]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			res[id] = &u
		}
	}
	return res, nil
}

func (r *userRepository) UpdateRole(_ context.Context, id string, role models.Role) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	u.Role = role
	u.UpdatedAt = clock.Now()
	r.byID[id] = u
	return &u, nil
}

func (r *userRepository) SetTelegramChat(_ context.Context, id string, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.TelegramChatID = chatID
	u.UpdatedAt = clock.Now()
	r.byID[id] = u
	return nil
}
