package memory

import (
	"context"
	"sync"
	"time"

	"studiorit/internal/models"
	"studiorit/internal/repositories"
)

type telegramLinkRepository struct {
	mu    sync.Mutex
	links map[string]models.TelegramLink
}

func NewTelegramLinkRepository() repositories.TelegramLinkRepository {
	return &telegramLinkRepository{links: make(map[string]models.TelegramLink)}
}

func (r *telegramLinkRepository) Create(_ context.Context, link *models.TelegramLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[link.Code]; ok {
		return repositories.ErrDuplicate
	}
	for code, l := range r.links {
		if l.UserID == link.UserID || !link.CreatedAt.Before(l.ExpiresAt) {
			delete(r.links, code)
		}
	}
	r.links[link.Code] = *link
	return nil
}

func (r *telegramLinkRepository) Use(_ context.Context, code string, now time.Time) (*models.TelegramLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	delete(r.links, code)
	if !now.Before(l.ExpiresAt) {
		return nil, repositories.ErrNotFound
	}
	return &l, nil
}
