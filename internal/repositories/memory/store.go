// Package memory keeps every aggregate in process memory. It backs tests and
// the "memory" database driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"studiorit/internal/repositories"
)

// versioned is the aggregate shape the generic store needs.
type versioned[T any] interface {
	*T
	key() string
	version() int64
	setVersion(v int64)
	createdAt() time.Time
	clone() *T
}

// table is a map of aggregates guarded by one RWMutex. It stores and
// returns copies so callers never share memory with the table.
type table[T any, P versioned[T]] struct {
	mu      sync.RWMutex
	records map[string]*T
}

func newTable[T any, P versioned[T]]() *table[T, P] {
	return &table[T, P]{records: make(map[string]*T)}
}

func (t *table[T, P]) create(v *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := P(v)
	if _, ok := t.records[p.key()]; ok {
		return repositories.ErrDuplicate
	}
	p.setVersion(1)
	t.records[p.key()] = P(v).clone()
	return nil
}

func (t *table[T, P]) get(id string) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return P(v).clone(), nil
}

// update swaps the record only if the caller read the current version.
func (t *table[T, P]) update(v *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := P(v)
	cur, ok := t.records[p.key()]
	if !ok {
		return repositories.ErrNotFound
	}
	if P(cur).version() != p.version() {
		return repositories.ErrVersionConflict
	}
	p.setVersion(p.version() + 1)
	t.records[p.key()] = p.clone()
	return nil
}

func (t *table[T, P]) delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(t.records, id)
	return nil
}

// list returns matching copies, newest first.
func (t *table[T, P]) list(match func(*T) bool) []*T {
	t.mu.RLock()
	res := make([]*T, 0, len(t.records))
	for _, v := range t.records {
		if match(v) {
			res = append(res, P(v).clone())
		}
	}
	t.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		return P(res[i]).createdAt().After(P(res[j]).createdAt())
	})
	return res
}

// NewStore returns an empty in-memory Store.
func NewStore() *repositories.Store {
	tasks := NewTaskRepository()
	return &repositories.Store{
		Users:    NewUserRepository(),
		Projects: NewProjectRepository(tasks),
		Tasks:    tasks,
		Links:    NewTelegramLinkRepository(),
		Close:    func(context.Context) error { return nil },
	}
}
