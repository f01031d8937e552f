package memory

import (
	"context"

	"studiorit/internal/clock"
	"studiorit/internal/models"
	"studiorit/internal/repositories"
)

type taskRepository struct {
	t *table[taskRecord, *taskRecord]
}

func NewTaskRepository() repositories.TaskRepository {
	return &taskRepository{t: newTable[taskRecord, *taskRecord]()}
}

func (r *taskRepository) Create(_ context.Context, task *models.Task) error {
	return r.t.create((*taskRecord)(task))
}

func (r *taskRepository) GetByID(_ context.Context, id string) (*models.Task, error) {
	v, err := r.t.get(id)
	if err != nil {
		return nil, err
	}
	return (*models.Task)(v), nil
}

func (r *taskRepository) List(_ context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	now := clock.Now()
	recs := r.t.list(func(v *taskRecord) bool {
		return repositories.MatchTask((*models.Task)(v), filter, now)
	})
	tasks := make([]*models.Task, len(recs))
	for i, v := range recs {
		tasks[i] = (*models.Task)(v)
	}
	return tasks, nil
}

func (r *taskRepository) Update(_ context.Context, task *models.Task) error {
	return r.t.update((*taskRecord)(task))
}

func (r *taskRepository) Delete(_ context.Context, id string) error {
	return r.t.delete(id)
}

func (r *taskRepository) deleteByProject(projectID string) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	for id, v := range r.t.records {
		if v.ProjectID == projectID {
			delete(r.t.records, id)
		}
	}
}
