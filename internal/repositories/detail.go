package repositories

import (
	"context"
	"errors"
	"fmt"

	"studiorit/internal/clock"
	"studiorit/internal/models"
)

// TaskDetailReader returns a task together with the summaries of every
// project and user it references.
type TaskDetailReader interface {
	GetDetail(ctx context.Context, id string) (*models.TaskDetail, error)
	Hydrate(ctx context.Context, task *models.Task) (*models.TaskDetail, error)
}

type taskDetailReader struct {
	tasks    TaskRepository
	projects ProjectRepository
	users    UserRepository
}

func NewTaskDetailReader(tasks TaskRepository, projects ProjectRepository, users UserRepository) TaskDetailReader {
	return &taskDetailReader{tasks: tasks, projects: projects, users: users}
}

func (r *taskDetailReader) GetDetail(ctx context.Context, id string) (*models.TaskDetail, error) {
	task, err := r.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.Hydrate(ctx, task)
}

func (r *taskDetailReader) Hydrate(ctx context.Context, task *models.Task) (*models.TaskDetail, error) {
	detail := &models.TaskDetail{
		Task:      task,
		People:    map[string]models.UserSummary{},
		IsOverdue: models.IsOverdue(task, clock.Now()),
	}
	for _, rev := range task.Revisions {
		if rev.Version > detail.LastVersion {
			detail.LastVersion = rev.Version
		}
	}

	project, err := r.projects.GetByID(ctx, task.ProjectID)
	switch {
	case err == nil:
		detail.Project = project.Summary()
	case errors.Is(err, ErrNotFound):
		detail.Project = models.ProjectSummary{ID: task.ProjectID}
	default:
		return nil, fmt.Errorf("hydrate project %s: %w", task.ProjectID, err)
	}

	users, err := r.users.GetMany(ctx, referencedUsers(task))
	if err != nil {
		return nil, fmt.Errorf("hydrate users: %w", err)
	}
	for id, u := range users {
		detail.People[id] = u.Summary()
	}
	return detail, nil
}

func referencedUsers(t *models.Task) []string {
	seen := map[string]struct{}{}
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	add(t.AssignedTo)
	add(t.AssignedBy)
	add(t.CreatedBy)
	if t.CompletedBy != nil {
		add(*t.CompletedBy)
	}
	for _, c := range t.Comments {
		add(c.Author)
	}
	for _, a := range t.Approvals {
		add(a.Approver)
	}
	for _, r := range t.Revisions {
		add(r.SubmittedBy)
	}
	return ids
}
