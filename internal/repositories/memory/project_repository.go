package memory

import (
	"context"

	"studiorit/internal/models"
	"studiorit/internal/repositories"
)

type projectRepository struct {
	t     *table[projectRecord, *projectRecord]
	tasks repositories.TaskRepository
}

// NewProjectRepository returns a project table. When tasks is the memory
// task repository, deleting a project also drops its tasks.
func NewProjectRepository(tasks repositories.TaskRepository) repositories.ProjectRepository {
	return &projectRepository{t: newTable[projectRecord, *projectRecord](), tasks: tasks}
}

func (r *projectRepository) Create(_ context.Context, project *models.Project) error {
	return r.t.create((*projectRecord)(project))
}

func (r *projectRepository) GetByID(_ context.Context, id string) (*models.Project, error) {
	v, err := r.t.get(id)
	if err != nil {
		return nil, err
	}
	return (*models.Project)(v), nil
}

func (r *projectRepository) List(_ context.Context, filter models.ProjectFilter) ([]*models.Project, error) {
	recs := r.t.list(func(v *projectRecord) bool {
		return repositories.MatchProject((*models.Project)(v), filter)
	})
	projects := make([]*models.Project, len(recs))
	for i, v := range recs {
		projects[i] = (*models.Project)(v)
	}
	return projects, nil
}

func (r *projectRepository) Update(_ context.Context, project *models.Project) error {
	return r.t.update((*projectRecord)(project))
}

func (r *projectRepository) Delete(_ context.Context, id string) error {
	if err := r.t.delete(id); err != nil {
		return err
	}
	if tr, ok := r.tasks.(*taskRepository); ok {
		tr.deleteByProject(id)
	}
	return nil
}
