package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"studiorit/internal/apperr"
	"studiorit/internal/authz"
	"studiorit/internal/clock"
	"studiorit/internal/idgen"
	"studiorit/internal/logging"
	"studiorit/internal/models"
	"studiorit/internal/repositories"
)

type ProjectService interface {
	CreateProject(ctx context.Context, actor authz.Actor, req models.CreateProjectRequest) (*models.Project, error)
	GetProject(ctx context.Context, actor authz.Actor, id string) (*models.Project, error)
	ListProjects(ctx context.Context, actor authz.Actor, filter models.ProjectFilter) ([]*models.Project, error)
	UpdateProject(ctx context.Context, actor authz.Actor, id string, patch models.ProjectPatch) (*models.Project, error)
	DeleteProject(ctx context.Context, actor authz.Actor, id string) error

	AddTeamMember(ctx context.Context, actor authz.Actor, id, userID string, role models.MemberRole) (*models.Project, error)
	RemoveTeamMember(ctx context.Context, actor authz.Actor, id, userID string) (*models.Project, error)
	AddProjectNote(ctx context.Context, actor authz.Actor, id, content string) (*models.Note, error)
	AddProjectReference(ctx context.Context, actor authz.Actor, id string, req models.ReferenceRequest) (*models.Reference, error)
}

type projectService struct {
	projects repositories.ProjectRepository
	users    repositories.UserRepository
	notifier Notifier
	locks    *KeyedLocker
}

func NewProjectService(store *repositories.Store, notifier Notifier, locks *KeyedLocker) ProjectService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if locks == nil {
		locks = NewKeyedLocker()
	}
	return &projectService{
		projects: store.Projects,
		users:    store.Users,
		notifier: notifier,
		locks:    locks,
	}
}

func (s *projectService) CreateProject(ctx context.Context, actor authz.Actor, req models.CreateProjectRequest) (*models.Project, error) {
	if err := authz.CanCreateProject(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("title", "title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, apperr.Validation("description", "description is required")
	}
	if err := checkDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if err := checkDepartments(req.Departments); err != nil {
		return nil, err
	}
	if err := s.checkCoordinator(ctx, req.Coordinator); err != nil {
		return nil, err
	}

	now := clock.Now()
	project := &models.Project{
		ID:          idgen.New(),
		Title:       title,
		Description: req.Description,
		Status:      models.ProjectPlanning,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   actor.ID,
		Coordinator: req.Coordinator,
		TeamMembers: []models.TeamMember{},
		Departments: nonNil(req.Departments),
		Tags:        nonNil(req.Tags),
		References:  []models.Reference{},
		Notes:       []models.Note{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, repoErr(err, "project")
	}
	s.logger(actor, project).Info("[project][create][ok]")
	if project.Coordinator != actor.ID {
		s.notifier.Notify(ctx, project.Coordinator, "You coordinate a new project",
			actor.Name+" made you coordinator of "+project.Title)
	}
	return project, nil
}

func (s *projectService) GetProject(ctx context.Context, actor authz.Actor, id string) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "project")
	}
	if err := authz.CanViewProject(actor, project); err != nil {
		return nil, err
	}
	return project, nil
}

// ListProjects shows actors below coordinator rank only the projects they
// coordinate, belong to or created.
func (s *projectService) ListProjects(ctx context.Context, actor authz.Actor, filter models.ProjectFilter) ([]*models.Project, error) {
	if err := authz.RequireActive(actor); err != nil {
		return nil, err
	}
	if !authz.IsElevated(actor.Role) {
		uid := actor.ID
		filter.MemberOf = &uid
	}
	projects, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return projects, nil
}

func (s *projectService) UpdateProject(ctx context.Context, actor authz.Actor, id string, patch models.ProjectPatch) (*models.Project, error) {
	project, err := s.mutate(ctx, id, func(p *models.Project, _ time.Time) error {
		if err := authz.CanUpdateProject(actor, p); err != nil {
			return err
		}
		if patch.Coordinator != nil && *patch.Coordinator != p.Coordinator {
			if err := s.checkCoordinator(ctx, *patch.Coordinator); err != nil {
				return err
			}
			p.Coordinator = *patch.Coordinator
		}
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return apperr.Validation("title", "title cannot be empty")
			}
			p.Title = title
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Status != nil {
			if !patch.Status.Valid() {
				return apperr.Validation("status", "invalid project status")
			}
			p.Status = *patch.Status
		}
		if patch.StartDate != nil {
			p.StartDate = *patch.StartDate
		}
		if patch.EndDate != nil {
			p.EndDate = *patch.EndDate
		}
		if patch.StartDate != nil || patch.EndDate != nil {
			if err := checkDates(p.StartDate, p.EndDate); err != nil {
				return err
			}
		}
		if patch.Departments != nil {
			if err := checkDepartments(patch.Departments); err != nil {
				return err
			}
			p.Departments = patch.Departments
		}
		if patch.Tags != nil {
			p.Tags = patch.Tags
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger(actor, project).Info("[project][update][ok]")
	return project, nil
}

// DeleteProject removes the project together with its tasks.
func (s *projectService) DeleteProject(ctx context.Context, actor authz.Actor, id string) error {
	unlock := s.locks.Lock("project:" + id)
	defer unlock()

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return repoErr(err, "project")
	}
	if err := authz.CanDeleteProject(actor, project); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return repoErr(err, "project")
	}
	s.logger(actor, project).Info("[project][delete][ok]")
	return nil
}

func (s *projectService) AddTeamMember(ctx context.Context, actor authz.Actor, id, userID string, role models.MemberRole) (*models.Project, error) {
	if role == "" {
		role = models.MemberOther
	}
	if !role.Valid() {
		return nil, apperr.Validation("role", "invalid team member role")
	}
	project, err := s.mutate(ctx, id, func(p *models.Project, now time.Time) error {
		if err := authz.CanManageTeam(actor, p); err != nil {
			return err
		}
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return repoErr(err, "user")
		}
		if models.IsTeamMember(p, userID) {
			return apperr.Conflict("not a member", "member", "user is already a team member")
		}
		p.TeamMembers = append(p.TeamMembers, models.TeamMember{UserID: userID, Role: role, AddedAt: now})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger(actor, project).WithField("member", userID).Info("[project][team_add][ok]")
	s.notifier.Notify(ctx, userID, "Added to project team",
		actor.Name+" added you to "+project.Title+" as "+string(role))
	return project, nil
}

func (s *projectService) RemoveTeamMember(ctx context.Context, actor authz.Actor, id, userID string) (*models.Project, error) {
	project, err := s.mutate(ctx, id, func(p *models.Project, _ time.Time) error {
		if err := authz.CanManageTeam(actor, p); err != nil {
			return err
		}
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return repoErr(err, "user")
		}
		if !models.IsTeamMember(p, userID) {
			return apperr.Validation("userId", "user is not a team member")
		}
		kept := p.TeamMembers[:0]
		for _, m := range p.TeamMembers {
			if m.UserID != userID {
				kept = append(kept, m)
			}
		}
		p.TeamMembers = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger(actor, project).WithField("member", userID).Info("[project][team_remove][ok]")
	return project, nil
}

func (s *projectService) AddProjectNote(ctx context.Context, actor authz.Actor, id, content string) (*models.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("content", "note content is required")
	}
	var note models.Note
	project, err := s.mutate(ctx, id, func(p *models.Project, now time.Time) error {
		if err := authz.CanAnnotateProject(actor, p); err != nil {
			return err
		}
		note = models.Note{ID: idgen.New(), Content: content, AddedAt: now, AddedBy: actor.ID}
		p.Notes = append(p.Notes, note)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger(actor, project).Debug("[project][note][ok]")
	return &note, nil
}

func (s *projectService) AddProjectReference(ctx context.Context, actor authz.Actor, id string, req models.ReferenceRequest) (*models.Reference, error) {
	title := strings.TrimSpace(req.Title)
	link := strings.TrimSpace(req.URL)
	if title == "" || link == "" {
		return nil, apperr.Validation("url", "title and url are required")
	}
	if u, err := url.Parse(link); err != nil || u.Scheme == "" {
		return nil, apperr.Validation("url", "invalid url")
	}
	kind := req.Type
	if kind == "" {
		kind = models.ReferenceLink
	}
	if !kind.Valid() {
		return nil, apperr.Validation("type", "invalid reference type")
	}

	var ref models.Reference
	project, err := s.mutate(ctx, id, func(p *models.Project, now time.Time) error {
		if err := authz.CanAnnotateProject(actor, p); err != nil {
			return err
		}
		ref = models.Reference{ID: idgen.New(), Title: title, URL: link, Type: kind, AddedAt: now, AddedBy: actor.ID}
		p.References = append(p.References, ref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger(actor, project).Debug("[project][reference][ok]")
	return &ref, nil
}

func (s *projectService) mutate(ctx context.Context, id string, fn func(p *models.Project, now time.Time) error) (*models.Project, error) {
	unlock := s.locks.Lock("project:" + id)
	defer unlock()

	stored, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "project")
	}
	project := stored.Clone()
	now := clock.Now()
	if err := fn(project, now); err != nil {
		return nil, err
	}
	project.UpdatedAt = now
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, repoErr(err, "project")
	}
	return project, nil
}

func (s *projectService) checkCoordinator(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.Validation("coordinator", "coordinator is required")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return repoErr(err, "coordinator")
	}
	return authz.EligibleCoordinator(u)
}

func (s *projectService) logger(actor authz.Actor, p *models.Project) *logrus.Entry {
	return logging.Logger.WithFields(logrus.Fields{"project_id": p.ID, "actor": actor.ID})
}

func checkDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("startDate", "start and end dates are required")
	}
	if !end.After(start) {
		return apperr.Validation("endDate", "end date must be after start date")
	}
	return nil
}

func checkDepartments(list []models.Department) error {
	for _, d := range list {
		if !d.Valid() {
			return apperr.Validation("departments", "invalid department "+string(d))
		}
	}
	return nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
