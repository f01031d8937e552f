package services

import (
	"context"
	"errors"
	"fmt"
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

// TaskService runs the task lifecycle. Every mutation reads the aggregate,
// checks the policy, edits a copy and writes it back conditionally.
type TaskService interface {
	CreateTask(ctx context.Context, actor authz.Actor, req models.CreateTaskRequest) (*models.TaskDetail, error)
	GetTask(ctx context.Context, actor authz.Actor, id string) (*models.TaskDetail, error)
	ListTasks(ctx context.Context, actor authz.Actor, filter models.TaskFilter) ([]*models.TaskDetail, error)
	UpdateTask(ctx context.Context, actor authz.Actor, id string, patch models.TaskPatch) (*models.TaskDetail, error)
	DeleteTask(ctx context.Context, actor authz.Actor, id string) error
	AddComment(ctx context.Context, actor authz.Actor, id, text string) (*models.Comment, error)

	SubmitForApproval(ctx context.Context, actor authz.Actor, id, approverID string) (*models.TaskDetail, error)
	ProcessTaskApproval(ctx context.Context, actor authz.Actor, id, decision, comments string) (*models.TaskDetail, error)
	AddRevision(ctx context.Context, actor authz.Actor, id string, req models.RevisionRequest) (*models.Revision, *models.TaskDetail, error)
}

type taskService struct {
	tasks    repositories.TaskRepository
	projects repositories.ProjectRepository
	users    repositories.UserRepository
	details  repositories.TaskDetailReader
	router   ApprovalRouter
	notifier Notifier
	locks    *KeyedLocker
}

// NewTaskService creates a new instance of TaskService. notifier may be nil.
func NewTaskService(store *repositories.Store, router ApprovalRouter, notifier Notifier, locks *KeyedLocker) TaskService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if locks == nil {
		locks = NewKeyedLocker()
	}
	return &taskService{
		tasks:    store.Tasks,
		projects: store.Projects,
		users:    store.Users,
		details:  repositories.NewTaskDetailReader(store.Tasks, store.Projects, store.Users),
		router:   router,
		notifier: notifier,
		locks:    locks,
	}
}

func (s *taskService) CreateTask(ctx context.Context, actor authz.Actor, req models.CreateTaskRequest) (*models.TaskDetail, error) {
	if err := authz.RequireActive(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		return nil, apperr.Validation("title", "title is required")
	case strings.TrimSpace(req.Description) == "":
		return nil, apperr.Validation("description", "description is required")
	case req.DueDate.IsZero():
		return nil, apperr.Validation("dueDate", "due date is required")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperr.Validation("priority", "invalid priority")
	}

	project, err := s.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, repoErr(err, "project")
	}
	if err := authz.CanCreateTask(actor, project); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, req.AssignedTo); err != nil {
		return nil, repoErr(err, "assigned user")
	}
	if !authz.CanBeAssigned(project, req.AssignedTo) {
		return nil, apperr.Validation("assignedTo", "assigned user must be a team member or coordinator")
	}

	now := clock.Now()
	task := &models.Task{
		ID:          idgen.New(),
		Title:       title,
		Description: req.Description,
		ProjectID:   project.ID,
		Status:      models.StatusTodo,
		Priority:    priority,
		AssignedTo:  req.AssignedTo,
		AssignedBy:  actor.ID,
		CreatedBy:   actor.ID,
		DueDate:     req.DueDate,
		Attachments: []models.Attachment{},
		Comments:    []models.Comment{},
		Approvals:   []models.Approval{},
		Revisions:   []models.Revision{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, repoErr(err, "task")
	}
	s.logger(actor, task).Info("[task][create][ok]")
	if task.AssignedTo != actor.ID {
		s.notifier.Notify(ctx, task.AssignedTo, "New task assigned",
			fmt.Sprintf("%s assigned you %q", actor.Name, task.Title))
	}
	return s.hydrate(ctx, task), nil
}

func (s *taskService) GetTask(ctx context.Context, actor authz.Actor, id string) (*models.TaskDetail, error) {
	task, project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanViewTask(actor, task, project); err != nil {
		return nil, err
	}
	return s.hydrate(ctx, task), nil
}

// ListTasks narrows the result for actors below coordinator rank to tasks
// of their projects and tasks they hold or created.
func (s *taskService) ListTasks(ctx context.Context, actor authz.Actor, filter models.TaskFilter) ([]*models.TaskDetail, error) {
	if err := authz.RequireActive(actor); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	visible := func(*models.Task) bool { return true }
	if !authz.IsElevated(actor.Role) {
		uid := actor.ID
		mine, err := s.projects.List(ctx, models.ProjectFilter{MemberOf: &uid})
		if err != nil {
			return nil, apperr.Internal(err)
		}
		projectIDs := make(map[string]struct{}, len(mine))
		for _, p := range mine {
			projectIDs[p.ID] = struct{}{}
		}
		visible = func(t *models.Task) bool {
			_, ok := projectIDs[t.ProjectID]
			return ok || t.AssignedTo == uid || t.CreatedBy == uid
		}
	}

	res := make([]*models.TaskDetail, 0, len(tasks))
	for _, t := range tasks {
		if visible(t) {
			res = append(res, s.hydrate(ctx, t))
		}
	}
	return res, nil
}

func (s *taskService) UpdateTask(ctx context.Context, actor authz.Actor, id string, patch models.TaskPatch) (*models.TaskDetail, error) {
	var reassigned, previous string
	task, err := s.mutate(ctx, id, func(task *models.Task, project *models.Project, now time.Time) error {
		if err := authz.CanUpdateTask(actor, task, project); err != nil {
			return err
		}

		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return apperr.Validation("title", "title cannot be empty")
			}
			task.Title = title
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Priority != nil {
			if !patch.Priority.Valid() {
				return apperr.Validation("priority", "invalid priority")
			}
			task.Priority = *patch.Priority
		}
		if patch.DueDate != nil {
			if patch.DueDate.IsZero() {
				return apperr.Validation("dueDate", "due date cannot be empty")
			}
			task.DueDate = *patch.DueDate
		}

		if patch.Status != nil && *patch.Status != task.Status {
			if !patch.Status.Valid() {
				return apperr.Validation("status", "invalid status")
			}
			setStatus(task, *patch.Status, actor.ID, now)
		}

		if patch.AssignedTo != nil && *patch.AssignedTo != task.AssignedTo {
			next, err := s.users.GetByID(ctx, *patch.AssignedTo)
			if err != nil {
				return repoErr(err, "assigned user")
			}
			if !authz.CanBeAssigned(project, next.ID) {
				return apperr.Validation("assignedTo", "assigned user must be a team member or coordinator")
			}
			previous = task.AssignedTo
			task.AssignedTo = next.ID
			task.AssignedBy = actor.ID
			reassigned = next.ID
			appendAudit(task, actor, now, "Task reassigned from %s to %s by %s",
				s.displayName(ctx, previous), next.Name, actor.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger(actor, task).Info("[task][update][ok]")
	if reassigned != "" {
		s.notifier.Notify(ctx, reassigned, "Task reassigned to you",
			fmt.Sprintf("%s assigned you %q", actor.Name, task.Title))
	}
	return s.hydrate(ctx, task), nil
}

// setStatus is the direct status override. It keeps the completion fields
// set exactly when the task is completed.
func setStatus(task *models.Task, status models.TaskStatus, actorID string, now time.Time) {
	task.Status = status
	switch status {
	case models.StatusCompleted:
		at, by := now, actorID
		task.CompletedAt, task.CompletedBy = &at, &by
	case models.StatusTodo, models.StatusInProgress, models.StatusUnderReview, models.StatusNeedsRevision:
		task.CompletedAt, task.CompletedBy = nil, nil
	}
}

func (s *taskService) DeleteTask(ctx context.Context, actor authz.Actor, id string) error {
	unlock := s.locks.Lock("task:" + id)
	defer unlock()

	task, project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanDeleteTask(actor, task, project); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return repoErr(err, "task")
	}
	s.logger(actor, task).Info("[task][delete][ok]")
	return nil
}

func (s *taskService) AddComment(ctx context.Context, actor authz.Actor, id, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("text", "comment text is required")
	}
	var added models.Comment
	task, err := s.mutate(ctx, id, func(task *models.Task, project *models.Project, now time.Time) error {
		if err := authz.CanComment(actor, project); err != nil {
			return err
		}
		added = models.Comment{ID: idgen.New(), Text: text, Author: actor.ID, CreatedAt: now}
		task.Comments = append(task.Comments, added)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger(actor, task).Debug("[task][comment][ok]")
	return &added, nil
}

func (s *taskService) SubmitForApproval(ctx context.Context, actor authz.Actor, id, approverID string) (*models.TaskDetail, error) {
	var approver *models.User
	task, err := s.mutate(ctx, id, func(task *models.Task, project *models.Project, now time.Time) error {
		if err := authz.CanSubmitForApproval(actor, task); err != nil {
			return err
		}
		if task.Status == models.StatusUnderReview {
			return apperr.Conflict("not "+string(models.StatusUnderReview), string(task.Status),
				"task is already under review")
		}

		var err error
		approver, err = s.router.ResolveApprover(ctx, project, approverID)
		if err != nil {
			return err
		}
		if _, err := s.router.Request(task, approver.ID, now); err != nil {
			return err
		}
		task.Status = models.StatusUnderReview
		appendAudit(task, actor, now, "Task submitted for approval by %s", actor.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger(actor, task).WithField("approver", approver.ID).Info("[task][submit][ok]")
	s.notifier.Notify(ctx, approver.ID, "Task awaiting your approval",
		fmt.Sprintf("%s submitted %q for approval", actor.Name, task.Title))
	return s.hydrate(ctx, task), nil
}

func (s *taskService) ProcessTaskApproval(ctx context.Context, actor authz.Actor, id, decision, comments string) (*models.TaskDetail, error) {
	d, err := models.ParseDecision(decision)
	if err != nil {
		return nil, apperr.Validation("status", err.Error())
	}
	if err := authz.RequireActive(actor); err != nil {
		return nil, err
	}
	comments = strings.TrimSpace(comments)

	task, err := s.mutate(ctx, id, func(task *models.Task, _ *models.Project, now time.Time) error {
		if task.Status != models.StatusUnderReview {
			return apperr.Conflict(string(models.StatusUnderReview), string(task.Status),
				"task is not currently under review")
		}
		idx, err := s.router.FindPending(task, actor.ID)
		if err != nil {
			return err
		}
		if err := s.router.Decide(task, idx, d, comments, now); err != nil {
			return err
		}

		switch d {
		case models.ApprovalApproved:
			at, by := now, actor.ID
			task.Status = models.StatusCompleted
			task.CompletedAt, task.CompletedBy = &at, &by
		case models.ApprovalRejected:
			task.Status = models.StatusNeedsRevision
		}

		text := fmt.Sprintf("Task %s by %s", d, actor.Name)
		if comments != "" {
			text += ": " + comments
		}
		appendAudit(task, actor, now, "%s", text)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger(actor, task).WithField("decision", d).Info("[task][approval][ok]")
	s.notifier.Notify(ctx, task.AssignedTo, "Task "+string(d),
		fmt.Sprintf("%s %s %q", actor.Name, d, task.Title))
	return s.hydrate(ctx, task), nil
}

func (s *taskService) AddRevision(ctx context.Context, actor authz.Actor, id string, req models.RevisionRequest) (*models.Revision, *models.TaskDetail, error) {
	description := strings.TrimSpace(req.Description)
	var (
		rev        models.Revision
		reapprover string
	)
	task, err := s.mutate(ctx, id, func(task *models.Task, _ *models.Project, now time.Time) error {
		if err := authz.CanAddRevision(actor, task); err != nil {
			return err
		}
		rev = AppendRevision(task, description, req.Files, actor.ID, now)

		if task.Status == models.StatusNeedsRevision {
			task.Status = models.StatusUnderReview
			if approver, ok := s.router.LatestApprover(task); ok {
				if _, err := s.router.Request(task, approver, now); err != nil {
					return err
				}
				reapprover = approver
			}
		}

		text := fmt.Sprintf("Revision v%d submitted by %s", rev.Version, actor.Name)
		if description != "" {
			text += ": " + description
		}
		appendAudit(task, actor, now, "%s", text)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger(actor, task).WithField("version", rev.Version).Info("[task][revision][ok]")
	if reapprover != "" {
		s.notifier.Notify(ctx, reapprover, "Revision awaiting your approval",
			fmt.Sprintf("%s submitted revision v%d of %q", actor.Name, rev.Version, task.Title))
	}
	return &rev, s.hydrate(ctx, task), nil
}

// mutate runs fn against a copy of the stored task while holding the task
// key, then writes the copy back. A failing fn leaves storage untouched.
func (s *taskService) mutate(ctx context.Context, id string, fn func(task *models.Task, project *models.Project, now time.Time) error) (*models.Task, error) {
	unlock := s.locks.Lock("task:" + id)
	defer unlock()

	stored, project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	task := stored.Clone()
	now := clock.Now()
	if err := fn(task, project, now); err != nil {
		return nil, err
	}
	task.UpdatedAt = now
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, repoErr(err, "task")
	}
	return task, nil
}

func (s *taskService) load(ctx context.Context, id string) (*models.Task, *models.Project, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, nil, repoErr(err, "task")
	}
	project, err := s.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, repoErr(err, "project")
	}
	return task, project, nil
}

// hydrate falls back to the bare task when the read model cannot be built;
// the write has already succeeded at this point.
func (s *taskService) hydrate(ctx context.Context, task *models.Task) *models.TaskDetail {
	detail, err := s.details.Hydrate(ctx, task)
	if err != nil {
		logging.Logger.WithError(err).WithField("task_id", task.ID).Warn("[task][hydrate][err]")
		return &models.TaskDetail{Task: task, People: map[string]models.UserSummary{}}
	}
	return detail
}

func (s *taskService) displayName(ctx context.Context, userID string) string {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logging.Logger.WithError(err).Warn("[task][lookup_user][err]")
		}
		return userID
	}
	return u.Name
}

func (s *taskService) logger(actor authz.Actor, task *models.Task) *logrus.Entry {
	return logging.Logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"actor":   actor.ID,
		"status":  task.Status,
	})
}

func appendAudit(task *models.Task, actor authz.Actor, now time.Time, format string, args ...interface{}) {
	task.Comments = append(task.Comments, models.Comment{
		ID:        idgen.New(),
		Text:      fmt.Sprintf(format, args...),
		Author:    actor.ID,
		CreatedAt: now,
	})
}
