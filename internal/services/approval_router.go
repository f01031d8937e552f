package services

import (
	"context"
	"time"

	"studiorit/internal/apperr"
	"studiorit/internal/authz"
	"studiorit/internal/idgen"
	"studiorit/internal/models"
	"studiorit/internal/repositories"
)

// ApprovalRouter picks approvers and manages the approval records of a task.
type ApprovalRouter interface {
	// ResolveApprover loads approverID, or the project coordinator when it is
	// empty, and checks the minimum approver rank.
	ResolveApprover(ctx context.Context, project *models.Project, approverID string) (*models.User, error)
	FindPending(task *models.Task, approverID string) (int, error)
	Request(task *models.Task, approverID string, now time.Time) (*models.Approval, error)
	Decide(task *models.Task, idx int, decision models.Decision, comments string, now time.Time) error
	LatestApprover(task *models.Task) (string, bool)
}

type approvalRouter struct {
	users repositories.UserRepository
}

func NewApprovalRouter(users repositories.UserRepository) ApprovalRouter {
	return &approvalRouter{users: users}
}

func (r *approvalRouter) ResolveApprover(ctx context.Context, project *models.Project, approverID string) (*models.User, error) {
	if approverID == "" && project != nil {
		approverID = project.Coordinator
	}
	if approverID == "" {
		return nil, apperr.NotFound("approver")
	}
	u, err := r.users.GetByID(ctx, approverID)
	if err != nil {
		return nil, repoErr(err, "approver")
	}
	if err := authz.EligibleApprover(u); err != nil {
		return nil, err
	}
	return u, nil
}

// FindPending returns the index of the pending approval assigned to
// approverID. Callers holding no such record are forbidden.
func (r *approvalRouter) FindPending(task *models.Task, approverID string) (int, error) {
	for i, a := range task.Approvals {
		if a.Status == models.ApprovalPending && a.Approver == approverID {
			return i, nil
		}
	}
	return -1, apperr.Forbidden("you are not the assigned approver for this task")
}

// Request appends a pending approval. A task holds at most one.
func (r *approvalRouter) Request(task *models.Task, approverID string, now time.Time) (*models.Approval, error) {
	for _, a := range task.Approvals {
		if a.Status == models.ApprovalPending {
			return nil, apperr.Conflict("no pending approval", "pending approval by "+a.Approver,
				"task already has a pending approval")
		}
	}
	task.Approvals = append(task.Approvals, models.Approval{
		ID:        idgen.New(),
		Status:    models.ApprovalPending,
		Approver:  approverID,
		UpdatedAt: now,
	})
	return &task.Approvals[len(task.Approvals)-1], nil
}

func (r *approvalRouter) Decide(task *models.Task, idx int, decision models.Decision, comments string, now time.Time) error {
	if idx < 0 || idx >= len(task.Approvals) {
		return apperr.NotFound("approval")
	}
	a := &task.Approvals[idx]
	if a.Status != models.ApprovalPending {
		return apperr.Conflict(string(models.ApprovalPending), string(a.Status), "approval was already decided")
	}
	switch decision {
	case models.ApprovalApproved, models.ApprovalRejected:
	default:
		return apperr.Validation("status", "status must be either approved or rejected")
	}
	a.Status = decision
	a.Comments = comments
	a.UpdatedAt = now
	return nil
}

// LatestApprover is the approver of the most recently updated record.
// On equal timestamps the later entry wins.
func (r *approvalRouter) LatestApprover(task *models.Task) (string, bool) {
	idx := -1
	for i, a := range task.Approvals {
		if idx == -1 || !a.UpdatedAt.Before(task.Approvals[idx].UpdatedAt) {
			idx = i
		}
	}
	if idx == -1 {
		return "", false
	}
	return task.Approvals[idx].Approver, true
}
