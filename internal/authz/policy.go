package authz

import (
	"studiorit/internal/apperr"
	"studiorit/internal/models"
)

// Actor is the authenticated caller as seen by the policy.
type Actor struct {
	ID       string
	Name     string
	Role     models.Role
	IsActive bool
}

func ActorFromUser(u *models.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role, IsActive: u.IsActive}
}

func IsProjectCreator(a Actor, p *models.Project) bool {
	return p != nil && a.ID != "" && p.CreatedBy == a.ID
}

func IsCoordinator(a Actor, p *models.Project) bool {
	return p != nil && a.ID != "" && p.Coordinator == a.ID
}

func IsTeamMember(a Actor, p *models.Project) bool {
	return models.IsTeamMember(p, a.ID)
}

func IsAssignee(a Actor, t *models.Task) bool {
	return t != nil && a.ID != "" && t.AssignedTo == a.ID
}

func IsTaskCreator(a Actor, t *models.Task) bool {
	return t != nil && a.ID != "" && t.CreatedBy == a.ID
}

// allow grants access when the actor is active and any predicate holds.
func allow(a Actor, reason string, preds ...bool) error {
	if !a.IsActive {
		return apperr.Forbidden("your account has been deactivated")
	}
	for _, ok := range preds {
		if ok {
			return nil
		}
	}
	return apperr.Forbidden(reason)
}

// RequireActive rejects deactivated accounts and nothing else.
func RequireActive(a Actor) error {
	return allow(a, "", true)
}

func CanCreateProject(a Actor) error {
	return allow(a, "only coordinators and admins can create projects",
		HasPermission(a.Role, models.RoleCoordinator))
}

func CanViewProject(a Actor, p *models.Project) error {
	return allow(a, "you are not part of this project team",
		IsTeamMember(a, p), IsCoordinator(a, p), IsProjectCreator(a, p), IsAdmin(a.Role))
}

func CanUpdateProject(a Actor, p *models.Project) error {
	return allow(a, "only project coordinator, creator or admin can update the project",
		IsCoordinator(a, p), IsProjectCreator(a, p), IsAdmin(a.Role))
}

func CanDeleteProject(a Actor, p *models.Project) error {
	return allow(a, "only project creator or admin can delete the project",
		IsProjectCreator(a, p), IsAdmin(a.Role))
}

func CanManageTeam(a Actor, p *models.Project) error {
	return allow(a, "only project coordinator, creator or admin can manage team members",
		IsCoordinator(a, p), IsProjectCreator(a, p), IsAdmin(a.Role))
}

// CanAnnotateProject covers notes and references.
func CanAnnotateProject(a Actor, p *models.Project) error {
	return allow(a, "you must be a team member to add notes or references",
		IsTeamMember(a, p), IsCoordinator(a, p), IsProjectCreator(a, p), IsAdmin(a.Role))
}

func CanCreateTask(a Actor, p *models.Project) error {
	return allow(a, "you must be a project team member to create tasks",
		IsTeamMember(a, p), IsCoordinator(a, p), IsProjectCreator(a, p), IsAdmin(a.Role))
}

func CanViewTask(a Actor, t *models.Task, p *models.Project) error {
	return allow(a, "you are not authorized to view this task",
		IsTeamMember(a, p), IsCoordinator(a, p), IsAssignee(a, t), IsTaskCreator(a, t), IsAdmin(a.Role))
}

func CanUpdateTask(a Actor, t *models.Task, p *models.Project) error {
	return allow(a, "you are not authorized to update this task",
		IsTaskCreator(a, t), IsAssignee(a, t), IsCoordinator(a, p), IsAdmin(a.Role))
}

func CanDeleteTask(a Actor, t *models.Task, p *models.Project) error {
	return allow(a, "only task creator, project coordinator or admin can delete the task",
		IsTaskCreator(a, t), IsCoordinator(a, p), IsAdmin(a.Role))
}

func CanComment(a Actor, p *models.Project) error {
	return allow(a, "you must be a team member to add comments",
		IsTeamMember(a, p), IsCoordinator(a, p), IsAdmin(a.Role))
}

func CanSubmitForApproval(a Actor, t *models.Task) error {
	return allow(a, "only task assignee can submit for approval", IsAssignee(a, t))
}

func CanAddRevision(a Actor, t *models.Task) error {
	return allow(a, "only task assignee can add revisions", IsAssignee(a, t))
}

func CanUpdateRole(a Actor) error {
	return allow(a, a.roleLabel()+" role is not authorized to update roles", IsAdmin(a.Role))
}

// RequireRank is the route-level minimum-rank gate.
func RequireRank(a Actor, required models.Role) error {
	return allow(a, a.roleLabel()+" role is not authorized to access this route",
		HasPermission(a.Role, required))
}

func (a Actor) roleLabel() string {
	if a.Role == "" {
		return "unknown"
	}
	return string(a.Role)
}

// EligibleCoordinator is the minimum-rank gate for coordinator candidates.
func EligibleCoordinator(u *models.User) error {
	if u == nil || !HasPermission(u.Role, models.RoleCoordinator) {
		return apperr.Validation("coordinator", "selected user does not have coordinator privileges")
	}
	return nil
}

// EligibleApprover is the minimum-rank gate for approver candidates.
func EligibleApprover(u *models.User) error {
	if u == nil || !HasPermission(u.Role, models.RoleJuniorCore) {
		return apperr.Validation("approverId", "approver must have at least junior_core role")
	}
	return nil
}

// CanBeAssigned reports whether userID may hold a task of project p.
func CanBeAssigned(p *models.Project, userID string) bool {
	return models.IsTeamMember(p, userID) || (p != nil && userID != "" && p.Coordinator == userID)
}
