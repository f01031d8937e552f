package repositories

import (
	"strings"
	"time"

	"studiorit/internal/models"
)

// MatchTask evaluates filter against t in Go. Backends without a query
// language use it directly.
func MatchTask(t *models.Task, f models.TaskFilter, now time.Time) bool {
	if f.ProjectID != nil && t.ProjectID != *f.ProjectID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.AssignedTo != nil && t.AssignedTo != *f.AssignedTo {
		return false
	}
	if f.CreatedBy != nil && t.CreatedBy != *f.CreatedBy {
		return false
	}
	if f.DueBefore != nil && !t.DueDate.Before(*f.DueBefore) {
		return false
	}
	if f.DueAfter != nil && !t.DueDate.After(*f.DueAfter) {
		return false
	}
	if f.Overdue && !models.IsOverdue(t, now) {
		return false
	}
	return true
}

func MatchProject(p *models.Project, f models.ProjectFilter) bool {
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.Department != nil && !containsDepartment(p.Departments, *f.Department) {
		return false
	}
	if f.Tag != nil && !containsString(p.Tags, *f.Tag) {
		return false
	}
	if f.Coordinator != nil && p.Coordinator != *f.Coordinator {
		return false
	}
	if f.StartAfter != nil && p.StartDate.Before(*f.StartAfter) {
		return false
	}
	if f.EndBefore != nil && p.EndDate.After(*f.EndBefore) {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		if !strings.Contains(strings.ToLower(p.Title), s) && !strings.Contains(strings.ToLower(p.Description), s) {
			return false
		}
	}
	if f.MemberOf != nil {
		uid := *f.MemberOf
		if p.Coordinator != uid && p.CreatedBy != uid && !models.IsTeamMember(p, uid) {
			return false
		}
	}
	return true
}

func containsDepartment(list []models.Department, d models.Department) bool {
	for _, v := range list {
		if v == d {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
