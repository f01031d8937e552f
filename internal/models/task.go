// internal/models/task.go
package models

import (
	"fmt"
	"time"
)

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusTodo          TaskStatus = "todo"
	StatusInProgress    TaskStatus = "in_progress"
	StatusUnderReview   TaskStatus = "under_review"
	StatusNeedsRevision TaskStatus = "needs_revision"
	StatusCompleted     TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusUnderReview, StatusNeedsRevision, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Decision is the subset of approval statuses an approver may record.
type Decision = ApprovalStatus

// ParseDecision accepts only "approved" and "rejected".
func ParseDecision(v string) (Decision, error) {
	switch ApprovalStatus(v) {
	case ApprovalApproved, ApprovalRejected:
		return ApprovalStatus(v), nil
	}
	return "", fmt.Errorf("status must be either approved or rejected")
}

type File struct {
	Filename string `json:"filename" bson:"filename"`
	Path     string `json:"path" bson:"path"`
	Mimetype string `json:"mimetype" bson:"mimetype"`
	Size     int64  `json:"size" bson:"size"`
}

type Attachment struct {
	File       `bson:",inline"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`
	UploadedBy string    `json:"uploadedBy" bson:"uploadedBy"`
}

type Comment struct {
	ID        string    `json:"id" bson:"id"`
	Text      string    `json:"text" bson:"text"`
	Author    string    `json:"author" bson:"author"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Approval struct {
	ID        string         `json:"id" bson:"id"`
	Status    ApprovalStatus `json:"status" bson:"status"`
	Approver  string         `json:"approver" bson:"approver"`
	Comments  string         `json:"comments,omitempty" bson:"comments,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt" bson:"updatedAt"`
}

type Revision struct {
	Version     int       `json:"version" bson:"version"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Files       []File    `json:"files" bson:"files"`
	SubmittedBy string    `json:"submittedBy" bson:"submittedBy"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
}

// Task is a single aggregate: every sub-list is persisted with it.
type Task struct {
	ID          string       `json:"id" bson:"_id"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description" bson:"description"`
	ProjectID   string       `json:"project" bson:"project"`
	Status      TaskStatus   `json:"status" bson:"status"`
	Priority    TaskPriority `json:"priority" bson:"priority"`
	AssignedTo  string       `json:"assignedTo" bson:"assignedTo"`
	AssignedBy  string       `json:"assignedBy" bson:"assignedBy"`
	CreatedBy   string       `json:"createdBy" bson:"createdBy"`
	DueDate     time.Time    `json:"dueDate" bson:"dueDate"`
	Attachments []Attachment `json:"attachments" bson:"attachments"`
	Comments    []Comment    `json:"comments" bson:"comments"`
	Approvals   []Approval   `json:"approvals" bson:"approvals"`
	Revisions   []Revision   `json:"revisions" bson:"revisions"`
	CompletedAt *time.Time   `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CompletedBy *string      `json:"completedBy,omitempty" bson:"completedBy,omitempty"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updatedAt"`

	// Version is the optimistic concurrency token, bumped on every write.
	Version int64 `json:"-" bson:"version"`
}

// IsOverdue reports whether an unfinished task is past its due date.
func IsOverdue(t *Task, now time.Time) bool {
	return t.Status != StatusCompleted && t.CompletedAt == nil && t.DueDate.Before(now)
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Attachments = append([]Attachment(nil), t.Attachments...)
	c.Comments = append([]Comment(nil), t.Comments...)
	c.Approvals = append([]Approval(nil), t.Approvals...)
	c.Revisions = make([]Revision, len(t.Revisions))
	for i, r := range t.Revisions {
		files := make([]File, len(r.Files))
		copy(files, r.Files)
		r.Files = files
		c.Revisions[i] = r
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.CompletedBy != nil {
		by := *t.CompletedBy
		c.CompletedBy = &by
	}
	return &c
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	ProjectID  *string
	Status     *TaskStatus
	Priority   *TaskPriority
	AssignedTo *string
	CreatedBy  *string
	DueBefore  *time.Time
	DueAfter   *time.Time
	Overdue    bool
}

type CreateTaskRequest struct {
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description" binding:"required"`
	ProjectID   string       `json:"projectId" binding:"required"`
	AssignedTo  string       `json:"assignedTo" binding:"required"`
	Priority    TaskPriority `json:"priority"`
	DueDate     time.Time    `json:"dueDate" binding:"required"`
}

// TaskPatch carries optional field edits; nil means "not provided".
type TaskPatch struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Status      *TaskStatus   `json:"status"`
	Priority    *TaskPriority `json:"priority"`
	AssignedTo  *string       `json:"assignedTo"`
	DueDate     *time.Time    `json:"dueDate"`
}

type RevisionRequest struct {
	Description string `json:"description"`
	Files       []File `json:"files"`
}

// TaskDetail is the hydrated read model of a task.
type TaskDetail struct {
	*Task
	Project     ProjectSummary         `json:"projectSummary"`
	People      map[string]UserSummary `json:"people"`
	IsOverdue   bool                   `json:"isOverdue"`
	LastVersion int                    `json:"lastVersion"`
}
