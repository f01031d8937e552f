package models

import "time"

type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectReview     ProjectStatus = "review"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectArchived   ProjectStatus = "archived"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectInProgress, ProjectReview, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// MemberRole is a team member's skill category. It is unrelated to Role.
type MemberRole string

const (
	MemberDesigner       MemberRole = "designer"
	MemberEditor         MemberRole = "editor"
	MemberPhotographer   MemberRole = "photographer"
	MemberDeveloper      MemberRole = "developer"
	MemberContentCreator MemberRole = "content_creator"
	MemberOther          MemberRole = "other"
)

func (r MemberRole) Valid() bool {
	switch r {
	case MemberDesigner, MemberEditor, MemberPhotographer, MemberDeveloper, MemberContentCreator, MemberOther:
		return true
	}
	return false
}

type ReferenceType string

const (
	ReferenceDocument ReferenceType = "document"
	ReferenceImage    ReferenceType = "image"
	ReferenceVideo    ReferenceType = "video"
	ReferenceLink     ReferenceType = "link"
	ReferenceOther    ReferenceType = "other"
)

func (t ReferenceType) Valid() bool {
	switch t {
	case ReferenceDocument, ReferenceImage, ReferenceVideo, ReferenceLink, ReferenceOther:
		return true
	}
	return false
}

type TeamMember struct {
	UserID  string     `json:"user" bson:"user"`
	Role    MemberRole `json:"role" bson:"role"`
	AddedAt time.Time  `json:"addedAt" bson:"addedAt"`
}

type Reference struct {
	ID      string        `json:"id" bson:"id"`
	Title   string        `json:"title" bson:"title"`
	URL     string        `json:"url" bson:"url"`
	Type    ReferenceType `json:"type" bson:"type"`
	AddedAt time.Time     `json:"addedAt" bson:"addedAt"`
	AddedBy string        `json:"addedBy" bson:"addedBy"`
}

type Note struct {
	ID      string    `json:"id" bson:"id"`
	Content string    `json:"content" bson:"content"`
	AddedAt time.Time `json:"addedAt" bson:"addedAt"`
	AddedBy string    `json:"addedBy" bson:"addedBy"`
}

type Project struct {
	ID          string        `json:"id" bson:"_id"`
	Title       string        `json:"title" bson:"title"`
	Description string        `json:"description" bson:"description"`
	Status      ProjectStatus `json:"status" bson:"status"`
	StartDate   time.Time     `json:"startDate" bson:"startDate"`
	EndDate     time.Time     `json:"endDate" bson:"endDate"`
	CreatedBy   string        `json:"createdBy" bson:"createdBy"`
	Coordinator string        `json:"coordinator" bson:"coordinator"`
	TeamMembers []TeamMember  `json:"teamMembers" bson:"teamMembers"`
	Departments []Department  `json:"departments" bson:"departments"`
	Tags        []string      `json:"tags" bson:"tags"`
	References  []Reference   `json:"references" bson:"references"`
	Notes       []Note        `json:"notes" bson:"notes"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updatedAt"`

	Version int64 `json:"-" bson:"version"`
}

// IsTeamMember reports whether userID is listed in the project roster.
func IsTeamMember(p *Project, userID string) bool {
	if p == nil || userID == "" {
		return false
	}
	for _, m := range p.TeamMembers {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.TeamMembers = append([]TeamMember(nil), p.TeamMembers...)
	c.Departments = append([]Department(nil), p.Departments...)
	c.Tags = append([]string(nil), p.Tags...)
	c.References = append([]Reference(nil), p.References...)
	c.Notes = append([]Note(nil), p.Notes...)
	return &c
}

type ProjectSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Coordinator string `json:"coordinator"`
}

func (p *Project) Summary() ProjectSummary {
	if p == nil {
		return ProjectSummary{}
	}
	return ProjectSummary{ID: p.ID, Title: p.Title, Coordinator: p.Coordinator}
}

type ProjectFilter struct {
	Status      *ProjectStatus
	Department  *Department
	Tag         *string
	Coordinator *string
	StartAfter  *time.Time
	EndBefore   *time.Time
	Search      string
	// MemberOf restricts to projects the user coordinates, belongs to or created.
	MemberOf *string
}

type CreateProjectRequest struct {
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description" binding:"required"`
	StartDate   time.Time    `json:"startDate" binding:"required"`
	EndDate     time.Time    `json:"endDate" binding:"required"`
	Coordinator string       `json:"coordinator" binding:"required"`
	Departments []Department `json:"departments"`
	Tags        []string     `json:"tags"`
}

type ProjectPatch struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *ProjectStatus `json:"status"`
	StartDate   *time.Time     `json:"startDate"`
	EndDate     *time.Time     `json:"endDate"`
	Coordinator *string        `json:"coordinator"`
	Departments []Department   `json:"departments"`
	Tags        []string       `json:"tags"`
}

type ReferenceRequest struct {
	Title string        `json:"title"`
	URL   string        `json:"url"`
	Type  ReferenceType `json:"type"`
}
