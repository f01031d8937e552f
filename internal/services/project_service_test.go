package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiorit/internal/apperr"
	"studiorit/internal/clock"
	"studiorit/internal/models"
)

func TestCreateProject(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	start := clock.Now()
	req := models.CreateProjectRequest{
		Title:       "Orientation week",
		Description: "Visual identity for orientation",
		StartDate:   start,
		EndDate:     start.Add(14 * 24 * time.Hour),
		Coordinator: w.coord.ID,
		Departments: []models.Department{models.DepartmentDesign},
	}

	p, err := w.projects.CreateProject(ctx, w.creator, req)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectPlanning, p.Status)
	assert.Equal(t, w.creator.ID, p.CreatedBy)
	assert.NotNil(t, p.Tags)

	_, err = w.projects.CreateProject(ctx, w.outsider, req)
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "senior_core is below coordinator")

	bad := req
	bad.EndDate = bad.StartDate
	_, err = w.projects.CreateProject(ctx, w.creator, bad)
	assert.EqualError(t, err, "endDate: end date must be after start date")

	bad = req
	bad.Coordinator = w.junior.ID
	_, err = w.projects.CreateProject(ctx, w.creator, bad)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	bad = req
	bad.Coordinator = "ghost"
	_, err = w.projects.CreateProject(ctx, w.creator, bad)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	bad = req
	bad.Departments = []models.Department{"catering"}
	_, err = w.projects.CreateProject(ctx, w.creator, bad)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestProjectVisibility(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.projects.GetProject(ctx, w.outsider, w.project.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = w.projects.GetProject(ctx, w.member, w.project.ID)
	assert.NoError(t, err)
	_, err = w.projects.GetProject(ctx, w.member, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := w.projects.ListProjects(ctx, w.outsider, models.ProjectFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = w.projects.ListProjects(ctx, w.member, models.ProjectFilter{Search: "SPRING"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = w.projects.ListProjects(ctx, w.admin, models.ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateProject(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	title := "Spring campaign 2026"
	p, err := w.projects.UpdateProject(ctx, w.coord, w.project.ID, models.ProjectPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, p.Title)

	_, err = w.projects.UpdateProject(ctx, w.member, w.project.ID, models.ProjectPatch{Title: &title})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	junior := w.junior.ID
	_, err = w.projects.UpdateProject(ctx, w.creator, w.project.ID, models.ProjectPatch{Coordinator: &junior})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	start := clock.Now()
	end := start.Add(-time.Hour)
	_, err = w.projects.UpdateProject(ctx, w.creator, w.project.ID, models.ProjectPatch{StartDate: &start, EndDate: &end})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	archived := models.ProjectArchived
	p, err = w.projects.UpdateProject(ctx, w.admin, w.project.ID, models.ProjectPatch{Status: &archived})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectArchived, p.Status)
}

func TestDeleteProject(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	assert.True(t, apperr.Is(w.projects.DeleteProject(ctx, w.coord, w.project.ID), apperr.KindForbidden),
		"coordinator alone cannot delete")
	require.NoError(t, w.projects.DeleteProject(ctx, w.creator, w.project.ID))

	_, err := w.store.Tasks.GetByID(ctx, task.ID)
	assert.Error(t, err)
	assert.True(t, apperr.Is(w.projects.DeleteProject(ctx, w.creator, w.project.ID), apperr.KindNotFound))
}

func TestTeamMembers(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	p, err := w.projects.AddTeamMember(ctx, w.coord, w.project.ID, w.outsider.ID, models.MemberPhotographer)
	require.NoError(t, err)
	assert.True(t, models.IsTeamMember(p, w.outsider.ID))
	assert.Contains(t, w.notifier.events, w.outsider.ID+":Added to project team")

	_, err = w.projects.AddTeamMember(ctx, w.coord, w.project.ID, w.outsider.ID, models.MemberEditor)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = w.projects.AddTeamMember(ctx, w.coord, w.project.ID, "ghost", models.MemberEditor)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = w.projects.AddTeamMember(ctx, w.member, w.project.ID, w.admin.ID, models.MemberEditor)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = w.projects.AddTeamMember(ctx, w.coord, w.project.ID, w.admin.ID, "juggler")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	p, err = w.projects.RemoveTeamMember(ctx, w.creator, w.project.ID, w.outsider.ID)
	require.NoError(t, err)
	assert.False(t, models.IsTeamMember(p, w.outsider.ID))
	assert.Len(t, p.TeamMembers, 3)

	_, err = w.projects.RemoveTeamMember(ctx, w.creator, w.project.ID, w.outsider.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	stored, err := w.store.Projects.GetByID(ctx, w.project.ID)
	require.NoError(t, err)
	assert.Len(t, stored.TeamMembers, 3)
}

func TestNotesAndReferences(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	note, err := w.projects.AddProjectNote(ctx, w.member, w.project.ID, "kickoff on monday")
	require.NoError(t, err)
	assert.Equal(t, w.member.ID, note.AddedBy)

	_, err = w.projects.AddProjectNote(ctx, w.member, w.project.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = w.projects.AddProjectNote(ctx, w.outsider, w.project.ID, "hello")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	ref, err := w.projects.AddProjectReference(ctx, w.creator, w.project.ID, models.ReferenceRequest{
		Title: "Brand guide", URL: "https://example.com/brand.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReferenceLink, ref.Type)

	_, err = w.projects.AddProjectReference(ctx, w.creator, w.project.ID, models.ReferenceRequest{Title: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = w.projects.AddProjectReference(ctx, w.creator, w.project.ID, models.ReferenceRequest{
		Title: "x", URL: "https://example.com", Type: "podcast",
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	stored, err := w.store.Projects.GetByID(ctx, w.project.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Notes, 1)
	assert.Len(t, stored.References, 1)
}
