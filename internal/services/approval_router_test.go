package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiorit/internal/apperr"
	"studiorit/internal/models"
	"studiorit/internal/repositories/memory"
)

func TestApprovalRouter_ResolveApprover(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	for _, u := range []*models.User{
		{ID: "coord", Email: "c@x", Role: models.RoleCoordinator},
		{ID: "junior", Email: "j@x", Role: models.RoleJuniorCore},
		{ID: "vol", Email: "v@x", Role: models.RoleVolunteer},
	} {
		require.NoError(t, users.Create(ctx, u))
	}
	router := NewApprovalRouter(users)
	project := &models.Project{ID: "p1", Coordinator: "coord"}

	u, err := router.ResolveApprover(ctx, project, "")
	require.NoError(t, err)
	assert.Equal(t, "coord", u.ID)

	u, err = router.ResolveApprover(ctx, project, "junior")
	require.NoError(t, err)
	assert.Equal(t, "junior", u.ID)

	_, err = router.ResolveApprover(ctx, project, "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = router.ResolveApprover(ctx, project, "vol")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestApprovalRouter_PendingLifecycle(t *testing.T) {
	router := NewApprovalRouter(nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	task := &models.Task{}

	_, err := router.FindPending(task, "coord")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	a, err := router.Request(task, "coord", now)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, a.Status)
	assert.NotEmpty(t, a.ID)

	_, err = router.Request(task, "other", now)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Len(t, task.Approvals, 1)

	_, err = router.FindPending(task, "other")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	idx, err := router.FindPending(task, "coord")
	require.NoError(t, err)
	require.NoError(t, router.Decide(task, idx, models.ApprovalRejected, "redo", now.Add(time.Minute)))
	assert.Equal(t, models.ApprovalRejected, task.Approvals[0].Status)
	assert.Equal(t, "redo", task.Approvals[0].Comments)

	err = router.Decide(task, idx, models.ApprovalApproved, "", now)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = router.Request(task, "coord", now)
	assert.NoError(t, err)
	assert.True(t, apperr.Is(router.Decide(task, 1, models.ApprovalPending, "", now), apperr.KindValidation))
}

func TestApprovalRouter_LatestApprover(t *testing.T) {
	router := NewApprovalRouter(nil)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, ok := router.LatestApprover(&models.Task{})
	assert.False(t, ok)

	task := &models.Task{Approvals: []models.Approval{
		{Approver: "a", UpdatedAt: t0.Add(2 * time.Hour)},
		{Approver: "b", UpdatedAt: t0},
	}}
	got, ok := router.LatestApprover(task)
	assert.True(t, ok)
	assert.Equal(t, "a", got)

	task.Approvals = append(task.Approvals, models.Approval{Approver: "c", UpdatedAt: t0.Add(2 * time.Hour)})
	got, _ = router.LatestApprover(task)
	assert.Equal(t, "c", got, "equal timestamps resolve to the later entry")
}
