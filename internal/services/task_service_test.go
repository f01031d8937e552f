package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiorit/internal/apperr"
	"studiorit/internal/authz"
	"studiorit/internal/clock"
	"studiorit/internal/models"
)

func TestCreateTask(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	due := clock.Now().Add(time.Hour)

	d := w.newTask(t)
	assert.Equal(t, models.StatusTodo, d.Status)
	assert.Equal(t, models.PriorityMedium, d.Priority)
	assert.Equal(t, w.coord.ID, d.AssignedBy)
	assert.Equal(t, w.coord.ID, d.CreatedBy)
	assert.Equal(t, "Spring campaign", d.Project.Title)
	assert.Equal(t, "Ash", d.People[w.assignee.ID].Name)
	assert.Contains(t, w.notifier.events, w.assignee.ID+":New task assigned")

	tests := []struct {
		name  string
		actor authz.Actor
		req   models.CreateTaskRequest
		kind  apperr.Kind
	}{
		{"missing project", w.coord, models.CreateTaskRequest{Title: "x", Description: "y", ProjectID: "nope", AssignedTo: w.assignee.ID, DueDate: due}, apperr.KindNotFound},
		{"missing assignee", w.coord, models.CreateTaskRequest{Title: "x", Description: "y", ProjectID: "p1", AssignedTo: "ghost", DueDate: due}, apperr.KindNotFound},
		{"assignee outside team", w.coord, models.CreateTaskRequest{Title: "x", Description: "y", ProjectID: "p1", AssignedTo: w.outsider.ID, DueDate: due}, apperr.KindValidation},
		{"outsider cannot create", w.outsider, models.CreateTaskRequest{Title: "x", Description: "y", ProjectID: "p1", AssignedTo: w.assignee.ID, DueDate: due}, apperr.KindForbidden},
		{"bad priority", w.coord, models.CreateTaskRequest{Title: "x", Description: "y", ProjectID: "p1", AssignedTo: w.assignee.ID, DueDate: due, Priority: "asap"}, apperr.KindValidation},
		{"missing title", w.coord, models.CreateTaskRequest{Description: "y", ProjectID: "p1", AssignedTo: w.assignee.ID, DueDate: due}, apperr.KindValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := w.tasks.CreateTask(ctx, tc.actor, tc.req)
			assert.Equal(t, tc.kind, apperr.KindOf(err), "err=%v", err)
		})
	}

	coordAsAssignee, err := w.tasks.CreateTask(ctx, w.member, models.CreateTaskRequest{
		Title: "x", Description: "y", ProjectID: "p1", AssignedTo: w.coord.ID, DueDate: due,
	})
	require.NoError(t, err)
	assert.Equal(t, w.coord.ID, coordAsAssignee.AssignedTo)
}

func TestSubmitForApproval_DefaultsToCoordinator(t *testing.T) {
	w := newWorld(t)
	task := w.newTask(t)

	d, err := w.tasks.SubmitForApproval(context.Background(), w.assignee, task.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, d.Status)
	require.Len(t, d.Approvals, 1)
	assert.Equal(t, models.ApprovalPending, d.Approvals[0].Status)
	assert.Equal(t, w.coord.ID, d.Approvals[0].Approver)
	assert.Equal(t, "Task submitted for approval by Ash", d.Comments[len(d.Comments)-1].Text)
	assert.Contains(t, w.notifier.events, w.coord.ID+":Task awaiting your approval")
}

func TestSubmitForApproval_Guards(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	_, err := w.tasks.SubmitForApproval(ctx, w.coord, task.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "only the assignee may submit")

	_, err = w.tasks.SubmitForApproval(ctx, w.assignee, task.ID, w.member.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "volunteer cannot approve")

	_, err = w.tasks.SubmitForApproval(ctx, w.assignee, task.ID, "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	assert.Empty(t, w.stored(t, task.ID).Approvals, "failed submissions leave no trace")
	assert.Equal(t, models.StatusTodo, w.stored(t, task.ID).Status)

	d, err := w.tasks.SubmitForApproval(ctx, w.assignee, task.ID, w.junior.ID)
	require.NoError(t, err)
	assert.Equal(t, w.junior.ID, d.Approvals[0].Approver)

	_, err = w.tasks.SubmitForApproval(ctx, w.assignee, task.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindConflict), "already under review")

	_, err = w.tasks.SubmitForApproval(ctx, w.assignee, "missing", "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSubmitForApproval_RejectsSecondPending(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	_, err := w.tasks.SubmitForApproval(ctx, w.assignee, task.ID, "")
	require.NoError(t, err)
	// Move the task out of review without resolving the pending approval.
	inProgress := models.StatusInProgress
	_, err = w.tasks.UpdateTask(ctx, w.coord, task.ID, models.TaskPatch{Status: &inProgress})
	require.NoError(t, err)

	_, err = w.tasks.SubmitForApproval(ctx, w.assignee, task.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Len(t, w.stored(t, task.ID).Approvals, 1)
}

func TestProcessTaskApproval(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected", func(t *testing.T) {
		w := newWorld(t)
		task := w.newTask(t)
		_, err := w.tasks.SubmitForApproval(ctx, w.assignee, task.ID, "")
		require.NoError(t, err)

		d, err := w.tasks.ProcessTaskApproval(ctx, w.coord, task.ID, "rejected", "needs more work")
		require.NoError(t, err)
		assert.Equal(t, models.StatusNeedsRevision, d.Status)
		assert.Nil(t, d.CompletedAt)
		assert.Nil(t, d.CompletedBy)
		assert.Equal(t, models.ApprovalRejected, d.Approvals[0].Status)
		assert.Equal(t, "needs more work", d.Approvals[0].Comments)
		assert.Equal(t, "Task rejected by Cora: needs more work", d.Comments[len(d.Comments)-1].Text)
	})

	t.Run("approved", func(t *testing.T) {
		w := newWorld(t)
		task := w.newTask(t)
		_, err := w.tasks.SubmitForApproval(ctx, w.assignee, task.ID, w.junior.ID)
		require.NoError(t, err)

		d, err := w.tasks.ProcessTaskApproval(ctx, w.junior, task.ID, "approved", "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, d.Status)
		require.NotNil(t, d.CompletedAt)
		require.NotNil(t, d.CompletedBy)
		assert.Equal(t, w.junior.ID, *d.CompletedBy)
		assert.Equal(t, "Task approved by Jude", d.Comments[len(d.Comments)-1].Text)
		assert.Contains(t, w.notifier.events, w.assignee.ID+":Task approved")
	})

	t.Run("guards", func(t *testing.T) {
		w := newWorld(t)
		task := w.newTask(t)

		_, err := w.tasks.ProcessTaskApproval(ctx, w.coord, task.ID, "maybe", "")
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		_, err = w.tasks.ProcessTaskApproval(ctx, w.coord, task.ID, "approved", "")
		assert.True(t, apperr.Is(err, apperr.KindConflict), "not under review")

		_, err = w.tasks.SubmitForApproval(ctx, w.assignee, task.ID, w.junior.ID)
		require.NoError(t, err)

		for _, a := range []authz.Actor{w.coord, w.admin, w.assignee} {
			_, err = w.tasks.ProcessTaskApproval(ctx, a, task.ID, "approved", "")
			assert.True(t, apperr.Is(err, apperr.KindForbidden), "%s is not the approver", a.ID)
		}
		assert.Equal(t, models.StatusUnderReview, w.stored(t, task.ID).Status)

		_, err = w.tasks.ProcessTaskApproval(ctx, w.junior, "missing", "approved", "")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestAddRevision(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	rev, d, err := w.tasks.AddRevision(ctx, w.assignee, task.ID, models.RevisionRequest{Description: "first cut"})
	require.NoError(t, err)
	assert.Equal(t, 1, rev.Version)
	assert.Equal(t, models.StatusTodo, d.Status, "status only moves from needs_revision")
	assert.Empty(t, d.Approvals)
	assert.Equal(t, "Revision v1 submitted by Ash: first cut", d.Comments[len(d.Comments)-1].Text)

	rev, _, err = w.tasks.AddRevision(ctx, w.assignee, task.ID, models.RevisionRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, rev.Version)
	files := w.stored(t, task.ID).Revisions[1].Files
	assert.NotNil(t, files, "a revision without files keeps an empty list")
	assert.Empty(t, files)

	_, _, err = w.tasks.AddRevision(ctx, w.coord, task.ID, models.RevisionRequest{})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, _, err = w.tasks.AddRevision(ctx, w.assignee, "missing", models.RevisionRequest{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAddRevision_ReroutesToLatestApprover(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	_, err := w.tasks.SubmitForApproval(ctx, w.assignee, task.ID, w.junior.ID)
	require.NoError(t, err)
	_, err = w.tasks.ProcessTaskApproval(ctx, w.junior, task.ID, "rejected", "")
	require.NoError(t, err)

	_, d, err := w.tasks.AddRevision(ctx, w.assignee, task.ID, models.RevisionRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, d.Status)
	require.Len(t, d.Approvals, 2)
	assert.Equal(t, models.ApprovalPending, d.Approvals[1].Status)
	assert.Equal(t, w.junior.ID, d.Approvals[1].Approver)
	assert.Contains(t, w.notifier.events, w.junior.ID+":Revision awaiting your approval")
}

func TestApprovalRoundTrip(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	d, err := w.tasks.SubmitForApproval(ctx, w.assignee, task.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, d.Status)
	assert.Equal(t, []models.ApprovalStatus{models.ApprovalPending}, approvalStatuses(d.Task))

	d, err = w.tasks.ProcessTaskApproval(ctx, w.coord, task.ID, "rejected", "needs more work")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNeedsRevision, d.Status)
	assert.Equal(t, []models.ApprovalStatus{models.ApprovalRejected}, approvalStatuses(d.Task))
	assert.Equal(t, "needs more work", d.Approvals[0].Comments)

	rev, d, err := w.tasks.AddRevision(ctx, w.assignee, task.ID, models.RevisionRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, rev.Version)
	assert.Equal(t, models.StatusUnderReview, d.Status)
	assert.Equal(t, []models.ApprovalStatus{models.ApprovalRejected, models.ApprovalPending}, approvalStatuses(d.Task))
	assert.Equal(t, w.coord.ID, d.Approvals[1].Approver)

	d, err = w.tasks.ProcessTaskApproval(ctx, w.coord, task.ID, "approved", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, d.Status)
	require.NotNil(t, d.CompletedBy)
	assert.Equal(t, w.coord.ID, *d.CompletedBy, "completion is attributed to the approver")
	assert.NotEqual(t, w.assignee.ID, *d.CompletedBy)
	assert.Equal(t, 1, d.LastVersion)
}

func approvalStatuses(t *models.Task) []models.ApprovalStatus {
	out := make([]models.ApprovalStatus, len(t.Approvals))
	for i, a := range t.Approvals {
		out[i] = a.Status
	}
	return out
}

func TestUpdateTask_StatusOverride(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	completed := models.StatusCompleted
	d, err := w.tasks.UpdateTask(ctx, w.assignee, task.ID, models.TaskPatch{Status: &completed})
	require.NoError(t, err)
	require.NotNil(t, d.CompletedBy)
	assert.Equal(t, w.assignee.ID, *d.CompletedBy)
	assert.NotNil(t, d.CompletedAt)

	reopened := models.StatusInProgress
	d, err = w.tasks.UpdateTask(ctx, w.coord, task.ID, models.TaskPatch{Status: &reopened})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, d.Status)
	assert.Nil(t, d.CompletedAt)
	assert.Nil(t, d.CompletedBy)

	bogus := models.TaskStatus("done")
	_, err = w.tasks.UpdateTask(ctx, w.coord, task.ID, models.TaskPatch{Status: &bogus})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateTask_Fields(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	title := "Poster v2"
	urgent := models.PriorityUrgent
	due := clock.Now().Add(24 * time.Hour).Truncate(time.Second)
	d, err := w.tasks.UpdateTask(ctx, w.coord, task.ID, models.TaskPatch{Title: &title, Priority: &urgent, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, "Poster v2", d.Title)
	assert.Equal(t, models.PriorityUrgent, d.Priority)
	assert.Equal(t, due, d.DueDate)

	_, err = w.tasks.UpdateTask(ctx, w.member, task.ID, models.TaskPatch{Title: &title})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = w.tasks.UpdateTask(ctx, w.coord, "missing", models.TaskPatch{Title: &title})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateTask_Reassign(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	outsider := w.outsider.ID
	title := "should not stick"
	_, err := w.tasks.UpdateTask(ctx, w.coord, task.ID, models.TaskPatch{Title: &title, AssignedTo: &outsider})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "Poster", w.stored(t, task.ID).Title, "failed update is atomic")

	ghost := "ghost"
	_, err = w.tasks.UpdateTask(ctx, w.coord, task.ID, models.TaskPatch{AssignedTo: &ghost})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	member := w.member.ID
	d, err := w.tasks.UpdateTask(ctx, w.coord, task.ID, models.TaskPatch{AssignedTo: &member})
	require.NoError(t, err)
	assert.Equal(t, w.member.ID, d.AssignedTo)
	assert.Equal(t, "Task reassigned from Ash to Milo by Cora", d.Comments[len(d.Comments)-1].Text)
	assert.Contains(t, w.notifier.events, w.member.ID+":Task reassigned to you")
}

func TestAddComment(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	a, err := w.tasks.AddComment(ctx, w.member, task.ID, "looks good")
	require.NoError(t, err)
	b, err := w.tasks.AddComment(ctx, w.member, task.ID, "looks good")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, w.stored(t, task.ID).Comments, 2, "identical comments are not deduplicated")

	_, err = w.tasks.AddComment(ctx, w.creator, task.ID, "hi")
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "project creator is not a commenter")

	_, err = w.tasks.AddComment(ctx, w.member, task.ID, "  ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeleteTask(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	assert.True(t, apperr.Is(w.tasks.DeleteTask(ctx, w.assignee, task.ID), apperr.KindForbidden))
	require.NoError(t, w.tasks.DeleteTask(ctx, w.coord, task.ID))
	assert.True(t, apperr.Is(w.tasks.DeleteTask(ctx, w.coord, task.ID), apperr.KindNotFound))
}

func TestGetAndListTasks(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	_, err := w.tasks.GetTask(ctx, w.outsider, task.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	d, err := w.tasks.GetTask(ctx, w.member, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, d.ID)

	list, err := w.tasks.ListTasks(ctx, w.outsider, models.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "outsider sees nothing")

	list, err = w.tasks.ListTasks(ctx, w.member, models.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = w.tasks.ListTasks(ctx, w.admin, models.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInactiveActorCannotMutate(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	inactive := w.assignee
	inactive.IsActive = false
	_, err := w.tasks.SubmitForApproval(ctx, inactive, task.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = w.tasks.ListTasks(ctx, inactive, models.TaskFilter{})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestConcurrentRevisionsGetDistinctVersions(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := w.tasks.AddRevision(ctx, w.assignee, task.ID, models.RevisionRequest{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	seen := map[int]bool{}
	for _, r := range w.stored(t, task.ID).Revisions {
		assert.False(t, seen[r.Version], "duplicate version %d", r.Version)
		seen[r.Version] = true
	}
	assert.Len(t, seen, n)
}

func TestStaleWriteSurfacesConflict(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	task := w.newTask(t)

	stale := w.stored(t, task.ID)
	_, err := w.tasks.AddComment(ctx, w.member, task.ID, "first")
	require.NoError(t, err)

	stale.Title = "lost update"
	err = repoErr(w.store.Tasks.Update(ctx, stale), "task")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}
