package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiorit/internal/models"
)

func TestTaskReport(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	by := "coord"
	detail := &models.TaskDetail{
		Task: &models.Task{
			ID:          "t1",
			Title:       "Poster",
			Description: "A2 poster for the launch",
			Status:      models.StatusCompleted,
			Priority:    models.PriorityHigh,
			AssignedTo:  "ash",
			CreatedBy:   "coord",
			DueDate:     now.Add(48 * time.Hour),
			Approvals: []models.Approval{
				{ID: "a1", Status: models.ApprovalRejected, Approver: "coord", Comments: "colors", UpdatedAt: now},
				{ID: "a2", Status: models.ApprovalApproved, Approver: "coord", UpdatedAt: now.Add(time.Hour)},
			},
			Revisions: []models.Revision{
				{Version: 1, Description: "café palette", SubmittedBy: "ash", SubmittedAt: now},
			},
			CompletedAt: &now,
			CompletedBy: &by,
		},
		Project: models.ProjectSummary{ID: "p1", Title: "Spring campaign"},
		People: map[string]models.UserSummary{
			"ash":   {ID: "ash", Name: "Ash"},
			"coord": {ID: "coord", Name: "Cora"},
		},
	}

	out, err := NewDocumentGenerator("").TaskReport(detail)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestTaskReport_NilTask(t *testing.T) {
	_, err := NewDocumentGenerator("").TaskReport(&models.TaskDetail{})
	assert.Error(t, err)
}

func TestTaskReport_ReusedGenerator(t *testing.T) {
	g := NewDocumentGenerator("")
	detail := &models.TaskDetail{
		Task:   &models.Task{ID: "t1", Title: "Résumé café", Description: "naïve façade"},
		People: map[string]models.UserSummary{},
	}
	for i := 0; i < 2; i++ {
		out, err := g.TaskReport(detail)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	}
}
