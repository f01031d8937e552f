package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"studiorit/internal/models"
)

func revs(versions ...int) []models.Revision {
	out := make([]models.Revision, len(versions))
	for i, v := range versions {
		out[i] = models.Revision{Version: v}
	}
	return out
}

func TestNextVersion(t *testing.T) {
	tests := []struct {
		name     string
		existing []models.Revision
		want     int
	}{
		{"empty", nil, 1},
		{"contiguous", revs(1, 2), 3},
		{"gap takes max not count", revs(1, 3), 4},
		{"out of order", revs(3, 1, 2), 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextVersion(tc.existing))
		})
	}
}

func TestAppendRevision(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	task := &models.Task{Revisions: revs(1)}
	files := []models.File{{Filename: "a.png"}}

	rev := AppendRevision(task, "tweak colors", files, "u1", now)
	assert.Equal(t, 2, rev.Version)
	assert.Equal(t, "u1", rev.SubmittedBy)
	assert.Equal(t, now, rev.SubmittedAt)
	assert.Len(t, task.Revisions, 2)

	files[0].Filename = "changed.png"
	assert.Equal(t, "a.png", task.Revisions[1].Files[0].Filename)

	empty := AppendRevision(&models.Task{}, "", nil, "u1", now)
	assert.Equal(t, 1, empty.Version)
	assert.NotNil(t, empty.Files)
}
