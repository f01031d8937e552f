package services

import (
	"time"

	"studiorit/internal/models"
)

// NextVersion is one more than the highest recorded version, or 1.
// Gaps in the numbering are preserved.
func NextVersion(revisions []models.Revision) int {
	highest := 0
	for _, r := range revisions {
		if r.Version > highest {
			highest = r.Version
		}
	}
	return highest + 1
}

// AppendRevision records a new revision on task and returns it.
func AppendRevision(task *models.Task, description string, files []models.File, submitter string, now time.Time) models.Revision {
	rev := models.Revision{
		Version:     NextVersion(task.Revisions),
		Description: description,
		Files:       make([]models.File, len(files)),
		SubmittedBy: submitter,
		SubmittedAt: now,
	}
	copy(rev.Files, files)
	task.Revisions = append(task.Revisions, rev)
	return rev
}
