package memory

import (
	"time"

	"studiorit/internal/models"
)

type taskRecord models.Task

func (r *taskRecord) key() string          { return r.ID }
func (r *taskRecord) version() int64       { return r.Version }
func (r *taskRecord) setVersion(v int64)   { r.Version = v }
func (r *taskRecord) createdAt() time.Time { return r.CreatedAt }
func (r *taskRecord) clone() *taskRecord {
	return (*taskRecord)((*models.Task)(r).Clone())
}

type projectRecord models.Project

func (r *projectRecord) key() string          { return r.ID }
func (r *projectRecord) version() int64       { return r.Version }
func (r *projectRecord) setVersion(v int64)   { r.Version = v }
func (r *projectRecord) createdAt() time.Time { return r.CreatedAt }
func (r *projectRecord) clone() *projectRecord {
	return (*projectRecord)((*models.Project)(r).Clone())
}
