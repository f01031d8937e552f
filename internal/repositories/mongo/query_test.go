package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"studiorit/internal/clock"
	"studiorit/internal/models"
)

func TestTaskQuery(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	clock.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { clock.NowFunc = func() time.Time { return time.Now().UTC() } })

	p := "p1"
	st := models.StatusTodo
	assert.Equal(t, bson.M{}, taskQuery(models.TaskFilter{}))
	assert.Equal(t, bson.M{"project": "p1", "status": st}, taskQuery(models.TaskFilter{ProjectID: &p, Status: &st}))

	q := taskQuery(models.TaskFilter{Overdue: true})
	assert.Equal(t, bson.A{
		bson.M{"dueDate": bson.M{"$lt": now}},
		bson.M{"status": bson.M{"$ne": models.StatusCompleted}},
		bson.M{"completedAt": bson.M{"$exists": false}},
	}, q["$and"])
}

func TestProjectQuery(t *testing.T) {
	uid := "u1"
	q := projectQuery(models.ProjectFilter{MemberOf: &uid, Search: "a.b"})
	and, ok := q["$and"].(bson.A)
	if assert.True(t, ok) {
		assert.Len(t, and, 2)
	}
	member := and[1].(bson.M)["$or"].(bson.A)
	assert.Contains(t, member, bson.M{"teamMembers.user": "u1"})
	assert.Empty(t, projectQuery(models.ProjectFilter{}))
}
