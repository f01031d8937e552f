package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"studiorit/internal/clock"
	"studiorit/internal/models"
	"studiorit/internal/repositories"
)

type taskRepository struct {
	coll *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) repositories.TaskRepository {
	return &taskRepository{coll: db.Collection(tasksCollection)}
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	task.Version = 1
	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		task.Version = 0
		return duplicate(err)
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	cursor, err := r.coll.Find(ctx, taskQuery(filter), newestFirst())
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []*models.Task
	for cursor.Next(ctx) {
		var task models.Task
		if err := cursor.Decode(&task); err != nil {
			return nil, fmt.Errorf("decode task: %w", err)
		}
		tasks = append(tasks, &task)
	}
	return tasks, cursor.Err()
}

func taskQuery(f models.TaskFilter) bson.M {
	q := bson.M{}
	if f.ProjectID != nil {
		q["project"] = *f.ProjectID
	}
	if f.Status != nil {
		q["status"] = *f.Status
	}
	if f.Priority != nil {
		q["priority"] = *f.Priority
	}
	if f.AssignedTo != nil {
		q["assignedTo"] = *f.AssignedTo
	}
	if f.CreatedBy != nil {
		q["createdBy"] = *f.CreatedBy
	}
	due := bson.M{}
	if f.DueBefore != nil {
		due["$lt"] = *f.DueBefore
	}
	if f.DueAfter != nil {
		due["$gt"] = *f.DueAfter
	}
	if len(due) > 0 {
		q["dueDate"] = due
	}
	if f.Overdue {
		q["$and"] = bson.A{
			bson.M{"dueDate": bson.M{"$lt": clock.Now()}},
			bson.M{"status": bson.M{"$ne": models.StatusCompleted}},
			bson.M{"completedAt": bson.M{"$exists": false}},
		}
	}
	return q
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	next := *task
	next.Version = task.Version + 1
	if err := replaceVersioned(ctx, r.coll, task.ID, task.Version, &next); err != nil {
		return err
	}
	task.Version = next.Version
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}
