package mongo

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"studiorit/internal/models"
	"studiorit/internal/repositories"
)

type projectRepository struct {
	coll  *mongo.Collection
	tasks *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) repositories.ProjectRepository {
	return &projectRepository{
		coll:  db.Collection(projectsCollection),
		tasks: db.Collection(tasksCollection),
	}
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	project.Version = 1
	if _, err := r.coll.InsertOne(ctx, project); err != nil {
		project.Version = 0
		return duplicate(err)
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&project); err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]*models.Project, error) {
	cursor, err := r.coll.Find(ctx, projectQuery(filter), newestFirst())
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	defer cursor.Close(ctx)

	var projects []*models.Project
	for cursor.Next(ctx) {
		var project models.Project
		if err := cursor.Decode(&project); err != nil {
			return nil, fmt.Errorf("decode project: %w", err)
		}
		projects = append(projects, &project)
	}
	return projects, cursor.Err()
}

func projectQuery(f models.ProjectFilter) bson.M {
	q := bson.M{}
	var and bson.A
	if f.Status != nil {
		q["status"] = *f.Status
	}
	if f.Department != nil {
		q["departments"] = *f.Department
	}
	if f.Tag != nil {
		q["tags"] = *f.Tag
	}
	if f.Coordinator != nil {
		q["coordinator"] = *f.Coordinator
	}
	if f.StartAfter != nil {
		q["startDate"] = bson.M{"$gte": *f.StartAfter}
	}
	if f.EndBefore != nil {
		q["endDate"] = bson.M{"$lte": *f.EndBefore}
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}})
	}
	if f.MemberOf != nil {
		uid := *f.MemberOf
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"coordinator": uid},
			bson.M{"createdBy": uid},
			bson.M{"teamMembers.user": uid},
		}})
	}
	if len(and) > 0 {
		q["$and"] = and
	}
	return q
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	next := *project
	next.Version = project.Version + 1
	if err := replaceVersioned(ctx, r.coll, project.ID, project.Version, &next); err != nil {
		return err
	}
	project.Version = next.Version
	return nil
}

// Delete removes the project, then its tasks. The two deletes are not atomic.
func (r *projectRepository) Delete(ctx context.Context, id string) error {
	if err := deleteByID(ctx, r.coll, id); err != nil {
		return err
	}
	if _, err := r.tasks.DeleteMany(ctx, bson.M{"project": id}); err != nil {
		return fmt.Errorf("delete tasks of project %s: %w", id, err)
	}
	return nil
}
