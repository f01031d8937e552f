package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"studiorit/internal/clock"
	"studiorit/internal/models"
)

type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository stores each task as one JSONB document plus a version column.
func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	doc, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	task.Version = 1
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, doc, version, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		task.ID, task.ProjectID, string(doc), task.Version, task.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var (
		doc     []byte
		version int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT doc, version FROM tasks WHERE id = $1`, id).Scan(&doc, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeTask(doc, version)
}

func (r *taskRepository) List(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	query := `SELECT doc, version FROM tasks`

	conditions := []string{}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ProjectID != nil {
		conditions = append(conditions, "project_id = "+arg(*filter.ProjectID))
	}
	if filter.Status != nil {
		conditions = append(conditions, "doc->>'status' = "+arg(string(*filter.Status)))
	}
	if filter.Priority != nil {
		conditions = append(conditions, "doc->>'priority' = "+arg(string(*filter.Priority)))
	}
	if filter.AssignedTo != nil {
		conditions = append(conditions, "doc->>'assignedTo' = "+arg(*filter.AssignedTo))
	}
	if filter.CreatedBy != nil {
		conditions = append(conditions, "doc->>'createdBy' = "+arg(*filter.CreatedBy))
	}
	if filter.DueBefore != nil {
		conditions = append(conditions, "(doc->>'dueDate')::timestamptz < "+arg(*filter.DueBefore))
	}
	if filter.DueAfter != nil {
		conditions = append(conditions, "(doc->>'dueDate')::timestamptz > "+arg(*filter.DueAfter))
	}
	if filter.Overdue {
		conditions = append(conditions,
			"(doc->>'dueDate')::timestamptz < "+arg(clock.Now()),
			"doc->>'status' <> "+arg(string(models.StatusCompleted)),
			"doc->'completedAt' IS NULL",
		)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		var (
			doc     []byte
			version int64
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, err
		}
		t, err := decodeTask(doc, version)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	doc, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET doc = $1, project_id = $2, version = version + 1
		WHERE id = $3 AND version = $4`,
		string(doc), task.ProjectID, task.ID, task.Version,
	)
	if err != nil {
		return err
	}
	if err := checkWritten(ctx, r.db, "tasks", res, task.ID); err != nil {
		return err
	}
	task.Version++
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeTask(doc []byte, version int64) (*models.Task, error) {
	t := &models.Task{}
	if err := json.Unmarshal(doc, t); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	t.Version = version
	return t, nil
}
