package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"studiorit/internal/models"
)

type projectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	doc, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	project.Version = 1
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (id, doc, version, created_at)
		VALUES ($1, $2, $3, $4)`,
		project.ID, string(doc), project.Version, project.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var (
		doc     []byte
		version int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT doc, version FROM projects WHERE id = $1`, id).Scan(&doc, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeProject(doc, version)
}

func (r *projectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]*models.Project, error) {
	query := `SELECT doc, version FROM projects`

	conditions := []string{}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != nil {
		conditions = append(conditions, "doc->>'status' = "+arg(string(*filter.Status)))
	}
	if filter.Department != nil {
		conditions = append(conditions, "doc->'departments' @> jsonb_build_array("+arg(string(*filter.Department))+"::text)")
	}
	if filter.Tag != nil {
		conditions = append(conditions, "doc->'tags' @> jsonb_build_array("+arg(*filter.Tag)+"::text)")
	}
	if filter.Coordinator != nil {
		conditions = append(conditions, "doc->>'coordinator' = "+arg(*filter.Coordinator))
	}
	if filter.StartAfter != nil {
		conditions = append(conditions, "(doc->>'startDate')::timestamptz >= "+arg(*filter.StartAfter))
	}
	if filter.EndBefore != nil {
		conditions = append(conditions, "(doc->>'endDate')::timestamptz <= "+arg(*filter.EndBefore))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := arg("%" + s + "%")
		conditions = append(conditions, "(doc->>'title' ILIKE "+p+" OR doc->>'description' ILIKE "+p+")")
	}
	if filter.MemberOf != nil {
		p := arg(*filter.MemberOf)
		conditions = append(conditions, "(doc->>'coordinator' = "+p+
			" OR doc->>'createdBy' = "+p+
			" OR doc->'teamMembers' @> jsonb_build_array(jsonb_build_object('user', "+p+"::text)))")
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

	var projects []*models.Project
	for rows.Next() {
		var (
			doc     []byte
			version int64
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, err
		}
		p, err := decodeProject(doc, version)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	doc, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET doc = $1, version = version + 1
		WHERE id = $2 AND version = $3`,
		string(doc), project.ID, project.Version,
	)
	if err != nil {
		return err
	}
	if err := checkWritten(ctx, r.db, "projects", res, project.ID); err != nil {
		return err
	}
	project.Version++
	return nil
}

// Delete removes the project and its tasks in one transaction.
func (r *projectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
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
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func decodeProject(doc []byte, version int64) (*models.Project, error) {
	p := &models.Project{}
	if err := json.Unmarshal(doc, p); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	p.Version = version
	return p, nil
}
