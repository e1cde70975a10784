package repository

import (
	"context"
	"fmt"
	"strings"

	"todo_webapp/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns all tasks owned by userID, newest first.
func (r *TaskRepository) List(ctx context.Context, userID string) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// Get returns the task only when userID owns it.
func (r *TaskRepository) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	var rec taskRecord
	err := r.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(rec.scanTargets()...)
	if err != nil {
		return nil, notFound(err)
	}
	return rec.toTask()
}

func (r *TaskRepository) Create(ctx context.Context, userID string, in domain.NewTask) (*domain.Task, error) {
	var rec taskRecord
	err := r.db.QueryRow(ctx,
		`INSERT INTO tasks (id, user_id, project_id, name, description, status, priority, due_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+taskColumns,
		uuid.NewString(), userID, in.ProjectID, in.Name, in.Description,
		string(domain.TaskStatusOpen), string(in.Priority), in.DueAt,
	).Scan(rec.scanTargets()...)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return rec.toTask()
}

// Update applies the non-nil fields of patch to a task owned by userID.
func (r *TaskRepository) Update(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	if patch.Empty() {
		return r.Get(ctx, userID, id)
	}

	sets := make([]string, 0, 6)
	args := []any{id, userID}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.DueAt != nil {
		set("due_at", *patch.DueAt)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Priority != nil {
		set("priority", string(*patch.Priority))
	}
	switch {
	case patch.ClearProject:
		set("project_id", nil)
	case patch.ProjectID != nil:
		set("project_id", *patch.ProjectID)
	}

	var rec taskRecord
	err := r.db.QueryRow(ctx,
		`UPDATE tasks SET `+strings.Join(sets, ", ")+`
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+taskColumns,
		args...,
	).Scan(rec.scanTargets()...)
	if err != nil {
		return nil, notFound(err)
	}
	return rec.toTask()
}

// Delete removes a task owned by userID permanently.
func (r *TaskRepository) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	res := make([]*domain.Task, 0)
	for rows.Next() {
		var rec taskRecord
		if err := rows.Scan(rec.scanTargets()...); err != nil {
			return nil, err
		}
		t, err := rec.toTask()
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}
