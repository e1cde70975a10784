package repository

import (
	"errors"
	"fmt"
	"time"

	"todo_webapp/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// taskRecord is a tasks row as it comes off the wire. Every column is
// nullable here so that conversion can fail loudly instead of defaulting.
type taskRecord struct {
	ID          *string
	UserID      *string
	ProjectID   *string
	Name        *string
	Description *string
	Status      *string
	Priority    *string
	DueAt       *time.Time
	CreatedAt   *time.Time
}

const taskColumns = `id, user_id, project_id, name, description, status, priority, due_at, created_at`

func (r *taskRecord) scanTargets() []any {
	return []any{&r.ID, &r.UserID, &r.ProjectID, &r.Name, &r.Description, &r.Status, &r.Priority, &r.DueAt, &r.CreatedAt}
}

// toTask converts a wire record into a domain task.
func (r *taskRecord) toTask() (*domain.Task, error) {
	var missing []string
	if r.ID == nil {
		missing = append(missing, "id")
	}
	if r.UserID == nil {
		missing = append(missing, "user_id")
	}
	if r.Name == nil {
		missing = append(missing, "name")
	}
	if r.Status == nil {
		missing = append(missing, "status")
	}
	if r.Priority == nil {
		missing = append(missing, "priority")
	}
	if r.DueAt == nil {
		missing = append(missing, "due_at")
	}
	if r.CreatedAt == nil {
		missing = append(missing, "created_at")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("task record missing %v", missing)
	}

	status, err := domain.ParseTaskStatus(*r.Status)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", *r.ID, err)
	}
	priority, err := domain.ParseTaskPriority(*r.Priority)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", *r.ID, err)
	}

	t := &domain.Task{
		ID:        *r.ID,
		UserID:    *r.UserID,
		ProjectID: r.ProjectID,
		Name:      *r.Name,
		Status:    status,
		Priority:  priority,
		DueAt:     *r.DueAt,
		CreatedAt: *r.CreatedAt,
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	return t, nil
}

type projectRecord struct {
	ID        *string
	UserID    *string
	Name      *string
	CreatedAt *time.Time
}

const projectColumns = `id, user_id, name, created_at`

func (r *projectRecord) scanTargets() []any {
	return []any{&r.ID, &r.UserID, &r.Name, &r.CreatedAt}
}

func (r *projectRecord) toProject() (*domain.Project, error) {
	if r.ID == nil || r.UserID == nil || r.Name == nil || r.CreatedAt == nil {
		return nil, errors.New("project record missing required column")
	}
	return &domain.Project{
		ID:        *r.ID,
		UserID:    *r.UserID,
		Name:      *r.Name,
		CreatedAt: *r.CreatedAt,
	}, nil
}

// validID rejects identifiers that could never match a row, so that malformed
// IDs surface as not-found instead of a driver error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// notFound maps pgx.ErrNoRows to domain.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
