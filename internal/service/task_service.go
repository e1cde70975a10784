package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"todo_webapp/internal/domain"
)

const maxNameLength = 200

type TaskStore interface {
	List(ctx context.Context, userID string) ([]*domain.Task, error)
	Get(ctx context.Context, userID, id string) (*domain.Task, error)
	Create(ctx context.Context, userID string, in domain.NewTask) (*domain.Task, error)
	Update(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

type ProjectStore interface {
	List(ctx context.Context, userID string) ([]*domain.Project, error)
	Get(ctx context.Context, userID, id string) (*domain.Project, error)
	Create(ctx context.Context, userID, name string) (*domain.Project, error)
	Rename(ctx context.Context, userID, id, name string) (*domain.Project, error)
	Delete(ctx context.Context, userID, id string) error
}

// CreateTaskInput is the unvalidated form of a new task.
type CreateTaskInput struct {
	Name        string
	Description string
	DueAt       *time.Time
	Priority    string
	ProjectID   *string
}

// UpdateTaskInput is the unvalidated form of a partial update.
type UpdateTaskInput struct {
	Name         *string
	Description  *string
	DueAt        *time.Time
	Status       *string
	Priority     *string
	ProjectID    *string
	ClearProject bool
}

// TaskDetail is a task together with its project, if the project still exists.
type TaskDetail struct {
	*domain.Task
	Project *domain.Project `json:"project"`
}

type TaskService struct {
	tasks    TaskStore
	projects ProjectStore
}

func NewTaskService(tasks TaskStore, projects ProjectStore) *TaskService {
	return &TaskService{tasks: tasks, projects: projects}
}

func (s *TaskService) List(ctx context.Context, userID string) ([]*domain.Task, error) {
	return s.tasks.List(ctx, userID)
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	return s.tasks.Get(ctx, userID, id)
}

// Detail returns the task and its project. A project that no longer exists
// is reported as nil.
func (s *TaskService) Detail(ctx context.Context, userID, id string) (*TaskDetail, error) {
	t, err := s.tasks.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	d := &TaskDetail{Task: t}
	if t.ProjectID != nil {
		p, err := s.projects.Get(ctx, userID, *t.ProjectID)
		switch {
		case err == nil:
			d.Project = p
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	return d, nil
}

func (s *TaskService) Create(ctx context.Context, userID string, in CreateTaskInput) (*domain.Task, error) {
	verr := &domain.ValidationError{}

	name := strings.TrimSpace(in.Name)
	validateName(verr, name)

	if in.DueAt == nil || in.DueAt.IsZero() {
		verr.Add("dueAt", "required")
	}

	priority, err := domain.ParseTaskPriority(strings.TrimSpace(in.Priority))
	if err != nil {
		verr.Add("priority", "must be one of low, med, high")
	}

	projectID := normalizeProjectID(in.ProjectID)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := s.checkProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	return s.tasks.Create(ctx, userID, domain.NewTask{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		DueAt:       in.DueAt.UTC(),
		Priority:    priority,
		ProjectID:   projectID,
	})
}

func (s *TaskService) Update(ctx context.Context, userID, id string, in UpdateTaskInput) (*domain.Task, error) {
	verr := &domain.ValidationError{}
	var patch domain.TaskPatch

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		validateName(verr, name)
		patch.Name = &name
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		patch.Description = &desc
	}
	if in.DueAt != nil {
		if in.DueAt.IsZero() {
			verr.Add("dueAt", "required")
		}
		due := in.DueAt.UTC()
		patch.DueAt = &due
	}
	if in.Status != nil {
		st, err := domain.ParseTaskStatus(strings.TrimSpace(*in.Status))
		if err != nil {
			verr.Add("status", "must be one of open, done")
		}
		patch.Status = &st
	}
	if in.Priority != nil {
		p, err := domain.ParseTaskPriority(strings.TrimSpace(*in.Priority))
		if err != nil {
			verr.Add("priority", "must be one of low, med, high")
		}
		patch.Priority = &p
	}

	projectID := normalizeProjectID(in.ProjectID)
	if in.ClearProject || (in.ProjectID != nil && projectID == nil) {
		patch.ClearProject = true
	} else {
		patch.ProjectID = projectID
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := s.checkProject(ctx, userID, patch.ProjectID); err != nil {
		return nil, err
	}

	return s.tasks.Update(ctx, userID, id, patch)
}

// ToggleStatus flips a task between open and done.
func (s *TaskService) ToggleStatus(ctx context.Context, userID, id string) (*domain.Task, error) {
	t, err := s.tasks.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	next := t.Status.Toggle()
	return s.tasks.Update(ctx, userID, id, domain.TaskPatch{Status: &next})
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	return s.tasks.Delete(ctx, userID, id)
}

// checkProject rejects project references the caller does not own.
func (s *TaskService) checkProject(ctx context.Context, userID string, projectID *string) error {
	if projectID == nil {
		return nil
	}
	_, err := s.projects.Get(ctx, userID, *projectID)
	if errors.Is(err, domain.ErrNotFound) {
		verr := &domain.ValidationError{}
		verr.Add("projectId", "unknown project")
		return verr
	}
	return err
}

func validateName(verr *domain.ValidationError, name string) {
	switch {
	case name == "":
		verr.Add("name", "required")
	case len(name) > maxNameLength:
		verr.Add("name", "too long")
	}
}

// normalizeProjectID maps "", "none" and "all" to no project.
func normalizeProjectID(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" || v == "none" || v == "all" {
		return nil
	}
	return &v
}
