package service

import (
	"context"
	"strings"

	"todo_webapp/internal/domain"
)

type ProjectService struct {
	projects ProjectStore
}

func NewProjectService(projects ProjectStore) *ProjectService {
	return &ProjectService{projects: projects}
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]*domain.Project, error) {
	return s.projects.List(ctx, userID)
}

func (s *ProjectService) Get(ctx context.Context, userID, id string) (*domain.Project, error) {
	return s.projects.Get(ctx, userID, id)
}

func (s *ProjectService) Create(ctx context.Context, userID, name string) (*domain.Project, error) {
	name, err := projectName(name)
	if err != nil {
		return nil, err
	}
	return s.projects.Create(ctx, userID, name)
}

func (s *ProjectService) Rename(ctx context.Context, userID, id, name string) (*domain.Project, error) {
	name, err := projectName(name)
	if err != nil {
		return nil, err
	}
	return s.projects.Rename(ctx, userID, id, name)
}

// Delete removes the project; its tasks keep their project reference.
func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	return s.projects.Delete(ctx, userID, id)
}

func projectName(name string) (string, error) {
	verr := &domain.ValidationError{}
	name = strings.TrimSpace(name)
	validateName(verr, name)
	return name, verr.OrNil()
}
