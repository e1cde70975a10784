package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/service/servicetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func newTaskFixture() (*TaskService, *ProjectService) {
	tasks := servicetest.NewTasks()
	projects := servicetest.NewProjects()
	return NewTaskService(tasks, projects), NewProjectService(projects)
}

func TestTaskService_CreateValidation(t *testing.T) {
	svc, _ := newTaskFixture()
	due := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		in        CreateTaskInput
		wantField string
	}{
		{"blank name", CreateTaskInput{Name: "   ", DueAt: &due, Priority: "low"}, "name"},
		{"missing due", CreateTaskInput{Name: "a", Priority: "low"}, "dueAt"},
		{"bad priority", CreateTaskInput{Name: "a", DueAt: &due, Priority: "urgent"}, "priority"},
		{"foreign project", CreateTaskInput{Name: "a", DueAt: &due, Priority: "low", ProjectID: strp("nope")}, "projectId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u1", tt.in)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.wantField)
		})
	}
}

func TestTaskService_OwnershipIsNotFound(t *testing.T) {
	svc, _ := newTaskFixture()
	ctx := context.Background()
	due := time.Now()

	task, err := svc.Create(ctx, "owner", CreateTaskInput{Name: "mine", DueAt: &due, Priority: "med"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusOpen, task.Status)

	_, err = svc.Get(ctx, "intruder", task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Update(ctx, "intruder", task.ID, UpdateTaskInput{Name: strp("theirs")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.ToggleStatus(ctx, "intruder", task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "intruder", task.ID), domain.ErrNotFound)

	_, err = svc.Get(ctx, "owner", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskService_ToggleAndUpdate(t *testing.T) {
	svc, projects := newTaskFixture()
	ctx := context.Background()
	due := time.Now()

	p, err := projects.Create(ctx, "u1", "  Home ")
	require.NoError(t, err)
	assert.Equal(t, "Home", p.Name)

	task, err := svc.Create(ctx, "u1", CreateTaskInput{Name: "sink", DueAt: &due, Priority: "high", ProjectID: &p.ID})
	require.NoError(t, err)

	toggled, err := svc.ToggleStatus(ctx, "u1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusDone, toggled.Status)
	toggled, err = svc.ToggleStatus(ctx, "u1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusOpen, toggled.Status)

	updated, err := svc.Update(ctx, "u1", task.ID, UpdateTaskInput{Priority: strp("low"), ProjectID: strp("")})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPriorityLow, updated.Priority)
	assert.Nil(t, updated.ProjectID)
	assert.Equal(t, "sink", updated.Name)

	_, err = svc.Update(ctx, "u1", task.ID, UpdateTaskInput{Status: strp("archived")})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestTaskService_DetailAfterProjectDeleted(t *testing.T) {
	svc, projects := newTaskFixture()
	ctx := context.Background()
	due := time.Now()

	p, err := projects.Create(ctx, "u1", "Work")
	require.NoError(t, err)
	task, err := svc.Create(ctx, "u1", CreateTaskInput{Name: "report", DueAt: &due, Priority: "med", ProjectID: &p.ID})
	require.NoError(t, err)

	d, err := svc.Detail(ctx, "u1", task.ID)
	require.NoError(t, err)
	require.NotNil(t, d.Project)

	require.NoError(t, projects.Delete(ctx, "u1", p.ID))

	d, err = svc.Detail(ctx, "u1", task.ID)
	require.NoError(t, err)
	assert.Nil(t, d.Project)
	require.NotNil(t, d.ProjectID)
	assert.Equal(t, p.ID, *d.ProjectID)
}

func TestProjectService_NameRequired(t *testing.T) {
	_, projects := newTaskFixture()
	_, err := projects.Create(context.Background(), "u1", " ")
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "required", verr.Fields["name"])
}
