package domain

import (
	"fmt"
	"time"
)

type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "open"
	TaskStatusDone TaskStatus = "done"
)

type TaskPriority string

const (
	TaskPriorityLow  TaskPriority = "low"
	TaskPriorityMed  TaskPriority = "med"
	TaskPriorityHigh TaskPriority = "high"
)

// ParseTaskStatus returns an error for anything but open/done.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskStatusOpen, TaskStatusDone:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// ParseTaskPriority returns an error for anything but low/med/high.
func ParseTaskPriority(s string) (TaskPriority, error) {
	switch TaskPriority(s) {
	case TaskPriorityLow, TaskPriorityMed, TaskPriorityHigh:
		return TaskPriority(s), nil
	}
	return "", fmt.Errorf("unknown task priority %q", s)
}

// Toggle flips open <-> done.
func (s TaskStatus) Toggle() TaskStatus {
	if s == TaskStatusOpen {
		return TaskStatusDone
	}
	return TaskStatusOpen
}

type Task struct {
	ID          string       `db:"id" json:"id"`
	UserID      string       `db:"user_id" json:"userId"`
	ProjectID   *string      `db:"project_id" json:"projectId"`
	Name        string       `db:"name" json:"name"`
	Description string       `db:"description" json:"description"`
	Status      TaskStatus   `db:"status" json:"status"`
	Priority    TaskPriority `db:"priority" json:"priority"`
	DueAt       time.Time    `db:"due_at" json:"dueAt"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
}

// NewTask is the input for task creation. Status always starts as open.
type NewTask struct {
	Name        string
	Description string
	DueAt       time.Time
	Priority    TaskPriority
	ProjectID   *string
}

// TaskPatch is a partial update; nil fields are left untouched.
// ClearProject removes the project reference.
type TaskPatch struct {
	Name         *string
	Description  *string
	DueAt        *time.Time
	Status       *TaskStatus
	Priority     *TaskPriority
	ProjectID    *string
	ClearProject bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.DueAt == nil &&
		p.Status == nil && p.Priority == nil && p.ProjectID == nil && !p.ClearProject
}
