// Package servicetest provides in-memory stores for tests of the service
// layer and the HTTP handlers built on it.
package servicetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"todo_webapp/internal/domain"

	"github.com/google/uuid"
)

type Users struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func NewUsers() *Users {
	return &Users{users: make(map[string]*domain.User)}
}

func (f *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *Users) Create(ctx context.Context, u *domain.User) error {
	if _, err := f.GetByEmail(ctx, u.Email); err == nil {
		return domain.ErrEmailTaken
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = time.Now()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *Users) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

type Resets struct {
	mu     sync.Mutex
	tokens map[string]*domain.PasswordResetToken
}

func NewResets() *Resets {
	return &Resets{tokens: make(map[string]*domain.PasswordResetToken)}
}

func (f *Resets) Create(_ context.Context, t *domain.PasswordResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tokens[t.TokenHash] = &cp
	return nil
}

func (f *Resets) Consume(_ context.Context, hash string, now time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[hash]
	if !ok || t.UsedAt != nil || !now.Before(t.ExpiresAt) {
		return "", domain.ErrTokenExpired
	}
	t.UsedAt = &now
	return t.UserID, nil
}

type SentMail struct {
	Email, Link string
}

type Mailer struct {
	mu   sync.Mutex
	sent []SentMail
}

// Sent returns a copy of every message sent so far.
func (m *Mailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}

func (m *Mailer) SendPasswordReset(_ context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMail{email, link})
	return nil
}

type Tasks struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
	seq   int
}

func NewTasks() *Tasks {
	return &Tasks{tasks: make(map[string]*domain.Task)}
}

func (f *Tasks) List(_ context.Context, userID string) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Task, 0)
	for _, t := range f.tasks {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *Tasks) Get(_ context.Context, userID, id string) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *Tasks) Create(_ context.Context, userID string, in domain.NewTask) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &domain.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProjectID:   in.ProjectID,
		Name:        in.Name,
		Description: in.Description,
		Status:      domain.TaskStatusOpen,
		Priority:    in.Priority,
		DueAt:       in.DueAt,
		CreatedAt:   time.Now().Add(time.Duration(f.seq) * time.Millisecond),
	}
	f.tasks[t.ID] = t
	cp := *t
	return &cp, nil
}

func (f *Tasks) Update(_ context.Context, userID, id string, p domain.TaskPatch) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueAt != nil {
		t.DueAt = *p.DueAt
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearProject {
		t.ProjectID = nil
	} else if p.ProjectID != nil {
		t.ProjectID = p.ProjectID
	}
	cp := *t
	return &cp, nil
}

func (f *Tasks) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.UserID != userID {
		return domain.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

type Projects struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
}

func NewProjects() *Projects {
	return &Projects{projects: make(map[string]*domain.Project)}
}

func (f *Projects) List(_ context.Context, userID string) ([]*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Project, 0)
	for _, p := range f.projects {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *Projects) Get(_ context.Context, userID, id string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok || p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *Projects) Create(_ context.Context, userID, name string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &domain.Project{ID: uuid.NewString(), UserID: userID, Name: name, CreatedAt: time.Now()}
	f.projects[p.ID] = p
	cp := *p
	return &cp, nil
}

func (f *Projects) Rename(_ context.Context, userID, id, name string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok || p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	p.Name = name
	cp := *p
	return &cp, nil
}

func (f *Projects) Delete(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok || p.UserID != userID {
		return domain.ErrNotFound
	}
	delete(f.projects, id)
	return nil
}

// Put stores t as given, for seeding fixed timestamps.
func (f *Tasks) Put(t *domain.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tasks[t.ID] = &cp
}
