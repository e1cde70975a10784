package repository

import (
	"context"
	"fmt"

	"todo_webapp/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProjectRepository struct {
	db *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// List returns the caller's projects ordered by name.
func (r *ProjectRepository) List(ctx context.Context, userID string) ([]*domain.Project, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY name, created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]*domain.Project, 0)
	for rows.Next() {
		var rec projectRecord
		if err := rows.Scan(rec.scanTargets()...); err != nil {
			return nil, err
		}
		p, err := rec.toProject()
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *ProjectRepository) Get(ctx context.Context, userID, id string) (*domain.Project, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	var rec projectRecord
	err := r.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(rec.scanTargets()...)
	if err != nil {
		return nil, notFound(err)
	}
	return rec.toProject()
}

func (r *ProjectRepository) Create(ctx context.Context, userID, name string) (*domain.Project, error) {
	var rec projectRecord
	err := r.db.QueryRow(ctx,
		`INSERT INTO projects (id, user_id, name) VALUES ($1, $2, $3) RETURNING `+projectColumns,
		uuid.NewString(), userID, name,
	).Scan(rec.scanTargets()...)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return rec.toProject()
}

func (r *ProjectRepository) Rename(ctx context.Context, userID, id, name string) (*domain.Project, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	var rec projectRecord
	err := r.db.QueryRow(ctx,
		`UPDATE projects SET name = $3 WHERE id = $1 AND user_id = $2 RETURNING `+projectColumns,
		id, userID, name,
	).Scan(rec.scanTargets()...)
	if err != nil {
		return nil, notFound(err)
	}
	return rec.toProject()
}

// Delete removes the project. Tasks that reference it are left as they are.
func (r *ProjectRepository) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
