package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"task-service/internal/model"
)

type postgresTaskRepository struct {
	db *sqlx.DB
}

func NewPostgresTaskRepository(db *sqlx.DB) TaskRepository {
	return &postgresTaskRepository{db: db}
}

func (r *postgresTaskRepository) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	query := `
		INSERT INTO tasks (title, description, completed, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	row := r.db.QueryRowxContext(ctx, query, task.Title, task.Description, task.Completed, task.UserID)
	if err := row.Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *postgresTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	query := `SELECT id, title, description, completed, user_id, created_at, updated_at FROM tasks WHERE id = $1`
	err := r.db.GetContext(ctx, &task, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &task, nil
}

func (r *postgresTaskRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	query := `
		SELECT id, title, description, completed, user_id, created_at, updated_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, err
	}

	if tasks == nil {
		tasks = []model.Task{}
	}

	return tasks, nil
}

func (r *postgresTaskRepository) Update(ctx context.Context, task *model.Task) (*model.Task, error) {
	var updated model.Task
	query := `
		UPDATE tasks SET title = $1, description = $2, completed = $3, updated_at = now()
		WHERE id = $4 AND user_id = $5
		RETURNING id, title, description, completed, user_id, created_at, updated_at
	`
	err := r.db.GetContext(ctx, &updated, query, task.Title, task.Description, task.Completed, task.ID, task.UserID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &updated, nil
}

func (r *postgresTaskRepository) DeleteOwned(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
