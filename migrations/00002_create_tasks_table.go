package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateTasksTable, downCreateTasksTable)
}

func upCreateTasksTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE tasks (
	  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	  title TEXT NOT NULL CHECK (btrim(title) <> ''),
	  description TEXT NOT NULL DEFAULT '',
	  completed BOOLEAN NOT NULL DEFAULT FALSE,
	  user_id UUID NOT NULL REFERENCES users(id),
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT clock_timestamp(),
	  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT clock_timestamp()
	);

	CREATE INDEX idx_tasks_user_created ON tasks (user_id, created_at DESC);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateTasksTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS tasks;`)
	return err
}
