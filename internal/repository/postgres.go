package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Users() UserRepository { return NewPostgresUserRepository(s.db) }

func (s *PostgresStore) Tasks() TaskRepository { return NewPostgresTaskRepository(s.db) }

func (s *PostgresStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
