// Package mongostore keeps users and tasks in MongoDB. Documents are keyed by
// the string form of their uuid so ids stay interchangeable with the SQL store.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-service/internal/repository"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	db  *mongo.Database
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		db: db,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Millisecond)
		},
	}
}

// Connect dials uri and returns the client together with a store bound to database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongo: %w", err)
	}

	store := New(client.Database(database))
	if err := store.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, store, nil
}

func (s *Store) Users() repository.UserRepository { return userStore{s} }

func (s *Store) Tasks() repository.TaskRepository { return taskStore{s} }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique email index and the owner listing index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}

	_, err = s.db.Collection(tasksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create tasks owner index: %w", err)
	}

	return nil
}
