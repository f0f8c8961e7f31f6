package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-service/internal/model"
	"task-service/internal/repository"
)

type taskDocument struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Completed   bool      `bson:"completed"`
	UserID      string    `bson:"userId"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func newTaskDocument(t *model.Task) taskDocument {
	return taskDocument{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		UserID:      t.UserID.String(),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (d taskDocument) toModel() (*model.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("decode task id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("decode task owner %q: %w", d.UserID, err)
	}
	return &model.Task{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		UserID:      userID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func ownedBy(id, userID uuid.UUID) bson.D {
	return bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "userId", Value: userID.String()},
	}
}

type taskStore struct {
	s *Store
}

func (r taskStore) collection() *mongo.Collection {
	return r.s.db.Collection(tasksCollection)
}

func (r taskStore) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	now := r.s.now()
	task.ID = uuid.New()
	task.CreatedAt = now
	task.UpdatedAt = now

	if _, err := r.collection().InsertOne(ctx, newTaskDocument(task)); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return task, nil
}

func (r taskStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var doc taskDocument

	err := r.collection().FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}

	return doc.toModel()
}

func (r taskStore) ListByOwner(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	cursor, err := r.collection().Find(ctx,
		bson.D{{Key: "userId", Value: userID.String()}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(docs))
	for _, doc := range docs {
		task, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	return tasks, nil
}

func (r taskStore) Update(ctx context.Context, task *model.Task) (*model.Task, error) {
	var doc taskDocument

	err := r.collection().FindOneAndUpdate(ctx,
		ownedBy(task.ID, task.UserID),
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "title", Value: task.Title},
			{Key: "description", Value: task.Description},
			{Key: "completed", Value: task.Completed},
			{Key: "updatedAt", Value: r.s.now()},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	return doc.toModel()
}

func (r taskStore) DeleteOwned(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	result, err := r.collection().DeleteOne(ctx, ownedBy(id, userID))
	if err != nil {
		return 0, fmt.Errorf("delete task: %w", err)
	}
	return result.DeletedCount, nil
}
