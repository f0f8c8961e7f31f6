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

type userDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"passwordHash,omitempty"`
	AvatarURL    *string   `bson:"avatarUrl,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func (d userDocument) toModel() (*model.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("decode user id %q: %w", d.ID, err)
	}
	return &model.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		AvatarURL:    d.AvatarURL,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

var withoutPasswordHash = bson.D{{Key: "passwordHash", Value: 0}}

type userStore struct {
	s *Store
}

func (r userStore) collection() *mongo.Collection {
	return r.s.db.Collection(usersCollection)
}

func (r userStore) Create(ctx context.Context, user *model.User) (*model.User, error) {
	now := r.s.now()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.collection().InsertOne(ctx, userDocument{
		ID:           user.ID.String(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		AvatarURL:    user.AvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (r userStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}}, options.FindOne())
}

func (r userStore) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}},
		options.FindOne().SetProjection(withoutPasswordHash))
}

func (r userStore) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*model.User, error) {
	var doc userDocument

	err := r.collection().FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id.String()}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "avatarUrl", Value: avatarURL},
			{Key: "updatedAt", Value: r.s.now()},
		}}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(withoutPasswordHash),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update avatar: %w", err)
	}

	return doc.toModel()
}

func (r userStore) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptions) (*model.User, error) {
	var doc userDocument

	if err := r.collection().FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return doc.toModel()
}
