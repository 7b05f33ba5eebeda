// Package repository implements the data access layer against MongoDB.
package repository

import (
	"context"
	"errors"
	"time"

	"tastebook/internal/database"
	"tastebook/internal/models"
	"tastebook/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type userRepository struct {
	users *mongo.Collection
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(store *database.Store) UserRepository {
	return &userRepository{users: store.Users()}
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer observability.TrackQuery("findOne", "users")()

	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("User", id.Hex())
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByEmail returns (nil, nil) when no user has the given email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer observability.TrackQuery("findOne", "users")()

	var user models.User
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("insert", "users")()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	res, err := r.users.InsertOne(ctx, user)
	if err != nil {
		// The unique email index turns a concurrent duplicate signup into a
		// storage-level conflict rather than a lost race.
		if mongo.IsDuplicateKeyError(err) {
			return models.NewConflictError("Email is already registered")
		}
		return models.NewInternalError(err)
	}

	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}
