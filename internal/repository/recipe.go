package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"tastebook/internal/database"
	"tastebook/internal/models"
	"tastebook/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecipeRepository defines persistence operations for recipe documents.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error)
	List(ctx context.Context, search string, limit int64) ([]models.Recipe, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.Recipe, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddRating(ctx context.Context, id primitive.ObjectID, rating models.Rating, newAverage float64) (bool, error)
}

type recipeRepository struct {
	recipes *mongo.Collection
}

// NewRecipeRepository returns a new RecipeRepository implementation.
func NewRecipeRepository(store *database.Store) RecipeRepository {
	return &recipeRepository{recipes: store.Recipes()}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	defer observability.TrackQuery("insert", "recipes")()

	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = time.Now().UTC()
	}

	res, err := r.recipes.InsertOne(ctx, recipe)
	if err != nil {
		return models.NewInternalError(err)
	}

	recipe.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *recipeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error) {
	defer observability.TrackQuery("findOne", "recipes")()

	var recipe models.Recipe
	err := r.recipes.FindOne(ctx, bson.M{"_id": id}).Decode(&recipe)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("Recipe", id.Hex())
		}
		return nil, models.NewInternalError(err)
	}
	return &recipe, nil
}

// List returns recipes newest-first, optionally filtered by a case-insensitive
// title substring match, capped at limit.
func (r *recipeRepository) List(ctx context.Context, search string, limit int64) ([]models.Recipe, error) {
	filter := bson.M{}
	if search != "" {
		filter["title"] = bson.M{"$regex": primitive.Regex{
			Pattern: regexp.QuoteMeta(search),
			Options: "i",
		}}
	}

	return r.find(ctx, filter, limit)
}

func (r *recipeRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Recipe, error) {
	return r.find(ctx, bson.M{"userId": userID}, limit)
}

func (r *recipeRepository) find(ctx context.Context, filter bson.M, limit int64) ([]models.Recipe, error) {
	defer observability.TrackQuery("find", "recipes")()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.recipes.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer cursor.Close(ctx)

	recipes := []models.Recipe{}
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, models.NewInternalError(err)
	}
	return recipes, nil
}

// Update merges the given fields over the existing document. Callers are
// responsible for allow-listing the fields; _id is never part of the set.
func (r *recipeRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	defer observability.TrackQuery("update", "recipes")()

	delete(fields, "_id")

	res, err := r.recipes.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Recipe", id.Hex())
	}
	return nil
}

func (r *recipeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer observability.TrackQuery("delete", "recipes")()

	res, err := r.recipes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("Recipe", id.Hex())
	}
	return nil
}

// AddRating appends the rating, bumps totalRatings and writes the new average
// in a single conditional update. The filter excludes documents that already
// carry a rating from the same user, so a concurrent duplicate submission
// matches zero documents instead of appending twice. Returns false when the
// rating was rejected as a duplicate.
func (r *recipeRepository) AddRating(ctx context.Context, id primitive.ObjectID, rating models.Rating, newAverage float64) (bool, error) {
	defer observability.TrackQuery("update", "recipes")()

	filter := bson.M{
		"_id":            id,
		"ratings.userId": bson.M{"$ne": rating.UserID},
	}
	update := bson.M{
		"$push": bson.M{"ratings": rating},
		"$inc":  bson.M{"totalRatings": 1},
		"$set":  bson.M{"averageRating": newAverage},
	}

	res, err := r.recipes.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return res.ModifiedCount > 0, nil
}
