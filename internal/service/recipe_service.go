// Package service contains the application's domain logic.
package service

import (
	"context"
	"math"
	"strings"
	"time"

	"tastebook/internal/models"
	"tastebook/internal/observability"
	"tastebook/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// anonymousName is the reviewer display name used when the session carries none.
const anonymousName = "익명"

type RecipeService struct {
	recipeRepo repository.RecipeRepository
}

func NewRecipeService(recipeRepo repository.RecipeRepository) *RecipeService {
	return &RecipeService{recipeRepo: recipeRepo}
}

// CreateRecipeInput carries the caller-supplied recipe fields. The owner is
// always the session user, never a request-body field.
type CreateRecipeInput struct {
	UserID      string
	Title       string
	Description string
	TitleImage  string
	Ingredients []models.Ingredient
	Steps       []models.Step
	Tips        []string
}

func (s *RecipeService) Create(ctx context.Context, in CreateRecipeInput) (*models.Recipe, error) {
	switch {
	case in.Title == "":
		return nil, models.NewValidationError("Title is required")
	case in.Description == "":
		return nil, models.NewValidationError("Description is required")
	case len(in.Ingredients) == 0:
		return nil, models.NewValidationError("Ingredients are required")
	case len(in.Steps) == 0:
		return nil, models.NewValidationError("Steps are required")
	}

	tips := in.Tips
	if tips == nil {
		tips = []string{}
	}

	recipe := &models.Recipe{
		UserID:        in.UserID,
		Title:         in.Title,
		TitleImage:    in.TitleImage,
		Description:   in.Description,
		Ingredients:   in.Ingredients,
		Steps:         in.Steps,
		Tips:          tips,
		Images:        models.StepImages(in.Steps),
		Ratings:       []models.Rating{},
		AverageRating: 0,
		TotalRatings:  0,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.recipeRepo.Create(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *RecipeService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error) {
	return s.recipeRepo.GetByID(ctx, id)
}

func (s *RecipeService) List(ctx context.Context, search string, limit int64) ([]models.Recipe, error) {
	return s.recipeRepo.List(ctx, search, limit)
}

func (s *RecipeService) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Recipe, error) {
	return s.recipeRepo.ListByUser(ctx, userID, limit)
}

// UpdateRecipeInput is the allow-list of mutable recipe fields. Nil pointers
// mean "leave untouched"; the identifier, owner, rating aggregates and
// creation time are not mutable through update.
type UpdateRecipeInput struct {
	Title       *string               `json:"title"`
	TitleImage  *string               `json:"titleImage"`
	Description *string               `json:"description"`
	Ingredients *[]models.Ingredient  `json:"ingredients"`
	Steps       *[]models.Step        `json:"steps"`
	Tips        *[]string             `json:"tips"`
	Images      *[]models.RecipeImage `json:"images"`
}

// Update applies the provided fields as a merge over the existing document.
// Existence is confirmed before ownership so non-owners get 403, not 404.
func (s *RecipeService) Update(ctx context.Context, id primitive.ObjectID, userID string, in UpdateRecipeInput) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.UserID != userID {
		return nil, models.NewForbiddenError("You can only update your own recipes")
	}

	fields := bson.M{}
	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.TitleImage != nil {
		fields["titleImage"] = *in.TitleImage
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Ingredients != nil {
		fields["ingredients"] = *in.Ingredients
	}
	if in.Steps != nil {
		fields["steps"] = *in.Steps
	}
	if in.Tips != nil {
		fields["tips"] = *in.Tips
	}
	if in.Images != nil {
		fields["images"] = *in.Images
	}

	if len(fields) == 0 {
		return nil, models.NewValidationError("No updatable fields provided")
	}

	if err := s.recipeRepo.Update(ctx, id, fields); err != nil {
		return nil, err
	}

	return s.recipeRepo.GetByID(ctx, id)
}

func (s *RecipeService) Delete(ctx context.Context, id primitive.ObjectID, userID string) error {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if recipe.UserID != userID {
		return models.NewForbiddenError("You can only delete your own recipes")
	}

	return s.recipeRepo.Delete(ctx, id)
}

// SubmitRating appends one rating per (recipe, user) and keeps the derived
// aggregates consistent. The new average is computed from the fetched rating
// sequence plus the incoming value and committed together with the append in a
// single conditional write, so two near-simultaneous submissions from the same
// user cannot both land: the second one matches no document and is rejected.
func (s *RecipeService) SubmitRating(ctx context.Context, id primitive.ObjectID, userID, userName string, score int, comment string) (*models.Rating, error) {
	comment = strings.TrimSpace(comment)
	if score == 0 || comment == "" {
		return nil, models.NewValidationError("Rating and comment are required")
	}
	if score < 1 || score > 5 {
		return nil, models.NewValidationError("Rating must be between 1 and 5")
	}

	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, existing := range recipe.Ratings {
		if existing.UserID == userID {
			observability.RatingSubmissions.WithLabelValues("duplicate").Inc()
			return nil, models.NewConflictError("You have already reviewed this recipe")
		}
	}

	if userName == "" {
		userName = anonymousName
	}

	rating := models.Rating{
		UserID:    userID,
		UserName:  userName,
		Rating:    score,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}

	sum := score
	for _, existing := range recipe.Ratings {
		sum += existing.Rating
	}
	average := roundToTenth(float64(sum) / float64(len(recipe.Ratings)+1))

	added, err := s.recipeRepo.AddRating(ctx, id, rating, average)
	if err != nil {
		return nil, err
	}
	if !added {
		// The conditional write found a rating from this user that appeared
		// after our read.
		observability.RatingSubmissions.WithLabelValues("duplicate").Inc()
		return nil, models.NewConflictError("You have already reviewed this recipe")
	}

	observability.RatingSubmissions.WithLabelValues("accepted").Inc()
	return &rating, nil
}

func roundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
