package service

import (
	"context"
	"testing"
	"time"

	"tastebook/internal/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeRecipeStore is an in-memory RecipeRepository backed by a map. AddRating
// reproduces the store's conditional-write semantics: the append only lands
// when no rating from the same user is present at commit time.
type fakeRecipeStore struct {
	recipes map[primitive.ObjectID]*models.Recipe
}

func newFakeRecipeStore() *fakeRecipeStore {
	return &fakeRecipeStore{recipes: map[primitive.ObjectID]*models.Recipe{}}
}

func (f *fakeRecipeStore) Create(ctx context.Context, recipe *models.Recipe) error {
	if recipe.ID.IsZero() {
		recipe.ID = primitive.NewObjectID()
	}
	clone := *recipe
	f.recipes[recipe.ID] = &clone
	return nil
}

func (f *fakeRecipeStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error) {
	recipe, ok := f.recipes[id]
	if !ok {
		return nil, models.NewNotFoundError("Recipe", id.Hex())
	}
	clone := *recipe
	clone.Ratings = append([]models.Rating{}, recipe.Ratings...)
	return &clone, nil
}

func (f *fakeRecipeStore) List(ctx context.Context, search string, limit int64) ([]models.Recipe, error) {
	out := []models.Recipe{}
	for _, r := range f.recipes {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRecipeStore) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Recipe, error) {
	out := []models.Recipe{}
	for _, r := range f.recipes {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRecipeStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	recipe, ok := f.recipes[id]
	if !ok {
		return models.NewNotFoundError("Recipe", id.Hex())
	}
	if title, ok := fields["title"].(string); ok {
		recipe.Title = title
	}
	if desc, ok := fields["description"].(string); ok {
		recipe.Description = desc
	}
	return nil
}

func (f *fakeRecipeStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.recipes[id]; !ok {
		return models.NewNotFoundError("Recipe", id.Hex())
	}
	delete(f.recipes, id)
	return nil
}

func (f *fakeRecipeStore) AddRating(ctx context.Context, id primitive.ObjectID, rating models.Rating, newAverage float64) (bool, error) {
	recipe, ok := f.recipes[id]
	if !ok {
		return false, nil
	}
	for _, existing := range recipe.Ratings {
		if existing.UserID == rating.UserID {
			return false, nil
		}
	}
	recipe.Ratings = append(recipe.Ratings, rating)
	recipe.TotalRatings++
	recipe.AverageRating = newAverage
	return true, nil
}

func seedRecipe(t *testing.T, store *fakeRecipeStore, owner string) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		UserID:      owner,
		Title:       "Bibimbap",
		Description: "Mixed rice bowl",
		Ingredients: []models.Ingredient{{Name: "Rice", Quantity: 2, Unit: "cups"}},
		Steps:       []models.Step{{Description: "Cook the rice"}},
		Ratings:     []models.Rating{},
		CreatedAt:   time.Now().UTC(),
	}
	assert.NoError(t, store.Create(context.Background(), recipe))
	return recipe
}

func TestCreateRequiresCoreFields(t *testing.T) {
	svc := NewRecipeService(newFakeRecipeStore())

	tests := []struct {
		name    string
		in      CreateRecipeInput
		wantMsg string
	}{
		{
			name:    "Missing title",
			in:      CreateRecipeInput{Description: "d", Ingredients: []models.Ingredient{{Name: "x"}}, Steps: []models.Step{{Description: "s"}}},
			wantMsg: "Title is required",
		},
		{
			name:    "Missing description",
			in:      CreateRecipeInput{Title: "t", Ingredients: []models.Ingredient{{Name: "x"}}, Steps: []models.Step{{Description: "s"}}},
			wantMsg: "Description is required",
		},
		{
			name:    "Missing ingredients",
			in:      CreateRecipeInput{Title: "t", Description: "d", Steps: []models.Step{{Description: "s"}}},
			wantMsg: "Ingredients are required",
		},
		{
			name:    "Missing steps",
			in:      CreateRecipeInput{Title: "t", Description: "d", Ingredients: []models.Ingredient{{Name: "x"}}},
			wantMsg: "Steps are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			assert.Error(t, err)
			var appErr *models.AppError
			assert.ErrorAs(t, err, &appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestCreateDerivesGalleryFromSteps(t *testing.T) {
	store := newFakeRecipeStore()
	svc := NewRecipeService(store)

	recipe, err := svc.Create(context.Background(), CreateRecipeInput{
		UserID:      "owner-1",
		Title:       "Bibimbap",
		Description: "Mixed rice bowl",
		Ingredients: []models.Ingredient{{Name: "Rice", Quantity: 2, Unit: "cups"}},
		Steps: []models.Step{
			{Description: "Cook the rice"},
			{Description: "Fry the egg", ImageURL: "https://img.example.com/egg.jpg"},
		},
	})
	assert.NoError(t, err)
	assert.NotNil(t, recipe)
	assert.False(t, recipe.ID.IsZero())
	assert.Equal(t, 0.0, recipe.AverageRating)
	assert.Equal(t, 0, recipe.TotalRatings)
	assert.NotNil(t, recipe.Ratings)
	assert.NotNil(t, recipe.Tips)

	if assert.Len(t, recipe.Images, 1) {
		assert.Equal(t, "https://img.example.com/egg.jpg", recipe.Images[0].ImageURL)
		assert.Equal(t, "Fry the egg", recipe.Images[0].Description)
	}
}

func TestSubmitRatingAggregation(t *testing.T) {
	store := newFakeRecipeStore()
	svc := NewRecipeService(store)
	recipe := seedRecipe(t, store, "owner-1")
	ctx := context.Background()

	scores := []int{5, 4, 3}
	raters := []string{"rater-1", "rater-2", "rater-3"}
	for i, score := range scores {
		_, err := svc.SubmitRating(ctx, recipe.ID, raters[i], "Name", score, "Tasty")
		assert.NoError(t, err)
	}

	stored, err := store.GetByID(ctx, recipe.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, stored.TotalRatings)
	assert.Len(t, stored.Ratings, 3)
	assert.Equal(t, 4.0, stored.AverageRating)
}

func TestSubmitRatingRoundsToTenth(t *testing.T) {
	store := newFakeRecipeStore()
	svc := NewRecipeService(store)
	recipe := seedRecipe(t, store, "owner-1")
	ctx := context.Background()

	// (5 + 4 + 4) / 3 = 4.333... rounds to 4.3
	for i, score := range []int{5, 4, 4} {
		_, err := svc.SubmitRating(ctx, recipe.ID, []string{"a", "b", "c"}[i], "Name", score, "Tasty")
		assert.NoError(t, err)
	}

	stored, _ := store.GetByID(ctx, recipe.ID)
	assert.Equal(t, 4.3, stored.AverageRating)
}

func TestSubmitRatingDuplicateLeavesAggregatesUntouched(t *testing.T) {
	store := newFakeRecipeStore()
	svc := NewRecipeService(store)
	recipe := seedRecipe(t, store, "owner-1")
	ctx := context.Background()

	_, err := svc.SubmitRating(ctx, recipe.ID, "rater-1", "Name", 5, "Tasty")
	assert.NoError(t, err)

	_, err = svc.SubmitRating(ctx, recipe.ID, "rater-1", "Name", 1, "Changed my mind")
	var appErr *models.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)

	stored, _ := store.GetByID(ctx, recipe.ID)
	assert.Equal(t, 1, stored.TotalRatings)
	assert.Len(t, stored.Ratings, 1)
	assert.Equal(t, 5.0, stored.AverageRating)
}

// A duplicate that lands between the read and the commit is caught by the
// store's conditional write rather than the in-memory pre-check.
func TestSubmitRatingConcurrentDuplicateRejectedAtCommit(t *testing.T) {
	store := newFakeRecipeStore()
	recipe := seedRecipe(t, store, "owner-1")
	ctx := context.Background()

	racing := &racingStore{fakeRecipeStore: store, recipeID: recipe.ID}
	racingSvc := NewRecipeService(racing)

	_, err := racingSvc.SubmitRating(ctx, recipe.ID, "rater-1", "Name", 5, "Tasty")
	var appErr *models.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)

	stored, _ := store.GetByID(ctx, recipe.ID)
	assert.Equal(t, 1, stored.TotalRatings)
	assert.Len(t, stored.Ratings, 1)
}

// racingStore injects a competing rating from the same user after the service
// has read the document but before it commits.
type racingStore struct {
	*fakeRecipeStore
	recipeID primitive.ObjectID
	raced    bool
}

func (r *racingStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Recipe, error) {
	recipe, err := r.fakeRecipeStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.raced && id == r.recipeID {
		r.raced = true
		stored := r.fakeRecipeStore.recipes[id]
		stored.Ratings = append(stored.Ratings, models.Rating{
			UserID: "rater-1", UserName: "Name", Rating: 5, Comment: "First in",
		})
		stored.TotalRatings++
		stored.AverageRating = 5.0
	}
	return recipe, nil
}

func TestSubmitRatingValidation(t *testing.T) {
	svc := NewRecipeService(newFakeRecipeStore())
	ctx := context.Background()
	id := primitive.NewObjectID()

	_, err := svc.SubmitRating(ctx, id, "rater-1", "Name", 0, "No score")
	assert.Error(t, err)

	_, err = svc.SubmitRating(ctx, id, "rater-1", "Name", 4, "  ")
	assert.Error(t, err)

	_, err = svc.SubmitRating(ctx, id, "rater-1", "Name", 6, "Too high")
	assert.Error(t, err)
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	store := newFakeRecipeStore()
	svc := NewRecipeService(store)
	recipe := seedRecipe(t, store, "owner-1")
	ctx := context.Background()

	newTitle := "Dolsot Bibimbap"
	updated, err := svc.Update(ctx, recipe.ID, "owner-1", UpdateRecipeInput{Title: &newTitle})
	assert.NoError(t, err)
	assert.Equal(t, "Dolsot Bibimbap", updated.Title)
	assert.Equal(t, "Mixed rice bowl", updated.Description)
}

func TestUpdateRejectsNonOwnerAndEmptyInput(t *testing.T) {
	store := newFakeRecipeStore()
	svc := NewRecipeService(store)
	recipe := seedRecipe(t, store, "owner-1")
	ctx := context.Background()

	newTitle := "Hijacked"
	_, err := svc.Update(ctx, recipe.ID, "someone-else", UpdateRecipeInput{Title: &newTitle})
	var appErr *models.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)

	_, err = svc.Update(ctx, recipe.ID, "owner-1", UpdateRecipeInput{})
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestDeleteChecksOwnership(t *testing.T) {
	store := newFakeRecipeStore()
	svc := NewRecipeService(store)
	recipe := seedRecipe(t, store, "owner-1")
	ctx := context.Background()

	err := svc.Delete(ctx, recipe.ID, "someone-else")
	var appErr *models.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)

	assert.NoError(t, svc.Delete(ctx, recipe.ID, "owner-1"))

	_, err = svc.GetByID(ctx, recipe.ID)
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
