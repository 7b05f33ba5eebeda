package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ingredient is one entry of a recipe's ordered ingredient list.
type Ingredient struct {
	Name     string  `bson:"name" json:"name"`
	Quantity float64 `bson:"quantity" json:"quantity"`
	Unit     string  `bson:"unit" json:"unit"`
}

// Step is one entry of a recipe's ordered instruction sequence.
type Step struct {
	Description string `bson:"description" json:"description"`
	ImageURL    string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
}

// RecipeImage is the projection of a step that carries an image, kept as a
// separate field so gallery views don't have to walk the step list.
type RecipeImage struct {
	ImageURL    string `bson:"imageUrl" json:"imageUrl"`
	Description string `bson:"description" json:"description"`
}

// Rating is a single user's score and comment, embedded in the recipe document.
// UserID is the rater's user ID in hex form; at most one rating per
// (recipe, user) pair is allowed.
type Rating struct {
	UserID    string    `bson:"userId" json:"userId"`
	UserName  string    `bson:"userName" json:"userName"`
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment" json:"comment"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Recipe is the aggregate document stored in the "recipes" collection.
// AverageRating and TotalRatings are derived from the embedded ratings:
// averageRating == round(mean(ratings), 1) and totalRatings == len(ratings).
type Recipe struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID        string             `bson:"userId" json:"userId"`
	Title         string             `bson:"title" json:"title"`
	TitleImage    string             `bson:"titleImage,omitempty" json:"titleImage,omitempty"`
	Description   string             `bson:"description" json:"description"`
	Ingredients   []Ingredient       `bson:"ingredients" json:"ingredients"`
	Steps         []Step             `bson:"steps" json:"steps"`
	Tips          []string           `bson:"tips" json:"tips"`
	Images        []RecipeImage      `bson:"images" json:"images"`
	Ratings       []Rating           `bson:"ratings" json:"ratings"`
	AverageRating float64            `bson:"averageRating" json:"averageRating"`
	TotalRatings  int                `bson:"totalRatings" json:"totalRatings"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// StepImages filters the steps that carry an image into the gallery projection.
func StepImages(steps []Step) []RecipeImage {
	images := []RecipeImage{}
	for _, step := range steps {
		if step.ImageURL != "" {
			images = append(images, RecipeImage{
				ImageURL:    step.ImageURL,
				Description: step.Description,
			})
		}
	}
	return images
}
