package server

import (
	"tastebook/internal/models"
	"tastebook/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateRecipe handles POST /api/recipes
func (s *Server) CreateRecipe(c *fiber.Ctx) error {
	userID := sessionUserID(c)

	var req struct {
		Title       string              `json:"title"`
		TitleImage  string              `json:"titleImage"`
		Description string              `json:"description"`
		Ingredients []models.Ingredient `json:"ingredients"`
		Steps       []models.Step       `json:"steps"`
		Tips        []string            `json:"tips"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// The owner always comes from the session, never the request body.
	recipe, err := s.recipeService.Create(c.Context(), service.CreateRecipeInput{
		UserID:      userID,
		Title:       req.Title,
		TitleImage:  req.TitleImage,
		Description: req.Description,
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
		Tips:        req.Tips,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Recipe created successfully",
		"recipeId": recipe.ID.Hex(),
	})
}

// GetRecipes handles GET /api/recipes?search=...
func (s *Server) GetRecipes(c *fiber.Ctx) error {
	search := c.Query("search")

	recipes, err := s.recipeService.List(c.Context(), search, int64(s.config.RecipeListLimit))
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(recipes)
}

// GetRecipe handles GET /api/recipes/:id
func (s *Server) GetRecipe(c *fiber.Ctx) error {
	id, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	recipe, err := s.recipeService.GetByID(c.Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(recipe)
}

// UpdateRecipe handles PUT /api/recipes/:id
func (s *Server) UpdateRecipe(c *fiber.Ctx) error {
	userID := sessionUserID(c)
	id, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	var req service.UpdateRecipeInput
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	recipe, err := s.recipeService.Update(c.Context(), id, userID, req)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Recipe updated successfully",
		"recipe":  recipe,
	})
}

// DeleteRecipe handles DELETE /api/recipes/:id
func (s *Server) DeleteRecipe(c *fiber.Ctx) error {
	userID := sessionUserID(c)
	id, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.recipeService.Delete(c.Context(), id, userID); err != nil {
		return s.respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
