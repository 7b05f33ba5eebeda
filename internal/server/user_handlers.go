package server

import (
	"tastebook/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetMyProfile handles GET /api/users/me, returning the authenticated user's
// account and their recipes, newest first.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	oid, err := primitive.ObjectIDFromHex(sessionUserID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid session"))
	}

	user, err := s.userRepo.GetByID(c.Context(), oid)
	if err != nil {
		return s.respondError(c, err)
	}

	recipes, err := s.recipeService.ListByUser(c.Context(), oid.Hex(), int64(s.config.RecipeListLimit))
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":    user,
		"recipes": recipes,
	})
}
