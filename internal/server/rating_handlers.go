package server

import (
	"tastebook/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SubmitRating handles POST /api/recipes/:id/ratings
func (s *Server) SubmitRating(c *fiber.Ctx) error {
	userID := sessionUserID(c)
	id, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Rating  any    `json:"rating"`
		Comment string `json:"comment"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	rating, err := s.recipeService.SubmitRating(c.Context(), id,
		userID, sessionUserName(c), coerceScore(req.Rating), req.Comment)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Review submitted successfully",
		"rating":  rating,
	})
}
