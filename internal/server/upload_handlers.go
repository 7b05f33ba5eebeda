package server

import (
	"io"

	"tastebook/internal/models"
	"tastebook/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /api/upload. The payload is a base64 data URI
// tagged with the originating form field (title image or a specific step) so
// the client can correlate the hosted URL back to it.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	var req struct {
		Data      string `json:"data"`
		ImageType string `json:"imageType"`
		StepIndex *int   `json:"stepIndex"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.uploadService.UploadTagged(c.Context(), service.TaggedUploadInput{
		Data:      req.Data,
		ImageType: req.ImageType,
		StepIndex: req.StepIndex,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(result)
}

// UploadFile handles POST /api/edit, depositing a multipart file into local
// public storage under a randomized filename.
func (s *Server) UploadFile(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file received"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	url, err := s.uploadService.SaveLocal(file.Filename, content)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"url": url,
	})
}
