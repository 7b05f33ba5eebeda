package server

import (
	"errors"
	"log/slog"
	"strconv"

	"tastebook/internal/middleware"
	"tastebook/internal/models"
	"tastebook/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseObjectID extracts a route parameter as a MongoDB ObjectID. A malformed
// identifier cannot reference any stored document, so it is reported as
// not-found rather than surfacing a decode fault.
// On failure it writes the response and returns errResponseWritten;
// callers should check: if err != nil { return nil }
func (s *Server) parseObjectID(c *fiber.Ctx, param string) (primitive.ObjectID, error) {
	raw := c.Params(param)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Recipe", raw))
		return primitive.NilObjectID, errResponseWritten
	}
	return id, nil
}

// statusForError maps the application error taxonomy onto HTTP status codes.
// Conflicts (duplicate email, duplicate rating) surface as 400 to match the
// public API contract.
func statusForError(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "VALIDATION_ERROR", "CONFLICT":
			return fiber.StatusBadRequest
		case "UNAUTHORIZED":
			return fiber.StatusUnauthorized
		case "FORBIDDEN":
			return fiber.StatusForbidden
		case "NOT_FOUND":
			return fiber.StatusNotFound
		}
	}
	return fiber.StatusInternalServerError
}

// respondError converts any error at the handler boundary into the standard
// JSON error shape. Infrastructure detail is logged, never returned.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		observability.RecordErrorInContext(c.UserContext(), err)
		middleware.Logger.ErrorContext(c.UserContext(), "handler error",
			slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, status, err)
}

// sessionUserID returns the authenticated user's ID set by AuthRequired.
func sessionUserID(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(string); ok {
		return uid
	}
	return ""
}

// sessionUserName returns the authenticated user's display name, if any.
func sessionUserName(c *fiber.Ctx) string {
	if name, ok := c.Locals("userName").(string); ok {
		return name
	}
	return ""
}

// coerceScore converts a decoded JSON rating value to an integer score.
// Clients send the value as a number or a numeric string.
func coerceScore(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return int(f)
	}
	return 0
}
