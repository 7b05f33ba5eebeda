package server

import (
	"errors"
	"testing"

	"tastebook/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Validation maps to 400", models.NewValidationError("bad input"), fiber.StatusBadRequest},
		{"Conflict maps to 400", models.NewConflictError("duplicate"), fiber.StatusBadRequest},
		{"Unauthorized maps to 401", models.NewUnauthorizedError("no session"), fiber.StatusUnauthorized},
		{"Forbidden maps to 403", models.NewForbiddenError("not yours"), fiber.StatusForbidden},
		{"Not found maps to 404", models.NewNotFoundError("Recipe", "x"), fiber.StatusNotFound},
		{"Internal maps to 500", models.NewInternalError(errors.New("db down")), fiber.StatusInternalServerError},
		{"Plain error maps to 500", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestCoerceScore(t *testing.T) {
	assert.Equal(t, 4, coerceScore(float64(4)))
	assert.Equal(t, 4, coerceScore("4"))
	assert.Equal(t, 4, coerceScore("4.0"))
	assert.Equal(t, 0, coerceScore("four"))
	assert.Equal(t, 0, coerceScore(nil))
	assert.Equal(t, 0, coerceScore(true))
}
