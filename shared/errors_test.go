package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"app error", NewNotFoundError(errors.New("missing"), "Habit not found"), fiber.StatusNotFound, "Habit not found"},
		{"wrapped app error", fmt.Errorf("handler: %w", NewConflictError(nil, "Taken")), fiber.StatusConflict, "Taken"},
		{"invalid state", &engine.InvalidStateError{Op: "accept", Reason: "battle is not pending"}, fiber.StatusConflict, "battle is not pending"},
		{"forbidden", &engine.InvalidStateError{Op: "accept", Reason: "only the opponent may accept", Forbidden: true}, fiber.StatusForbidden, "only the opponent may accept"},
		{"not found", fmt.Errorf("read battle: %w", engine.ErrNotFound), fiber.StatusNotFound, "Not Found"},
		{"conflict", engine.ErrConflict, fiber.StatusConflict, "Resource was modified concurrently"},
		{"fiber error", fiber.NewError(fiber.StatusMethodNotAllowed, "Method Not Allowed"), fiber.StatusMethodNotAllowed, "Method Not Allowed"},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			appErr := FromError(tc.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tc.status, appErr.StatusCode)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}
}

func TestFromError_Nil(t *testing.T) {
	assert.Nil(t, FromError(nil))
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewInternalError(engine.ErrConflict, "Failed to save")
	assert.ErrorIs(t, err, engine.ErrConflict)
	assert.Equal(t, "Failed to save: "+engine.ErrConflict.Error(), err.Error())

	bare := NewBadRequestError(nil, "Invalid request")
	assert.Equal(t, "Invalid request", bare.Error())
}
