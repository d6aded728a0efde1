package middleware

import (
	"clipquiz/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ValidatedQuizIDKey is the fiber.Ctx locals key set by ValidateQuizID.
const ValidatedQuizIDKey = "validated_quiz_id"

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateQuizID validates the :id path parameter
func (vm *ValidationMiddleware) ValidateQuizID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if errors := vm.validator.ValidateQuizID(id); len(errors) > 0 {
			return errors // handled by ErrorHandler
		}
		c.Locals(ValidatedQuizIDKey, id)
		return c.Next()
	}
}
