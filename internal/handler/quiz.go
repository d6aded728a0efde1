package handler

import (
	"clipquiz/internal/domain"
	"clipquiz/internal/dto"
	"clipquiz/internal/logger"
	"clipquiz/internal/middleware"
	"clipquiz/internal/service"
	"clipquiz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	service   service.QuizService
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizService) *QuizHandler {
	return &QuizHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

// CreateQuiz godoc
// @Summary Generate a quiz from a video
// @Description Downloads the video's audio, transcribes it and asks the LLM for a multiple-choice quiz. The quiz is saved for the caller.
// @Tags quizzes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.CreateQuizRequest true "Video URL"
// @Success 201 {object} dto.QuizResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Failure 504 {object} middleware.ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req dto.CreateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ValidationErrors{domain.NewInvalidFormatError("body", nil)}
	}
	if errs := h.validator.ValidateCreateQuizRequest(&req); len(errs) > 0 {
		return errs
	}

	quiz, err := h.service.CreateQuiz(c.UserContext(), userID, req.URL)
	if err != nil {
		logger.Get().Warn("Failed to create quiz",
			zap.String("user_id", userID),
			zap.String("url", req.URL),
			zap.String("code", string(domain.CodeOf(err))),
		)
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(quiz)
}

// ListQuizzes godoc
// @Summary List my quizzes
// @Description Returns the caller's quizzes, newest first
// @Tags quizzes
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} dto.QuizResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	quizzes, err := h.service.ListQuizzes(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(quizzes)
}

// GetQuiz godoc
// @Summary Get a quiz
// @Tags quizzes
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Quiz ID (ULID)"
// @Success 200 {object} dto.QuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	quiz, err := h.service.GetQuiz(c.UserContext(), userID, quizID(c))
	if err != nil {
		return err
	}
	return c.JSON(quiz)
}

// ReplaceQuiz godoc
// @Summary Update a quiz
// @Description Replaces title and description. Questions cannot be edited.
// @Tags quizzes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Quiz ID (ULID)"
// @Param request body dto.UpdateQuizRequest true "Quiz fields"
// @Success 200 {object} dto.QuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id} [put]
func (h *QuizHandler) ReplaceQuiz(c *fiber.Ctx) error {
	return h.update(c, true)
}

// PatchQuiz godoc
// @Summary Partially update a quiz
// @Description Updates the given fields only
// @Tags quizzes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Quiz ID (ULID)"
// @Param request body dto.UpdateQuizRequest true "Quiz fields"
// @Success 200 {object} dto.QuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id} [patch]
func (h *QuizHandler) PatchQuiz(c *fiber.Ctx) error {
	return h.update(c, false)
}

func (h *QuizHandler) update(c *fiber.Ctx, replace bool) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req dto.UpdateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ValidationErrors{domain.NewInvalidFormatError("body", nil)}
	}
	if errs := h.validator.ValidateUpdateQuizRequest(&req, replace); len(errs) > 0 {
		return errs
	}
	if replace && req.Description == nil {
		empty := ""
		req.Description = &empty
	}

	quiz, err := h.service.UpdateQuiz(c.UserContext(), userID, quizID(c), &req)
	if err != nil {
		return err
	}
	return c.JSON(quiz)
}

// DeleteQuiz godoc
// @Summary Delete a quiz
// @Tags quizzes
// @Security ApiKeyAuth
// @Param id path string true "Quiz ID (ULID)"
// @Success 204
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteQuiz(c.UserContext(), userID, quizID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func requireUser(c *fiber.Ctx) (string, error) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		return "", domain.NewUnauthorizedError("authentication required")
	}
	return userID, nil
}

func quizID(c *fiber.Ctx) string {
	if id, ok := c.Locals(middleware.ValidatedQuizIDKey).(string); ok {
		return id
	}
	return c.Params("id")
}
