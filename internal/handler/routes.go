package handler

import (
	"clipquiz/internal/middleware"
	"clipquiz/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the /api routes on app.
func RegisterRoutes(app *fiber.App, quizHandler *QuizHandler, healthHandler *HealthHandler, authService service.AuthService, cookieName string) {
	api := app.Group("/api")
	api.Get("/health", healthHandler.Health)

	validator := middleware.NewValidationMiddleware()
	quizzes := api.Group("/quizzes", middleware.Protected(authService, cookieName))
	quizzes.Post("/", quizHandler.CreateQuiz)
	quizzes.Get("/", quizHandler.ListQuizzes)
	quizzes.Get("/:id", validator.ValidateQuizID(), quizHandler.GetQuiz)
	quizzes.Put("/:id", validator.ValidateQuizID(), quizHandler.ReplaceQuiz)
	quizzes.Patch("/:id", validator.ValidateQuizID(), quizHandler.PatchQuiz)
	quizzes.Delete("/:id", validator.ValidateQuizID(), quizHandler.DeleteQuiz)
}
