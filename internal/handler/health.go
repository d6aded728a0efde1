package handler

import (
	"clipquiz/internal/service"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	service service.HealthService
}

func NewHealthHandler(service service.HealthService) *HealthHandler {
	return &HealthHandler{service: service}
}

// Health godoc
// @Summary Service health
// @Description Reports speech-to-text model availability and cache reachability
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	resp := h.service.Check(c.UserContext())
	status := fiber.StatusOK
	if resp.Status != service.StatusOK {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}
