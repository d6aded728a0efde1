package middleware

import (
	"strings"

	"clipquiz/internal/logger"
	"clipquiz/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerScheme        = "Bearer"
	UserIDKey           = "userID" // Key for storing UserID in fiber.Ctx locals
	DefaultCookieName   = "access_token"
)

// Protected requires a valid access token and stores its user_id under
// UserIDKey. The token is read from the Authorization header first, then from
// cookieName.
func Protected(authService service.AuthService, cookieName string) fiber.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return func(c *fiber.Ctx) error {
		tokenString, status := extractToken(c, cookieName)
		if status != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(*status)
		}

		claims, err := authService.ValidateJWT(c.UserContext(), tokenString)
		if err != nil {
			logger.Get().Debug("JWT validation error", zap.Error(err), zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: err.Error(),
				Status:  fiber.StatusUnauthorized,
			})
		}

		c.Locals(UserIDKey, claims.UserID)
		return c.Next()
	}
}

func extractToken(c *fiber.Ctx, cookieName string) (string, *ErrorResponse) {
	if authHeader := c.Get(AuthorizationHeader); authHeader != "" {
		// fasthttp trims trailing whitespace, so "Bearer " arrives as "Bearer"
		scheme, token, _ := strings.Cut(strings.TrimSpace(authHeader), " ")
		if scheme != BearerScheme {
			return "", &ErrorResponse{
				Code:    "INVALID_AUTH_SCHEME",
				Message: "Authorization scheme is not Bearer",
				Status:  fiber.StatusUnauthorized,
			}
		}
		tokenString := strings.TrimSpace(token)
		if tokenString == "" {
			return "", &ErrorResponse{
				Code:    "EMPTY_TOKEN",
				Message: "Token is empty",
				Status:  fiber.StatusUnauthorized,
			}
		}
		return tokenString, nil
	}

	if cookie := strings.TrimSpace(c.Cookies(cookieName)); cookie != "" {
		return cookie, nil
	}

	return "", &ErrorResponse{
		Code:    "MISSING_AUTH_TOKEN",
		Message: "Authorization header or " + cookieName + " cookie is required",
		Status:  fiber.StatusUnauthorized,
	}
}

// UserIDFrom returns the authenticated user set by Protected.
func UserIDFrom(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals(UserIDKey).(string)
	return userID, ok && userID != ""
}
