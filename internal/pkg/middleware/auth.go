package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trocalar/TrocaLar/internal/pkg/usercontext"
)

func sessionLoggedIn(c *fiber.Ctx) bool {
	if b, ok := c.Locals(usercontext.KeyFromProtected).(bool); ok {
		return b
	}
	return false
}

// RequireAuth rejects anonymous requests with a JSON 401.
func RequireAuth(c *fiber.Ctx) error {
	if !sessionLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   true,
			"message": "Faça login para continuar",
		})
	}
	return c.Next()
}

// RequireAdmin rejects non-admin requests. Anonymous callers get 401,
// logged-in non-admins get 403.
func RequireAdmin(c *fiber.Ctx) error {
	if !sessionLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   true,
			"message": "Faça login para continuar",
		})
	}
	if isAdmin, ok := c.Locals(usercontext.KeyIsAdmin).(bool); !ok || !isAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   true,
			"message": "Acesso restrito a administradores",
		})
	}
	return c.Next()
}
