package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/DiegoMartinsDev/MemberHub/internal/pkg/env"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// InternalTokenMiddleware guards the operator API with a shared token from
// X-Internal-Token (or a Bearer header). With no token configured the whole
// internal API is disabled rather than left open.
func InternalTokenMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := strings.TrimSpace(env.GetEnv("INTERNAL_API_TOKEN", ""))
		if expected == "" {
			fiberlog.Warn("internal API called but INTERNAL_API_TOKEN is not configured")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "internal_api_disabled"})
		}

		got := extractInternalToken(c)
		if got == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing internal token"})
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid internal token"})
		}
		return c.Next()
	}
}

func extractInternalToken(c *fiber.Ctx) string {
	if v := strings.TrimSpace(c.Get("X-Internal-Token")); v != "" {
		return v
	}
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}
