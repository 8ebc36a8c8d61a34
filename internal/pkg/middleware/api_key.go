package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/internal/pkg/env"
)

// APIKeyAuth authenticates requests against the shared key held in the named
// environment variable (API_KEY for the regular surface, ADMIN_API_KEY for
// admin routes). The surface stays closed while the variable is unset.
func APIKeyAuth(envKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		configured := env.GetEnv(envKey, "")
		if configured == "" {
			log.Warnf("[Auth] %s is not configured, rejecting request", envKey)
			return unauthorized(c)
		}

		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(configured)) != 1 {
			return unauthorized(c)
		}

		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
