package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// RequireBearer rejects requests whose Authorization header does not carry
// "Bearer <secret>". With enforce false or an empty secret every request
// passes, which is how cron triggers run in development.
func RequireBearer(secret string, enforce bool) fiber.Handler {
	want := []byte("Bearer " + secret)
	return func(c fiber.Ctx) error {
		if !enforce || secret == "" {
			return c.Next()
		}
		got := []byte(strings.TrimSpace(c.Get(fiber.HeaderAuthorization)))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		}
		return c.Next()
	}
}
