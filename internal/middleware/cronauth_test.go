package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
)

func TestRequireBearer(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		enforce bool
		header  string
		want    int
	}{
		{"not enforced", "s3cret", false, "", fiber.StatusOK},
		{"no secret configured", "", true, "", fiber.StatusOK},
		{"missing header", "s3cret", true, "", fiber.StatusUnauthorized},
		{"wrong secret", "s3cret", true, "Bearer nope", fiber.StatusUnauthorized},
		{"wrong scheme", "s3cret", true, "Basic s3cret", fiber.StatusUnauthorized},
		{"correct", "s3cret", true, "Bearer s3cret", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/cron", RequireBearer(tt.secret, tt.enforce), func(c fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest(fiber.MethodPost, "/cron", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
