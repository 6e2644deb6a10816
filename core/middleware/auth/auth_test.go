package auth_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"vault-inventory/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func newApp(cfg auth.Config) *fiber.App {
	app := fiber.New()
	app.Use(auth.New(cfg))
	app.Get("/*", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	return app
}

func TestAuth(t *testing.T) {
	skipSwagger := func(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/swagger") }

	tests := []struct {
		name   string
		cfg    auth.Config
		path   string
		key    string
		status int
	}{
		{"Disabled", auth.Config{}, "/inventory", "", fiber.StatusOK},
		{"ValidKey", auth.Config{ApiKey: "secret"}, "/inventory", "secret", fiber.StatusOK},
		{"MissingKey", auth.Config{ApiKey: "secret"}, "/inventory", "", fiber.StatusUnauthorized},
		{"WrongKey", auth.Config{ApiKey: "secret"}, "/inventory", "guess", fiber.StatusUnauthorized},
		{"Skipped", auth.Config{ApiKey: "secret", Skip: skipSwagger}, "/swagger/index.html", "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.key != "" {
				req.Header.Set(auth.HeaderName, tt.key)
			}
			resp, err := newApp(tt.cfg).Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
