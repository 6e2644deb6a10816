package rayid_test

import (
	"net/http/httptest"
	"testing"

	"vault-inventory/core/logger"
	"vault-inventory/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRayID(t *testing.T) {
	app := fiber.New()
	app.Use(rayid.New())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(logger.RayIDKey).(string))
	})

	t.Run("Generated", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		assert.NoError(t, err)
		_, parseErr := uuid.Parse(resp.Header.Get(rayid.HeaderName))
		assert.NoError(t, parseErr)
	})

	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(rayid.HeaderName, "upstream-ray")
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, "upstream-ray", resp.Header.Get(rayid.HeaderName))
	})
}
