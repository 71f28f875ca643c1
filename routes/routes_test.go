package routes

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestMerchantRoutesRequireAuth(t *testing.T) {
	app := fiber.New()
	SetupRoutes(app)

	paths := []string{
		"/api/v1/merchant/products/42/stockouts",
		"/api/v1/merchant/stockout-reports",
		"/api/v1/merchant/stockout-reports/1",
	}
	for _, path := range paths {
		req := httptest.NewRequest("GET", path, nil)
		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode, "path %s must be guarded", path)
	}
}

func TestMalformedBearerTokenRejected(t *testing.T) {
	app := fiber.New()
	SetupRoutes(app)

	req := httptest.NewRequest("GET", "/api/v1/merchant/stockout-reports", nil)
	req.Header.Set("Authorization", "Token abc123")
	resp, _ := app.Test(req)

	assert.Equal(t, 401, resp.StatusCode)
}
