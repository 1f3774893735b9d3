package router_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/respondent-registry-api/internal/config"
	"github.com/noah-isme/respondent-registry-api/internal/router"
)

func TestRegisterHealthAndMetrics(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "Respondent Registry API", AppEnv: "test"}, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Respondent Registry API", resp.Header.Get("X-Application"))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
