package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMountMetricsServesRespondentCollectors(t *testing.T) {
	RespondentExports().WithLabelValues("csv").Inc()

	app := fiber.New()
	MountMetrics(app, "")

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, DefaultMetricsPath, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "respondent_exports_total")
}

func TestChangeSubscribersGauge(t *testing.T) {
	before := testutil.ToFloat64(ChangeSubscribers())
	ChangeSubscribers().Inc()
	require.Equal(t, before+1, testutil.ToFloat64(ChangeSubscribers()))
	ChangeSubscribers().Dec()
	require.Equal(t, before, testutil.ToFloat64(ChangeSubscribers()))
}
