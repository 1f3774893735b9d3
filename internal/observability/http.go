package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMetricsPath is where the scrape endpoint is mounted.
const DefaultMetricsPath = "/metrics"

// MountMetrics exposes the Prometheus scrape endpoint on router.
func MountMetrics(router fiber.Router, path string) {
	if path == "" {
		path = DefaultMetricsPath
	}
	RegisterMetrics()
	router.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
}
