package web

import (
	"time"

	"github.com/dukex/dno/pkg/metrics"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

// MetricsMiddleware counts requests per route pattern.
func MetricsMiddleware(collector *metrics.Collector) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		collector.HTTPRequest(c.Method(), c.Route().Path, c.Response().StatusCode(), time.Since(start))

		return err
	}
}

// MetricsHandler serves the collector in the Prometheus text format.
func MetricsHandler(collector *metrics.Collector) fiber.Handler {
	return adaptor.HTTPHandler(collector.Handler())
}
