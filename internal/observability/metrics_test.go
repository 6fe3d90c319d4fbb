package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesQuizCollectors(t *testing.T) {
	Evaluations().WithLabelValues("choice", "true").Inc()
	Escalations().WithLabelValues("skipped").Inc()
	CircuitState().WithLabelValues("semantic").Set(1)

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	require.Contains(t, string(body), `gema_quiz_evaluations_total{correct="true",strategy="choice"}`)
	require.Contains(t, string(body), `gema_quiz_escalations_total{outcome="skipped"}`)
	require.Contains(t, string(body), `gema_quiz_circuit_state{breaker="semantic"} 1`)
}

func TestMetricsHandlerNegotiatesOpenMetrics(t *testing.T) {
	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept", "application/openmetrics-text; version=1.0.0")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "application/openmetrics-text")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Contains(t, string(body), "# EOF")
	require.Contains(t, string(body), "promhttp_metric_handler_requests_total")
}
