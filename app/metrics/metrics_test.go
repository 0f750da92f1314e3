package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"/api/students", "/api/students"},
		{"/api/students/3f1c2d9e-8a7b-4c6d-9e0f-1a2b3c4d5e6f/fee-summary", "/api/students/:id/fee-summary"},
		{"/api/payroll/42", "/api/payroll/:id"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canonicalPath(tt.in), tt.in)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	RecordJob("payroll", true)
	RecordCacheLookup("dashboard", false)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `campus_http_requests_total{method="GET",path="/ping",status="200"}`)
	assert.Contains(t, string(body), `campus_scheduler_job_runs_total{job="payroll",success="true"}`)
	assert.Contains(t, string(body), `campus_reports_cache_lookups_total{report="dashboard",result="miss"}`)
}
