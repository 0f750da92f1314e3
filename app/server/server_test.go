package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"campus-management/app/config"
	"campus-management/app/models"
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"
	"campus-management/app/services/cache"
	"campus-management/app/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const branchID = "11111111-1111-1111-1111-111111111111"

func newServer(t *testing.T) (*fiber.App, sqlmock.Sqlmock, *auth.TokenManager) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "postgres")
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Env:                    "test",
		CORSOrigins:            []string{"*"},
		ReportCacheTTL:         time.Minute,
		AcademicYearStartMonth: 4,
	}
	tokens := auth.NewTokenManager(config.JWTConfig{Secret: "test-secret", Expiry: time.Hour})
	app := New(Deps{
		Config:  cfg,
		DB:      db,
		Tokens:  tokens,
		Audit:   activity.Discard{},
		Cache:   cache.Noop{},
		Limiter: utils.NewRateLimiter(100, 100),
	})
	return app, mock, tokens
}

func get(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	app, mock, _ := newServer(t)
	mock.ExpectPing()

	assert.Equal(t, fiber.StatusOK, get(t, app, "/health", ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthReportsDatabaseDown(t *testing.T) {
	app, mock, _ := newServer(t)
	mock.ExpectPing().WillReturnError(assert.AnError)

	assert.Equal(t, fiber.StatusServiceUnavailable, get(t, app, "/health", ""))
}

func TestAPIRequiresToken(t *testing.T) {
	app, _, _ := newServer(t)

	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/api/students", ""))
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "/api/reports/dashboard", "not-a-token"))
}

func TestAuthenticatedRequestReachesModule(t *testing.T) {
	app, mock, tokens := newServer(t)
	branch := branchID
	token, _, err := tokens.GenerateJWT(&models.User{
		ID: "33333333-3333-3333-3333-333333333333", BranchID: &branch, Name: "Lib", Role: models.RoleLibrarian,
	})
	require.NoError(t, err)

	// Librarians may not read finance.
	assert.Equal(t, fiber.StatusForbidden, get(t, app, "/api/expenses", token))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM textbooks t WHERE t.branch_id = \$1`).
		WithArgs(branchID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM textbooks t`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	assert.Equal(t, fiber.StatusOK, get(t, app, "/api/textbooks", token))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsEndpoint(t *testing.T) {
	app, _, _ := newServer(t)
	assert.Equal(t, fiber.StatusOK, get(t, app, "/metrics", ""))
}
