package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"regexp"
	"testing"

	"campus-management/app/models"
	"campus-management/app/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

const (
	BranchID      = "11111111-1111-1111-1111-111111111111"
	OtherBranchID = "22222222-2222-2222-2222-222222222222"
	UserID        = "33333333-3333-3333-3333-333333333333"
)

// NewMockDB returns a sqlx handle over sqlmock and fails the test on unmet expectations.
func NewMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := sqlx.NewDb(mockDB, "postgres")
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

// Q quotes a SQL fragment for sqlmock's regexp matcher.
func Q(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

func SuperAdmin() *models.Principal {
	return &models.Principal{UserID: UserID, Name: "Root", Email: "root@campus.test", Role: models.RoleSuperAdmin}
}

func Admin() *models.Principal {
	return As(models.RoleAdmin)
}

// As returns a principal with role in BranchID.
func As(role string) *models.Principal {
	return &models.Principal{UserID: UserID, Name: "Test " + role, Email: role + "@campus.test", Role: role, BranchID: BranchID}
}

// NewApp builds an app with the production error handler whose routes run as principal.
func NewApp(principal *models.Principal, setup func(router fiber.Router)) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: utils.NewErrorHandler(false)})
	api := app.Group("/api", func(c *fiber.Ctx) error {
		if principal != nil {
			utils.SetPrincipal(c, principal)
		}
		return c.Next()
	})
	setup(api)
	return app
}

// Envelope mirrors utils.Response with raw data for decoding into test types.
type Envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Pagination *utils.Pagination `json:"pagination"`
	Errors     json.RawMessage   `json:"errors"`
}

// DataInto decodes the data field into dst.
func (e *Envelope) DataInto(t *testing.T, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, dst))
}

// FieldErrors decodes errors as a field map.
func (e *Envelope) FieldErrors(t *testing.T) map[string]string {
	t.Helper()
	out := map[string]string{}
	if len(e.Errors) > 0 {
		require.NoError(t, json.Unmarshal(e.Errors, &out))
	}
	return out
}

// Do sends a request with an optional JSON body and decodes the envelope.
func Do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, *Envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	env := &Envelope{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, env), string(raw))
	}
	return resp.StatusCode, env
}
