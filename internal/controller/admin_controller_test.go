package controller

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"deep-research-be/internal/model"
	"deep-research-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubArchiveRepo serves archived reports from a fixed map.
type stubArchiveRepo struct {
	bySession map[string]*model.ReportArchive
}

func (s *stubArchiveRepo) Create(context.Context, *model.ReportArchive) error {
	return nil
}

func (s *stubArchiveRepo) FindBySessionId(_ context.Context, sessionId string) (*model.ReportArchive, error) {
	return s.bySession[sessionId], nil
}

func (s *stubArchiveRepo) FindRecent(context.Context, int) ([]*model.ReportArchive, error) {
	out := make([]*model.ReportArchive, 0, len(s.bySession))
	for _, archive := range s.bySession {
		out = append(out, archive)
	}
	return out, nil
}

func newAdminApp(t *testing.T, repo *stubArchiveRepo) *fiber.App {
	t.Helper()
	app := fiber.New()
	api := app.Group("/api")
	NewAdminController(logger.NewIsolatedLogger(t.TempDir()+"/admin.log"), repo).RegisterRoutes(api)
	return app
}

func adminToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "admin-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestGetReportBySession(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")
	repo := &stubArchiveRepo{bySession: map[string]*model.ReportArchive{
		"sess-1": {SessionId: "sess-1", Query: "rate cuts", ShortSummary: "short"},
	}}
	app := newAdminApp(t, repo)
	token := adminToken(t, "test_secret")

	req := httptest.NewRequest("GET", "/api/admin/v1/reports/sess-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/admin/v1/reports/missing", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutesRejectMissingToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")
	app := newAdminApp(t, &stubArchiveRepo{})

	req := httptest.NewRequest("GET", "/api/admin/v1/reports/sess-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
