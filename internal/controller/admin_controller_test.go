package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/pkg/serverutils"
	"rag-knowledge-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsistencyService struct {
	result *service.ConsistencyResult
	report string
	fix    *service.AutoFixResult
}

func (f *fakeConsistencyService) CheckConsistency(ctx context.Context) *service.ConsistencyResult {
	return f.result
}

func (f *fakeConsistencyService) DetailedReport(ctx context.Context) string { return f.report }

func (f *fakeConsistencyService) AutoFix(ctx context.Context, dryRun bool) *service.AutoFixResult {
	return f.fix
}

type fakeAdminService struct {
	stats *dto.StorageStatsResponse
}

func (f *fakeAdminService) StorageStats(ctx context.Context, kbID *int64) (*dto.StorageStatsResponse, error) {
	return f.stats, nil
}

func (f *fakeAdminService) CleanupOrphaned(ctx context.Context) (*dto.CleanupResponse, error) {
	return &dto.CleanupResponse{}, nil
}

func (f *fakeAdminService) DeleteKBStorage(ctx context.Context, kbID int64) error { return nil }

func newAdminApp(consistency service.IConsistencyService, admin service.IAdminService) *fiber.App {
	app := fiber.New()
	api := app.Group("/api")
	NewAdminController(admin, consistency).RegisterRoutes(api)
	return app
}

func superuserToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":      float64(1),
		"is_superuser": true,
		"exp":          time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestConsistencyCheckResponseCarriesFullResult(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	consistency := &fakeConsistencyService{
		result: &service.ConsistencyResult{
			Timestamp:     time.Now(),
			OverallStatus: service.StatusWarning,
			Issues: []service.ConsistencyIssue{
				{
					Type:            "missing_storage",
					KbID:            3,
					Description:     "KB 3 has documents but no storage directory",
					Severity:        "warning",
					SuggestedAction: "Reprocess documents for KB 3",
				},
			},
			Statistics:      map[string]int{"active_kb_count": 2, "storage_kb_count": 1},
			Recommendations: []string{"Investigate missing storage for KB 3"},
		},
	}
	app := newAdminApp(consistency, &fakeAdminService{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/consistency-check", nil)
	req.Header.Set("Authorization", "Bearer "+superuserToken(t))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body serverutils.ApiResponse[dto.ConsistencyCheckResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.True(t, body.Success)
	assert.Equal(t, service.StatusWarning, body.Data.Status)

	require.Len(t, body.Data.Issues, 1)
	issue := body.Data.Issues[0]
	assert.Equal(t, "missing_storage", issue.Type)
	assert.Equal(t, int64(3), issue.KbId)
	assert.Equal(t, "Reprocess documents for KB 3", issue.SuggestedAction)

	assert.Equal(t, map[string]int{"active_kb_count": 2, "storage_kb_count": 1}, body.Data.Statistics)
	assert.Equal(t, []string{"Investigate missing storage for KB 3"}, body.Data.Recommendations)
}

func TestConsistencyCheckRejectsNonSuperuser(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":      float64(2),
		"is_superuser": false,
		"exp":          time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	app := newAdminApp(&fakeConsistencyService{result: &service.ConsistencyResult{}}, &fakeAdminService{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/consistency-check", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
