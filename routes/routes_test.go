package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"report-ledger-api/models"
	"report-ledger-api/services"
	"report-ledger-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
	users  map[int]models.User
}

func newTestServer(t *testing.T, requireAuth bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	require.NoError(t, services.Seed(context.Background(), db))

	registry := services.NewModuleRegistry(db)
	perms := services.NewPermissionService(db, registry, time.Minute)
	ledger := services.NewLedgerService(db, registry, perms)

	router := gin.New()
	SetupRoutes(router, Services{
		Registry:    registry,
		Permissions: perms,
		Ledger:      ledger,
		Dashboard:   services.NewDashboardService(perms, ledger, registry, 5),
		Admin:       services.NewAdminService(db, registry, perms),
		Auth:        services.NewAuthService(db),
		Attachments: services.NewAttachmentService(db, registry, perms, t.TempDir(), 1<<20),
	}, Options{
		JWTSecret:   testSecret,
		TokenTTL:    time.Hour,
		RequireAuth: requireAuth,
		AdminRoleID: models.RoleIDAdmin,
		TrendMonths: 6,
	})

	srv := &testServer{db: db, router: router, users: map[int]models.User{}}
	hashed, err := utils.HashPassword("Passw0rd!")
	require.NoError(t, err)
	for _, roleID := range []int{models.RoleIDAdmin, models.RoleIDFinanceOfficer, models.RoleIDProjectManager, models.RoleIDViewer} {
		user := models.User{
			Username: fmt.Sprintf("role%d", roleID),
			Email:    fmt.Sprintf("role%d@example.com", roleID),
			Password: hashed,
			RoleID:   roleID,
		}
		require.NoError(t, db.Create(&user).Error)
		srv.users[roleID] = user
	}
	return srv
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func (s *testServer) login(t *testing.T, roleID int) string {
	t.Helper()
	w, body := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"login":    s.users[roleID].Email,
		"password": "Passw0rd!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return body["token"].(string)
}

func submitBody(userID int, moduleID int, period string, data interface{}) gin.H {
	return gin.H{"module_id": moduleID, "period": period, "user_id": userID, "data": data}
}

func TestSubmitCreateThenUpdate(t *testing.T) {
	s := newTestServer(t, false)
	officer := s.users[models.RoleIDFinanceOfficer]

	w, body := s.do(t, http.MethodPost, "/api/v1/forms/submit", submitBody(officer.UserID, 201, "2024-03", gin.H{"revenue": 100}), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "create", body["data"].(map[string]interface{})["action"])

	w, body = s.do(t, http.MethodPost, "/api/v1/forms/submit", submitBody(officer.UserID, 201, "2024-03", gin.H{"revenue": 150}), "")
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "update", data["action"])
	assert.EqualValues(t, 2, data["submission_count"])

	w, body = s.do(t, http.MethodGet, "/api/v1/forms/submission/201/2024-03", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	current := body["data"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"revenue": float64(150)}, current["data"])

	w, body = s.do(t, http.MethodGet, "/api/v1/forms/history/201/2024-03", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["total"])
}

func TestSubmitForbiddenForReadOnlyUser(t *testing.T) {
	s := newTestServer(t, false)
	viewer := s.users[models.RoleIDViewer]

	w, body := s.do(t, http.MethodPost, "/api/v1/forms/submit", submitBody(viewer.UserID, 201, "2024-03", gin.H{"revenue": 1}), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])

	var count int64
	require.NoError(t, s.db.Model(&models.Submission{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitBadRequests(t *testing.T) {
	s := newTestServer(t, false)
	officer := s.users[models.RoleIDFinanceOfficer]

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"bad period", submitBody(officer.UserID, 201, "2024-13", gin.H{}), http.StatusBadRequest},
		{"short period", submitBody(officer.UserID, 201, "2024-3", gin.H{}), http.StatusBadRequest},
		{"missing user", submitBody(0, 201, "2024-03", gin.H{}), http.StatusBadRequest},
		{"missing module", submitBody(officer.UserID, 0, "2024-03", gin.H{}), http.StatusBadRequest},
		{"array data", submitBody(officer.UserID, 201, "2024-03", []int{1}), http.StatusBadRequest},
		{"not an object", "nope", http.StatusBadRequest},
		{"unknown module", submitBody(officer.UserID, 999, "2024-03", gin.H{}), http.StatusNotFound},
		{"unknown user", submitBody(4242, 201, "2024-03", gin.H{}), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := s.do(t, http.MethodPost, "/api/v1/forms/submit", tt.body, "")
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestPeriodValidatedOnReadEndpoints(t *testing.T) {
	s := newTestServer(t, false)

	for _, path := range []string{
		"/api/v1/forms/submission/201/2024-13",
		"/api/v1/forms/status/202403",
		"/api/v1/forms/history/201/2024-1",
		"/api/v1/forms/attachments/201/24-01",
		fmt.Sprintf("/api/v1/dashboard/user/%d?period=2024-00", s.users[models.RoleIDViewer].UserID),
	} {
		w, _ := s.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestGetMissingSubmission(t *testing.T) {
	s := newTestServer(t, false)

	w, body := s.do(t, http.MethodGet, "/api/v1/forms/submission/201/2024-03", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestDeleteSubmission(t *testing.T) {
	s := newTestServer(t, false)
	officer := s.users[models.RoleIDFinanceOfficer]
	viewer := s.users[models.RoleIDViewer]

	w, _ := s.do(t, http.MethodPost, "/api/v1/forms/submit", submitBody(officer.UserID, 201, "2024-03", gin.H{"revenue": 1}), "")
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/forms/submission/201/2024-03", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/forms/submission/201/2024-03?user_id=%d", viewer.UserID), nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/forms/submission/201/2024-03?user_id=%d", officer.UserID), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/forms/submission/201/2024-03?user_id=%d", officer.UserID), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusForPeriod(t *testing.T) {
	s := newTestServer(t, false)
	officer := s.users[models.RoleIDFinanceOfficer]

	w, _ := s.do(t, http.MethodPost, "/api/v1/forms/submit", submitBody(officer.UserID, 101, "2024-03", gin.H{"assets": 1}), "")
	require.Equal(t, http.StatusOK, w.Code)

	w, body := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/forms/status/2024-03?user_id=%d", officer.UserID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "2024-03", data["period"])
	assert.Len(t, data["modules"], len(models.DefaultModules))
	assert.EqualValues(t, 1, data["submitted_count"])
}

func TestUserPermissions(t *testing.T) {
	s := newTestServer(t, false)
	manager := s.users[models.RoleIDProjectManager]

	w, body := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/permissions/user/%d", manager.UserID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["readable_modules"], len(models.DefaultModules))
	assert.Len(t, data["writable_modules"], 4)
	assert.EqualValues(t, 4, data["pending_count"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/permissions/user/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/permissions/user/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserDashboard(t *testing.T) {
	s := newTestServer(t, false)
	officer := s.users[models.RoleIDFinanceOfficer]

	for _, moduleID := range []int{101, 102} {
		w, _ := s.do(t, http.MethodPost, "/api/v1/forms/submit", submitBody(officer.UserID, moduleID, "2024-03", gin.H{"v": 1}), "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, body := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/dashboard/user/%d?period=2024-03&months=3", officer.UserID), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 7, data["writable_count"])
	assert.EqualValues(t, 5, data["pending_count"])
	assert.EqualValues(t, 28.6, data["completion_rate"])
	assert.Len(t, data["category_stats"], len(models.Categories))
	assert.Len(t, data["trend"], 3)

	w, _ = s.do(t, http.MethodGet, "/api/v1/dashboard/user/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/dashboard/user/%d?months=x", officer.UserID), nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModulesCatalog(t *testing.T) {
	s := newTestServer(t, false)

	w, body := s.do(t, http.MethodGet, "/api/v1/modules", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, len(models.DefaultModules), body["total"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t, false)

	w, body := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"login":    s.users[models.RoleIDViewer].Email,
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestTokenUserOverridesBodyUser(t *testing.T) {
	s := newTestServer(t, false)
	officer := s.users[models.RoleIDFinanceOfficer]
	token := s.login(t, models.RoleIDViewer)

	// The body claims the officer but the token belongs to a viewer.
	w, _ := s.do(t, http.MethodPost, "/api/v1/forms/submit", submitBody(officer.UserID, 201, "2024-03", gin.H{"v": 1}), token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuthRejectsAnonymousSubmit(t *testing.T) {
	s := newTestServer(t, true)
	officer := s.users[models.RoleIDFinanceOfficer]

	w, _ := s.do(t, http.MethodPost, "/api/v1/forms/submit", submitBody(officer.UserID, 201, "2024-03", gin.H{"v": 1}), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := s.login(t, models.RoleIDFinanceOfficer)
	w, body := s.do(t, http.MethodPost, "/api/v1/forms/submit", submitBody(0, 201, "2024-03", gin.H{"v": 1}), token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "create", body["data"].(map[string]interface{})["action"])
}

func TestAdminReplaceRolePermissions(t *testing.T) {
	s := newTestServer(t, false)
	viewer := s.users[models.RoleIDViewer]
	path := fmt.Sprintf("/api/v1/admin/roles/%d/permissions", models.RoleIDViewer)
	grants := gin.H{"grants": []gin.H{
		{"module_id": 201, "permission_type": "write"},
	}}

	w, _ := s.do(t, http.MethodPut, path, grants, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPut, path, grants, s.login(t, models.RoleIDViewer))
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken := s.login(t, models.RoleIDAdmin)

	// Warm the permission cache with the old grants.
	w, _ = s.do(t, http.MethodPost, "/api/v1/forms/submit", submitBody(viewer.UserID, 201, "2024-03", gin.H{"v": 1}), "")
	require.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPut, path, grants, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(t, http.MethodPost, "/api/v1/forms/submit", submitBody(viewer.UserID, 201, "2024-03", gin.H{"v": 1}), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPut, "/api/v1/admin/roles/4/permissions", gin.H{"grants": []gin.H{{"module_id": 201, "permission_type": "owner"}}}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d/role", viewer.UserID), gin.H{"role_id": 99}, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDemotedAdminTokenLosesAdminRoutes(t *testing.T) {
	s := newTestServer(t, false)
	admin := s.users[models.RoleIDAdmin]
	token := s.login(t, models.RoleIDAdmin)
	path := fmt.Sprintf("/api/v1/admin/users/%d/role", admin.UserID)

	w, _ := s.do(t, http.MethodPut, path, gin.H{"role_id": models.RoleIDViewer}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(t, http.MethodPut, path, gin.H{"role_id": models.RoleIDAdmin}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, s.db.Model(&models.User{}).Where("user_id = ?", admin.UserID).Update("role_id", models.RoleIDAdmin).Error)
	w, _ = s.do(t, http.MethodPut, path, gin.H{"role_id": models.RoleIDAdmin}, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)

	w, body := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}
