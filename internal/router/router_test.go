package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testhub/internal/config"
	"testhub/internal/db"
	"testhub/internal/model"
	"testhub/internal/service"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	svc    *service.ServiceContext
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: "router-test", TokenExpiry: "24h", CookieName: "auth_token"},
		Run:  config.RunConfig{MaxRetries: 5},
	}
	svc := service.NewServiceContext(cfg, conn)
	return &testServer{t: t, engine: SetupRouter(svc), svc: svc}
}

// userToken creates a user directly and returns a bearer token for them.
func (s *testServer) userToken(email string, role model.Role) string {
	s.t.Helper()
	name, pw := "User "+email, "pw"
	u, err := s.svc.Users.Create(context.Background(), service.UserInput{Name: &name, Email: &email, Password: &pw, Role: &role})
	require.NoError(s.t, err)
	token, err := s.svc.Tokens.Generate(u)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	return body.Message
}

type idBody struct {
	ID uint `json:"id"`
}

func (s *testServer) create(path, token string, body interface{}) uint {
	s.t.Helper()
	rec := s.do(http.MethodPost, path, token, body)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out idBody
	decode(s.t, rec, &out)
	require.NotZero(s.t, out.ID)
	return out.ID
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
		Token string `json:"token"`
	}
	decode(t, rec, &reg)
	assert.Equal(t, "test_engineer", reg.User.Role)
	assert.NotEmpty(t, reg.Token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, "auth_token", ck.Name)
	assert.True(t, ck.HttpOnly)
	assert.False(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, 86400, ck.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(ck)
	me := httptest.NewRecorder()
	s.engine.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	var who struct {
		Email string `json:"email"`
	}
	decode(t, me, &who)
	assert.Equal(t, "ana@example.com", who.Email)

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", message(t, rec))

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", message(t, rec))

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "pw"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestProtect(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized: No token provided", message(t, rec))

	rec = s.do(http.MethodGet, "/api/testruns/1", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized: Invalid token", message(t, rec))
}

func TestRoleGating(t *testing.T) {
	s := newTestServer(t)
	engineer := s.userToken("eng@example.com", model.RoleTestEngineer)
	manager := s.userToken("lead@example.com", model.RoleTestManager)
	admin := s.userToken("root@example.com", model.RoleAdmin)

	project := map[string]string{"name": "Checkout", "description": "shop"}
	rec := s.do(http.MethodPost, "/api/projects/createProject", engineer, project)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden: Insufficient permissions", message(t, rec))

	id := s.create("/api/projects/createProject", manager, project)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/projects/%d", id), manager, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/projects/%d", id), admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/users", engineer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodGet, "/api/users", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserProfile(t *testing.T) {
	s := newTestServer(t)
	engineer := s.userToken("eng@example.com", model.RoleTestEngineer)
	claims, err := s.svc.Tokens.Verify(engineer)
	require.NoError(t, err)
	other := s.userToken("other@example.com", model.RoleTestEngineer)

	path := fmt.Sprintf("/api/users/%d/profile", claims.UserID)
	rec := s.do(http.MethodPut, path, engineer, map[string]string{"name": "Renamed", "role": "admin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var u struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	decode(t, rec, &u)
	assert.Equal(t, "Renamed", u.Name)
	assert.Equal(t, "test_engineer", u.Role)

	rec = s.do(http.MethodPut, path, other, map[string]string{"name": "Hijack"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCatalogErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.userToken("lead@example.com", model.RoleTestManager)

	rec := s.do(http.MethodGet, "/api/modules/getModules", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Project ID is required", message(t, rec))

	rec = s.do(http.MethodPost, "/api/modules/createModule", token, map[string]interface{}{"project": 77, "name": "Payments"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Project not found.", message(t, rec))

	rec = s.do(http.MethodGet, "/api/testruns/abc", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Test run not found", message(t, rec))

	rec = s.do(http.MethodGet, "/api/testcases/reference/TC-missing", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTestRunOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.userToken("lead@example.com", model.RoleTestManager)

	projectID := s.create("/api/projects/createProject", token, map[string]string{"name": "Checkout", "description": "shop"})
	moduleID := s.create("/api/modules/createModule", token, map[string]interface{}{"project": projectID, "name": "Payments"})
	suiteID := s.create("/api/testsuites/createTestSuite", token, map[string]interface{}{"module": moduleID, "name": "Cards"})

	var caseIDs []uint
	for _, title := range []string{"visa", "mastercard", "amex"} {
		caseIDs = append(caseIDs, s.create("/api/testcases/createTestCase", token, map[string]interface{}{
			"project": projectID, "module": moduleID, "testSuite": suiteID,
			"title": title, "description": "charge card", "steps": "pay",
		}))
	}
	a, b := caseIDs[0], caseIDs[1]

	runID := s.create("/api/testruns/create", token, map[string]interface{}{
		"name": "Release 2.4", "projectId": projectID, "testCaseIds": caseIDs,
	})
	base := fmt.Sprintf("/api/testruns/%d", runID)

	execute := func(id uint, status, results string) {
		rec := s.do(http.MethodPost, fmt.Sprintf("%s/test-cases/%d/execute", base, id), token,
			map[string]string{"status": status, "actualResults": results})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	execute(a, "Passed", "ok")
	execute(b, "Failed", "declined")
	execute(b, "Passed", "fixed")

	rec := s.do(http.MethodPost, fmt.Sprintf("%s/test-cases/%d/execute", base, a), token, map[string]string{"status": "Skipped"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, fmt.Sprintf("%s/test-cases/%d/execute", base, 999), token, map[string]string{"status": "Passed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Test case not found in this test run", message(t, rec))

	rec = s.do(http.MethodGet, fmt.Sprintf("%s/test-cases/%d/history", base, b), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []struct {
		Status        string `json:"status"`
		ActualResults string `json:"actualResults"`
	}
	decode(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "Failed", history[0].Status)
	assert.Equal(t, "declined", history[0].ActualResults)

	rec = s.do(http.MethodGet, base+"/metrics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var metrics map[string]int
	decode(t, rec, &metrics)
	assert.Equal(t, map[string]int{
		"totalTestCases": 3, "executed": 2, "passed": 2, "failed": 0,
		"blocked": 0, "rejected": 0, "notExecuted": 1, "passRate": 67,
	}, metrics)

	rec = s.do(http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Project struct {
			Name string `json:"name"`
		} `json:"project"`
		TestCases []struct {
			TestCase *struct {
				Title string `json:"title"`
			} `json:"testCase"`
			History []json.RawMessage `json:"history"`
		} `json:"testCases"`
	}
	decode(t, rec, &detail)
	assert.Equal(t, "Checkout", detail.Project.Name)
	require.Len(t, detail.TestCases, 3)
	require.NotNil(t, detail.TestCases[0].TestCase)
	assert.Equal(t, "visa", detail.TestCases[0].TestCase.Title)
	assert.Len(t, detail.TestCases[1].History, 1)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/projects/project/%d", projectID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Name              string `json:"name"`
		TestCaseCount     int    `json:"testCaseCount"`
		TotalRuns         int    `json:"totalRuns"`
		LatestRunPassRate *int   `json:"latestRunPassRate"`
	}
	decode(t, rec, &stats)
	assert.Equal(t, "Checkout", stats.Name)
	assert.Equal(t, 3, stats.TestCaseCount)
	assert.Equal(t, 1, stats.TotalRuns)
	require.NotNil(t, stats.LatestRunPassRate)
	assert.Equal(t, 100, *stats.LatestRunPassRate)

	rec = s.do(http.MethodPut, base+"/complete", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var done struct {
		Status  string  `json:"status"`
		EndDate *string `json:"endDate"`
	}
	decode(t, rec, &done)
	assert.Equal(t, "Completed", done.Status)
	assert.NotNil(t, done.EndDate)

	rec = s.do(http.MethodDelete, fmt.Sprintf("%s/test-cases/%d", base, b), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, fmt.Sprintf("%s/test-cases/%d/history", base, b), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/testruns/project/%d", projectID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []idBody
	decode(t, rec, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)

	rec = s.do(http.MethodDelete, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, base, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/testruns/create", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
