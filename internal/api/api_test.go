package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/mergington-activities/internal/metrics"
	"github.com/celerix-dev/mergington-activities/internal/registry"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *registry.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := registry.New(registry.DefaultCatalog())
	require.NoError(t, err)

	r := NewRouter(Options{Store: store})
	return r, store
}

func do(r http.Handler, method, target string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func enrollPath(activity, action, email string) string {
	return "/activities/" + url.PathEscape(activity) + "/" + action + "?email=" + url.QueryEscape(email)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestRootRedirect(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := do(r, "GET", "/")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/static/index.html", w.Header().Get("Location"))
}

func TestGetActivities(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := do(r, "GET", "/activities")
	require.Equal(t, http.StatusOK, w.Code)

	var data map[string]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
	require.NotEmpty(t, data)

	for name, activity := range data {
		for _, field := range []string{"description", "schedule", "max_participants", "participants"} {
			assert.Contains(t, activity, field, name)
		}
	}

	// Keys come out in catalog order.
	body := w.Body.String()
	assert.Less(t, strings.Index(body, `"Chess Club"`), strings.Index(body, `"Debate Team"`))
}

func TestGetActivities_Idempotent(t *testing.T) {
	r, _ := setupTestRouter(t)

	first := do(r, "GET", "/activities").Body.String()
	second := do(r, "GET", "/activities").Body.String()
	assert.Equal(t, first, second)
}

func TestSignupSuccess(t *testing.T) {
	r, store := setupTestRouter(t)
	email := "test@mergington.edu"

	w := do(r, "POST", enrollPath("Soccer Team", "signup", email))
	require.Equal(t, http.StatusOK, w.Code)

	msg, _ := decode(t, w)["message"].(string)
	assert.Contains(t, msg, email)
	assert.Contains(t, msg, "Soccer Team")

	got, err := store.Get("Soccer Team")
	require.NoError(t, err)
	assert.Contains(t, got.Participants, email)
}

func TestSignupDuplicate(t *testing.T) {
	r, store := setupTestRouter(t)
	email := "duplicate@mergington.edu"
	_, err := store.Signup("Soccer Team", email)
	require.NoError(t, err)

	w := do(r, "POST", enrollPath("Soccer Team", "signup", email))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	detail, _ := decode(t, w)["detail"].(string)
	assert.Contains(t, strings.ToLower(detail), "already signed up")
}

func TestSignupInvalidActivity(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := do(r, "POST", "/activities/Nonexistent%20Activity/signup?email=test@mergington.edu")
	assert.Equal(t, http.StatusNotFound, w.Code)

	detail, _ := decode(t, w)["detail"].(string)
	assert.Contains(t, strings.ToLower(detail), "not found")
}

func TestSignupMissingEmail(t *testing.T) {
	r, store := setupTestRouter(t)
	before, _ := store.Get("Chess Club")

	w := do(r, "POST", "/activities/Chess%20Club/signup")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, DetailEmailRequired, decode(t, w)["detail"])

	after, _ := store.Get("Chess Club")
	assert.Equal(t, before.Participants, after.Participants)
}

func TestSignupEmptyEmailAccepted(t *testing.T) {
	r, store := setupTestRouter(t)

	w := do(r, "POST", "/activities/Chess%20Club/signup?email=")
	assert.Equal(t, http.StatusOK, w.Code)

	got, _ := store.Get("Chess Club")
	assert.Contains(t, got.Participants, "")
}

func TestUnregisterSuccess(t *testing.T) {
	r, store := setupTestRouter(t)
	email := "unregister@mergington.edu"
	_, err := store.Signup("Basketball Team", email)
	require.NoError(t, err)

	w := do(r, "DELETE", enrollPath("Basketball Team", "unregister", email))
	require.Equal(t, http.StatusOK, w.Code)

	msg, _ := decode(t, w)["message"].(string)
	assert.Contains(t, msg, "Unregistered")

	got, _ := store.Get("Basketball Team")
	assert.NotContains(t, got.Participants, email)
}

func TestUnregisterNotRegistered(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := do(r, "DELETE", enrollPath("Drama Club", "unregister", "notregistered@mergington.edu"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	detail, _ := decode(t, w)["detail"].(string)
	assert.Contains(t, strings.ToLower(detail), "not signed up")
}

func TestUnregisterInvalidActivity(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := do(r, "DELETE", "/activities/Nonexistent%20Activity/unregister?email=test@mergington.edu")
	assert.Equal(t, http.StatusNotFound, w.Code)

	detail, _ := decode(t, w)["detail"].(string)
	assert.Contains(t, strings.ToLower(detail), "not found")
}

func TestSignupAndUnregisterFlow(t *testing.T) {
	r, store := setupTestRouter(t)
	activity := "Art Studio"
	email := "flow@mergington.edu"

	before, _ := store.Get(activity)

	w := do(r, "POST", enrollPath(activity, "signup", email))
	require.Equal(t, http.StatusOK, w.Code)
	mid, _ := store.Get(activity)
	assert.Len(t, mid.Participants, len(before.Participants)+1)

	w = do(r, "DELETE", enrollPath(activity, "unregister", email))
	require.Equal(t, http.StatusOK, w.Code)

	after, _ := store.Get(activity)
	assert.Equal(t, before.Participants, after.Participants)
}

func TestWrongMethod(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := do(r, "GET", "/activities/Chess%20Club/signup?email=a@b")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := do(r, "GET", "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestRequestIDHeader(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := do(r, "GET", "/healthz")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req, _ := http.NewRequest("GET", "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := registry.New(registry.DefaultCatalog())
	require.NoError(t, err)
	r := NewRouter(Options{Store: store, CORSOrigins: []string{"http://school.test"}})

	req, _ := http.NewRequest("OPTIONS", "/activities", nil)
	req.Header.Set("Origin", "http://school.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://school.test", w.Header().Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest("GET", "/activities", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := registry.New(registry.DefaultCatalog())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg, store)
	r := NewRouter(Options{Store: store, Metrics: m, Gatherer: reg, MetricsPath: "/metrics"})

	do(r, "POST", enrollPath("Chess Club", "signup", "metrics@mergington.edu"))
	do(r, "POST", enrollPath("Chess Club", "signup", "metrics@mergington.edu"))
	do(r, "POST", enrollPath("Ghost Club", "signup", "metrics@mergington.edu"))

	w := do(r, "GET", "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `activities_enrollment_operations_total{activity="Chess Club",operation="signup",outcome="ok"} 1`)
	assert.Contains(t, body, `activities_enrollment_operations_total{activity="Chess Club",operation="signup",outcome="conflict"} 1`)
	assert.Contains(t, body, `activities_enrollment_operations_total{activity="unknown",operation="signup",outcome="not_found"} 1`)
	assert.Contains(t, body, `activities_participants{activity="Chess Club"} 3`)
	assert.Contains(t, body, `route="/activities/:activity/signup"`)
}
