package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/meal-tracker/internal/middleware"
	"github.com/EmpoweredVote/meal-tracker/internal/validation"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _, tokens := newTestService(t)
	h := NewHandler(svc, validation.New(validation.DefaultRules()), zap.NewNop())

	r := chi.NewRouter()
	r.Mount("/api/v1/auth", SetupRoutes(h, tokens, middleware.RateLimit(1000, 1000)))
	return r
}

func do(t *testing.T, h http.Handler, method, path, tok string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func registerAlice(t *testing.T, h http.Handler) string {
	t.Helper()
	rec, body := do(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice123", "password": "Abcdef1!", "confirmPassword": "Abcdef1!",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return body["token"].(string)
}

func TestRegisterHandler(t *testing.T) {
	h := newTestRouter(t)

	rec, body := do(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice123", "password": "Abcdef1!", "confirmPassword": "Abcdef1!",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice123", user["username"])
	assert.NotContains(t, rec.Body.String(), "password_hash")

	rec, body = do(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice123", "password": "Abcdef1!",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "error", body["status"])
}

func TestRegisterHandler_Validation(t *testing.T) {
	h := newTestRouter(t)

	rec, body := do(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "a", "password": "abc",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := body["errors"].([]any)
	require.Len(t, errs, 2)
	assert.Equal(t, "username", errs[0].(map[string]any)["field"])
	assert.Equal(t, "password", errs[1].(map[string]any)["field"])
}

func TestRegisterHandler_Japanese(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"password":"Abcdef1!"}`))
	req.Header.Set("Accept-Language", "ja")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "usernameは必須です")
}

func TestRegisterHandler_MalformedJSON(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"username":`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "request body must be valid JSON")
}

func TestLoginHandler(t *testing.T) {
	h := newTestRouter(t)
	registerAlice(t, h)

	rec, body := do(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice123", "password": "Abcdef1!",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["token"])

	rec, body = do(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice123", "password": "Wrong1!!",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid username or password")
	assert.Equal(t, "error", body["status"])
}

func errorFields(t *testing.T, body map[string]any) []string {
	t.Helper()
	var fields []string
	for _, e := range body["errors"].([]any) {
		fields = append(fields, e.(map[string]any)["field"].(string))
	}
	return fields
}

func TestLoginHandler_MissingFields(t *testing.T) {
	h := newTestRouter(t)

	rec, body := do(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"username", "password"}, errorFields(t, body))
}

func TestLogoutHandler(t *testing.T) {
	h := newTestRouter(t)

	rec, body := do(t, h, http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
}

func TestProfileHandlers(t *testing.T) {
	h := newTestRouter(t)
	tok := registerAlice(t, h)

	rec, _ := do(t, h, http.MethodGet, "/api/v1/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := do(t, h, http.MethodGet, "/api/v1/auth/profile", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice123", body["user"].(map[string]any)["username"])
	assert.NotContains(t, rec.Body.String(), "password_hash")

	rec, _ = do(t, h, http.MethodPut, "/api/v1/auth/profile", tok, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, h, http.MethodPut, "/api/v1/auth/profile", tok, map[string]string{"username": "alice999"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice999", body["user"].(map[string]any)["username"])

	rec, body = do(t, h, http.MethodGet, "/api/v1/auth/verify", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	// the token still carries the username it was issued with
	assert.Equal(t, "alice123", body["user"].(map[string]any)["username"])
}

func TestUpdatePasswordHandler(t *testing.T) {
	h := newTestRouter(t)
	tok := registerAlice(t, h)

	rec, _ := do(t, h, http.MethodPut, "/api/v1/auth/profile/password", tok, map[string]string{
		"currentPassword": "Wrong1!!", "password": "Newpass9$",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := do(t, h, http.MethodPut, "/api/v1/auth/profile/password", tok, map[string]string{
		"currentPassword": "Abcdef1!", "password": "Newpass9$",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "password updated", body["message"])

	rec, _ = do(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice123", "password": "Newpass9$",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, h, http.MethodPut, "/api/v1/auth/profile/password", tok, map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"currentPassword", "password"}, errorFields(t, body))
}

func TestDeleteAccountHandler(t *testing.T) {
	h := newTestRouter(t)
	tok := registerAlice(t, h)

	rec, _ := do(t, h, http.MethodDelete, "/api/v1/auth/delete", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/auth/profile", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/auth/delete", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyHandler_RejectsGarbage(t *testing.T) {
	h := newTestRouter(t)

	rec, _ := do(t, h, http.MethodGet, "/api/v1/auth/verify", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCredentialRoutes_RateLimited(t *testing.T) {
	svc, _, tokens := newTestService(t)
	h := NewHandler(svc, validation.New(validation.DefaultRules()), zap.NewNop())
	r := chi.NewRouter()
	r.Mount("/api/v1/auth", SetupRoutes(h, tokens, middleware.RateLimit(0.001, 1)))

	rec, _ := do(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "x", "password": "y"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "x", "password": "y"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// logout is not throttled
	rec, _ = do(t, r, http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
