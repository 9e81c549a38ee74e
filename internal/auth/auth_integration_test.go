package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/EmpoweredVote/meal-tracker/internal/auth"
	"github.com/EmpoweredVote/meal-tracker/internal/config"
	"github.com/EmpoweredVote/meal-tracker/internal/db"
	"github.com/EmpoweredVote/meal-tracker/internal/middleware"
	"github.com/EmpoweredVote/meal-tracker/internal/token"
	"github.com/EmpoweredVote/meal-tracker/internal/validation"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

var (
	testServer *httptest.Server
	testDB     *gorm.DB
	testCfg    *config.Config
)

func TestMain(m *testing.M) {
	// Load .env.local relative to the repo root (two directories up from internal/auth/).
	_ = godotenv.Load("../../.env.local")

	if os.Getenv("DATABASE_URL") == "" {
		// No database available, every test below skips.
		os.Exit(m.Run())
	}
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "integration-secret")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	cfg.BcryptCost = 4
	testCfg = cfg

	log := zap.NewNop()
	testDB, err = db.Connect(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}
	if err := db.EnsureSchema(testDB, cfg.DBSchema); err != nil {
		fmt.Fprintln(os.Stderr, "schema:", err)
		os.Exit(1)
	}
	if err := db.Migrate(context.Background(), testDB); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	dbAvailable = true

	mod := auth.Init(cfg, auth.NewGormUserStore(testDB), validation.New(validation.DefaultRules()), log)

	// Mount auth routes on a Chi router, matching the production setup.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	r.Mount("/api/v1/auth", auth.SetupRoutes(mod.Handler, mod.Tokens, nil))

	testServer = httptest.NewServer(r)
	code := m.Run()
	testServer.Close()
	_ = db.Close(testDB)
	os.Exit(code)
}

// registerTestUser registers a unique user through the API and removes it when
// the test ends. Returns the username, password and token.
func registerTestUser(t *testing.T) (username, password, tok string) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	username = fmt.Sprintf("testuser%s", uuid.New().String()[:8])
	password = "TestPass123!"

	resp := postJSON(t, "/api/v1/auth/register", "", map[string]string{
		"username": username, "password": password, "confirmPassword": password,
	})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d; body: %s", resp.StatusCode, body)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("invalid JSON body: %s", body)
	}

	t.Cleanup(func() {
		testDB.Where("username = ?", username).Delete(&auth.User{})
	})
	return username, password, result.Token
}

func postJSON(t *testing.T, path, tok string, payload any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(payload)
	return send(t, http.MethodPost, path, tok, bytes.NewReader(b))
}

func send(t *testing.T, method, path, tok string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, testServer.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// readBody reads and returns the response body as a string, draining and closing it.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

// TestLoginReturnsToken verifies that POST /login with valid credentials returns
// 200 and a token that the profile endpoint accepts.
func TestLoginReturnsToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
	username, password, _ := registerTestUser(t)

	resp := postJSON(t, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", resp.StatusCode, body)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("invalid JSON body: %s", body)
	}
	tok, _ := result["token"].(string)
	if tok == "" {
		t.Fatal("expected token in response body")
	}

	profile := send(t, http.MethodGet, "/api/v1/auth/profile", tok, nil)
	profileBody := readBody(t, profile)
	if profile.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /profile, got %d; body: %s", profile.StatusCode, profileBody)
	}
	if !strings.Contains(profileBody, username) {
		t.Errorf("expected profile to contain %q, got: %s", username, profileBody)
	}
	if strings.Contains(profileBody, "password_hash") {
		t.Errorf("profile leaked password_hash: %s", profileBody)
	}
}

// TestDuplicateRegistration verifies the unique constraint surfaces as 409.
func TestDuplicateRegistration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
	username, password, _ := registerTestUser(t)

	resp := postJSON(t, "/api/v1/auth/register", "", map[string]string{"username": username, "password": password})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d; body: %s", resp.StatusCode, body)
	}
}

// TestDeleteAccountCascades verifies that deleting a user removes their meal
// records through the foreign key.
func TestDeleteAccountCascades(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
	username, _, tok := registerTestUser(t)

	var u auth.User
	if err := testDB.Where("username = ?", username).First(&u).Error; err != nil {
		t.Fatalf("lookup user: %v", err)
	}
	start := time.Now().UTC().Add(-time.Hour)
	if err := testDB.Exec(
		`INSERT INTO meal_records (user_id, start_time, end_time, duration_minutes, interval_minutes) VALUES (?, ?, ?, 30, 0)`,
		u.UserID, start, start.Add(30*time.Minute),
	).Error; err != nil {
		t.Fatalf("insert meal: %v", err)
	}

	resp := send(t, http.MethodDelete, "/api/v1/auth/delete", tok, nil)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", resp.StatusCode, body)
	}

	var count int64
	testDB.Table("meal_records").Where("user_id = ?", u.UserID).Count(&count)
	if count != 0 {
		t.Errorf("expected meal records to be deleted, found %d", count)
	}
}

// TestExpiredTokenRejected verifies that a token past its expiry is refused
// with 401 and "token expired" in the body.
func TestExpiredTokenRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
	username, _, _ := registerTestUser(t)

	var u auth.User
	if err := testDB.Where("username = ?", username).First(&u).Error; err != nil {
		t.Fatalf("lookup user: %v", err)
	}
	past := func() time.Time { return time.Now().Add(-2 * testCfg.TokenExpiry) }
	stale, err := token.NewService(testCfg.JWTSecret, testCfg.TokenExpiry, token.WithClock(past)).Issue(u.UserID, u.Username)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resp := send(t, http.MethodGet, "/api/v1/auth/profile", stale, nil)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with expired token, got %d; body: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "token expired") {
		t.Errorf("expected body to contain %q, got: %q", "token expired", body)
	}
}
