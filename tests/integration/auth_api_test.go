package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/RachitSrivastava96/virasat-setu/internal/app"
	"github.com/RachitSrivastava96/virasat-setu/internal/auth"
	"github.com/RachitSrivastava96/virasat-setu/internal/config"
	"github.com/RachitSrivastava96/virasat-setu/internal/identity"
	"github.com/RachitSrivastava96/virasat-setu/internal/session"
	"github.com/RachitSrivastava96/virasat-setu/internal/shared"
)

const (
	appBaseURL     = "http://localhost:5173"
	loginFailedURL = "http://localhost:5173/login-failed"
)

// fakeOAuthService stands in for the Google exchange: codes map straight to
// provider assertions, unknown codes fail like a rejected exchange.
type fakeOAuthService struct {
	assertions map[string]shared.ProviderAssertion
}

func (f *fakeOAuthService) GoogleLoginURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (f *fakeOAuthService) ExchangeGoogleCode(ctx context.Context, code string) (*shared.ProviderAssertion, error) {
	if a, ok := f.assertions[code]; ok {
		return &a, nil
	}
	return nil, fmt.Errorf("invalid code %q", code)
}

type testEnv struct {
	server *httptest.Server
	client *http.Client
	oauth  *fakeOAuthService
}

func setupAPI(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		GinMode:            "test",
		StoreTimeout:       5 * time.Second,
		SessionCookieName:  "vs_session",
		SessionTTL:         time.Hour,
		BcryptCost:         bcrypt.MinCost,
		AppBaseURL:         appBaseURL,
		LoginFailedURL:     loginFailedURL,
		CORSAllowedOrigins: []string{appBaseURL},
	}
	logger := zap.NewNop()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to open test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, identity.Migrate(db))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	userService := identity.NewService(identity.NewGORMRepository(db, cfg), cfg, logger)
	gateway := session.NewGateway(session.NewRedisStore(redisClient), userService, cfg, logger)
	oauth := &fakeOAuthService{assertions: map[string]shared.ProviderAssertion{}}
	handler := auth.NewHandler(userService, oauth, gateway, cfg, logger)

	server, err := app.NewServer(cfg, logger, handler, gateway)
	require.NoError(t, err)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		// Callback redirects point at the frontend origin; stop there.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{server: ts, client: client, oauth: oauth}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := e.client.Post(e.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func currentUser(t *testing.T, env *testEnv) (bool, map[string]any) {
	t.Helper()
	resp := env.get(t, "/auth/me")
	require.Equal(t, http.StatusOK, resp.StatusCode, "/auth/me always answers 200")
	body := decodeBody(t, resp)
	authenticated, _ := body["authenticated"].(bool)
	user, _ := body["user"].(map[string]any)
	return authenticated, user
}

func TestLocalAccountLifecycle(t *testing.T) {
	env := setupAPI(t)

	// Anonymous before anything happens.
	authenticated, user := currentUser(t, env)
	assert.False(t, authenticated)
	assert.Nil(t, user)

	// Register; the 201 carries the user and signs the browser in.
	resp := env.postJSON(t, "/auth/register", map[string]string{
		"name": "Asha", "email": "Asha@Example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	created := body["user"].(map[string]any)
	assert.Equal(t, "asha@example.com", created["email"])
	assert.NotContains(t, created, "password")

	authenticated, user = currentUser(t, env)
	assert.True(t, authenticated)
	require.NotNil(t, user)
	assert.Equal(t, "Asha", user["name"])

	// Wrong password answers 401 regardless of the active session.
	resp = env.postJSON(t, "/auth/login", map[string]string{
		"email": "asha@example.com", "password": "not-the-password",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])

	// Correct password logs in.
	resp = env.postJSON(t, "/auth/login", map[string]string{
		"email": "asha@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, created["id"], body["user"].(map[string]any)["id"])

	// Logout, then anonymous again.
	resp = env.postJSON(t, "/auth/logout", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, true, body["ok"])

	authenticated, user = currentUser(t, env)
	assert.False(t, authenticated)
	assert.Nil(t, user)
}

func TestRegister_FieldValidation(t *testing.T) {
	env := setupAPI(t)

	resp := env.postJSON(t, "/auth/register", map[string]string{
		"name": "Asha", "email": "asha@example.com", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	details := body["details"].(map[string]any)
	assert.Contains(t, details, "password")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := setupAPI(t)

	resp := env.postJSON(t, "/auth/register", map[string]string{
		"name": "Asha", "email": "asha@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.postJSON(t, "/auth/register", map[string]string{
		"name": "Impostor", "email": "ASHA@example.com", "password": "different1",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "DUPLICATE_EMAIL", body["code"])
}

func TestLogin_UnknownEmailAnswersLikeWrongPassword(t *testing.T) {
	env := setupAPI(t)

	resp := env.postJSON(t, "/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "whatever1",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])
}

func googleCallback(t *testing.T, env *testEnv, code string) *http.Response {
	t.Helper()

	// Start the flow to obtain a state value; the redirect target carries
	// it and the state cookie lands in the jar.
	resp := env.get(t, "/auth/google")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	loc, err := resp.Location()
	require.NoError(t, err)
	resp.Body.Close()
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	return env.get(t, "/auth/google/callback?state="+state+"&code="+code)
}

func TestGoogleFlow_FirstSightCreatesAndSignsIn(t *testing.T) {
	env := setupAPI(t)
	env.oauth.assertions["good-code"] = shared.ProviderAssertion{
		SubjectID: "google-sub-1",
		Email:     "ravi@example.com",
		Name:      "Ravi",
		AvatarURL: "https://example.com/ravi.png",
	}

	resp := googleCallback(t, env, "good-code")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	loc, err := resp.Location()
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, appBaseURL, loc.String())

	authenticated, user := currentUser(t, env)
	assert.True(t, authenticated)
	require.NotNil(t, user)
	assert.Equal(t, "ravi@example.com", user["email"])
	firstID := user["id"]

	// A repeat sign-in resolves to the same account.
	resp = googleCallback(t, env, "good-code")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	resp.Body.Close()

	_, user = currentUser(t, env)
	require.NotNil(t, user)
	assert.Equal(t, firstID, user["id"])
}

func TestGoogleFlow_StateMismatchFailsClosed(t *testing.T) {
	env := setupAPI(t)

	resp := env.get(t, "/auth/google")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	resp.Body.Close()

	resp = env.get(t, "/auth/google/callback?state=forged&code=whatever")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	loc, err := resp.Location()
	require.NoError(t, err)
	resp.Body.Close()
	assert.Contains(t, loc.String(), loginFailedURL)
	assert.Equal(t, "state_mismatch", loc.Query().Get("reason"))

	authenticated, _ := currentUser(t, env)
	assert.False(t, authenticated)
}

func TestGoogleFlow_RefusesEmailOwnedByLocalAccount(t *testing.T) {
	env := setupAPI(t)

	resp := env.postJSON(t, "/auth/register", map[string]string{
		"name": "Asha", "email": "asha@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = env.postJSON(t, "/auth/logout", map[string]string{})
	resp.Body.Close()

	env.oauth.assertions["asha-code"] = shared.ProviderAssertion{
		SubjectID: "google-sub-asha",
		Email:     "asha@example.com",
		Name:      "Asha G",
	}

	resp = googleCallback(t, env, "asha-code")
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	loc, err := resp.Location()
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "email_owned_by_local_account", loc.Query().Get("reason"))

	authenticated, _ := currentUser(t, env)
	assert.False(t, authenticated)
}

func TestAuthStatus(t *testing.T) {
	env := setupAPI(t)

	resp := env.get(t, "/auth/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["authenticated"])

	r := env.postJSON(t, "/auth/register", map[string]string{
		"name": "Asha", "email": "asha@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, r.StatusCode)
	r.Body.Close()

	resp = env.get(t, "/auth/status")
	body = decodeBody(t, resp)
	assert.Equal(t, true, body["authenticated"])
}

func TestHealthEndpoint(t *testing.T) {
	env := setupAPI(t)

	resp := env.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "UP", body["status"])
}
