// AngelaMos | 2026
// handler_test.go

package auth_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/auth"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/config"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/middleware"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/store"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/user"
)

func passthrough(next http.Handler) http.Handler { return next }

type testEnv struct {
	router http.Handler
	users  user.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	jwtManager, err := auth.NewJWTManager(config.JWTConfig{
		Secret:      "test-secret",
		TokenExpire: time.Hour,
		Issuer:      "test",
	})
	require.NoError(t, err)

	repo := user.NewRepository(fs)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := auth.NewService(jwtManager, user.NewService(repo), logger)

	r := chi.NewRouter()
	auth.NewHandler(svc).RegisterRoutes(
		r,
		middleware.Authenticator(jwtManager),
		passthrough,
	)

	return &testEnv{router: r, users: repo}
}

func (e *testEnv) do(
	t *testing.T,
	method, path string,
	body any,
	token string,
) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, username, password string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "ruben",
		"email":    "ruben@example.com",
		"password": "longenough",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ruben", body["username"])
	assert.Equal(t, "ruben@example.com", body["email"])
	assert.NotEmpty(t, body["id"])
	assert.NotContains(t, body, "password_hash")

	stored, err := env.users.GetByUsername(t.Context(), "ruben")
	require.NoError(t, err)
	assert.NotEqual(t, "longenough", stored.PasswordHash)
	assert.Nil(t, stored.LastLogin)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "taken", "password1")

	tests := []struct {
		name    string
		body    map[string]string
		wantErr string
	}{
		{
			name:    "missing email",
			body:    map[string]string{"username": "a", "password": "password1"},
			wantErr: "email is required",
		},
		{
			name: "short password",
			body: map[string]string{
				"username": "b",
				"email":    "b@example.com",
				"password": "short",
			},
			wantErr: "password must be at least 8 characters",
		},
		{
			name: "taken username",
			body: map[string]string{
				"username": "taken",
				"email":    "t@example.com",
				"password": "password1",
			},
			wantErr: "username already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantErr)
		})
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "admin", "correct-password")

	wrongPassword := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "admin",
		"password": "wrong-password",
	}, "")
	unknownUser := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "nobody",
		"password": "wrong-password",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
	assert.Contains(t, wrongPassword.Body.String(), "invalid credentials")
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "admin",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username and password are required")
}

func TestLoginThenMe(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "admin", "correct-password")

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "admin",
		"password": "correct-password",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var login auth.LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&login))
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "admin", login.User.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), login.ExpiresAt, time.Minute)

	me := env.do(t, http.MethodGet, "/auth/me", nil, login.Token)
	require.Equal(t, http.StatusOK, me.Code)

	var profile auth.MeResponse
	require.NoError(t, json.NewDecoder(me.Body).Decode(&profile))
	assert.Equal(t, login.User.ID, profile.ID)
	require.NotNil(t, profile.LastLogin)
	assert.WithinDuration(t, time.Now(), *profile.LastLogin, time.Minute)
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	missing := env.do(t, http.MethodGet, "/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, missing.Code)
	assert.Contains(t, missing.Body.String(), "access token required")

	garbage := env.do(t, http.MethodGet, "/auth/me", nil, "not.a.token")
	assert.Equal(t, http.StatusForbidden, garbage.Code)
	assert.Contains(t, garbage.Body.String(), "invalid or expired token")
}

func TestRegisterRejectsBlankUsername(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "   ",
		"email":    "blank@example.com",
		"password": "password1",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username is required")

	n, err := env.users.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPaddedUsernameCanLogIn(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": " ruben ",
		"email":    " ruben@example.com ",
		"password": "password1",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created auth.UserResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "ruben", created.Username)
	assert.Equal(t, "ruben@example.com", created.Email)

	for _, name := range []string{" ruben ", "ruben"} {
		login := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"username": name,
			"password": "password1",
		}, "")
		assert.Equal(t, http.StatusOK, login.Code, "login as %q", name)
	}
}
