package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadlift_backend/internal/auth/access"
	"leadlift_backend/internal/auth/password"
	"leadlift_backend/internal/auth/repository"
	"leadlift_backend/internal/auth/service"
	authvalidator "leadlift_backend/internal/auth/validator"
	"leadlift_backend/platform/httpkit"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-secret"

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string       { return testSecret }
func (testConfig) GetAccessTokenTTL() time.Duration { return 15 * time.Minute }

// singleUserRepo holds one account; writes other than last login are rejected.
type singleUserRepo struct {
	repository.UserRepository
	user repository.User
}

func (r *singleUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	if id != r.user.ID {
		return repository.User{}, repository.ErrNotFound
	}
	return r.user, nil
}

func (r *singleUserRepo) GetUserByLogin(_ context.Context, login string) (repository.User, error) {
	if login != r.user.Username {
		return repository.User{}, repository.ErrNotFound
	}
	return r.user, nil
}

func (r *singleUserRepo) TouchLastLogin(_ context.Context, _ uuid.UUID, at time.Time) error {
	r.user.LastLogin = &at
	return nil
}

func newRouter(t *testing.T) (*gin.Engine, repository.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := password.Hash("Secret123")
	require.NoError(t, err)
	user := repository.User{
		ID:           uuid.New(),
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: hash,
		FirstName:    "Admin",
		LastName:     "User",
		Role:         access.RoleAdmin,
		IsActive:     true,
	}

	val := validator.New()
	require.NoError(t, authvalidator.Register(val))

	log := logger.NewWithWriter("production", &bytes.Buffer{})
	h := New(service.New(&singleUserRepo{user: user}, testConfig{}, nil, nil, log), val)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", h.Login)
	v1.POST("/auth/logout", h.Logout)

	protected := v1.Group("", httpkit.AuthRequired(testConfig{}))
	protected.GET("/auth/me", h.Me)
	protected.POST("/users", access.Require(access.CreateUsers), h.CreateUser)
	protected.GET("/users/:id", h.GetUser)
	protected.GET("/admin/permissions", access.Require(access.ManageSettings), h.Permissions)
	return r, user
}

func doJSON(r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"Secret123"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Bearer", res.TokenType)
	return res.AccessToken
}

func TestLoginThenMe(t *testing.T) {
	r, user := newRouter(t)
	token := login(t, r)

	w := doJSON(r, http.MethodGet, "/api/v1/auth/me", "", token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), user.ID.String())
	assert.Contains(t, w.Body.String(), `"manage_settings"`)
}

func TestLoginValidation(t *testing.T) {
	r, _ := newRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", `{"username":"admin"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"password":"required"`)

	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, w.Body.String())
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	r, _ := newRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMeRequiresToken(t *testing.T) {
	r, _ := newRouter(t)

	w := doJSON(r, http.MethodGet, "/api/v1/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateUserRejectsWeakPassword(t *testing.T) {
	r, _ := newRouter(t)
	token := login(t, r)

	body := `{"username":"newbie","email":"new@example.com","password":"weak","first_name":"New","last_name":"User"}`
	w := doJSON(r, http.MethodPost, "/api/v1/users", body, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"password":"strongpassword"`)
}

func TestGetUserRejectsMalformedID(t *testing.T) {
	r, _ := newRouter(t)
	token := login(t, r)

	w := doJSON(r, http.MethodGet, "/api/v1/users/not-a-uuid", "", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid user ID")
}

func TestPermissionsForAdmin(t *testing.T) {
	r, _ := newRouter(t)
	token := login(t, r)

	w := doJSON(r, http.MethodGet, "/api/v1/admin/permissions", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Roles map[string][]string `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res.Roles[access.RoleUser], string(access.ViewAnalytics))
}
