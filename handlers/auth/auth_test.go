package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
	authutil "github.com/biblio-app/biblio-api/utils/auth"
	"github.com/biblio-app/biblio-api/utils/middleware"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.TokenBlacklist{},
		&model.PasswordResetToken{},
	))

	return db
}

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := initTestDB(t)

	jwtManager := authutil.NewJWTManager(authutil.JWTConfig{
		Secret: "test-signing-secret",
		Expiry: time.Hour,
		Issuer: "biblio-test",
	})

	handler := NewAuthHandler(db, jwtManager, time.Hour, nil)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	app := fiber.New()
	group := app.Group("/api/auth")
	group.Post("/register", handler.Register)
	group.Post("/login", handler.Login)
	group.Post("/refresh", handler.Refresh)
	group.Post("/logout", handler.Logout)
	group.Post("/logout-all", handler.LogoutAll)
	group.Get("/validate", handler.Validate)
	group.Get("/me", authMiddleware.Required(), handler.Me)

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, bearer string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}

	return resp, parsed
}

func registerAlice(t *testing.T, app *fiber.App) map[string]interface{} {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/register", map[string]string{
		"username":  "alice",
		"email":     "alice@example.com",
		"password":  "Secret123",
		"firstName": "Alice",
		"lastName":  "Smith",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body
}

func TestRegister_IssuesSession(t *testing.T) {
	t.Parallel()

	app, db := newTestApp(t)
	body := registerAlice(t, app)

	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refreshToken"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "MEMBER", body["role"])

	var user model.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	assert.Equal(t, model.StatusActive, user.Status)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	t.Parallel()

	app, db := newTestApp(t)
	registerAlice(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/register", map[string]string{
		"username":  "alice",
		"email":     "other@example.com",
		"password":  "Secret123",
		"firstName": "Other",
		"lastName":  "Person",
	}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "false", body["success"])

	var count int64
	require.NoError(t, db.Model(&model.User{}).Where("username = ?", "alice").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)
	registerAlice(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "WrongPass1",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "false", body["success"])
}

func TestLogin_BlockedAccount(t *testing.T) {
	t.Parallel()

	app, db := newTestApp(t)
	registerAlice(t, app)

	require.NoError(t, db.Model(&model.User{}).Where("username = ?", "alice").
		Update("status", model.StatusBlocked).Error)
	// Clear the session issued at registration
	require.NoError(t, db.Where("1 = 1").Delete(&model.RefreshToken{}).Error)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "Secret123",
	}, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// No tokens issued for a blocked account
	var count int64
	require.NoError(t, db.Model(&model.RefreshToken{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestLogin_ReplacesRefreshToken(t *testing.T) {
	t.Parallel()

	app, db := newTestApp(t)
	first := registerAlice(t, app)

	resp, second := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "Secret123",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NotEqual(t, first["refreshToken"], second["refreshToken"])

	var count int64
	require.NoError(t, db.Model(&model.RefreshToken{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRefresh_ReturnsNewBearerSameRefreshToken(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)
	session := registerAlice(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": session["refreshToken"].(string),
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NotEmpty(t, body["token"])
	assert.Equal(t, session["refreshToken"], body["refreshToken"])
	assert.Equal(t, "alice", body["username"])
}

func TestRefresh_ExpiredTokenIsDeleted(t *testing.T) {
	t.Parallel()

	app, db := newTestApp(t)
	session := registerAlice(t, app)
	refreshToken := session["refreshToken"].(string)

	require.NoError(t, db.Model(&model.RefreshToken{}).
		Where("token = ?", refreshToken).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The expired row was deleted, so a retry reports not-found
	var count int64
	require.NoError(t, db.Model(&model.RefreshToken{}).Where("token = ?", refreshToken).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestRefresh_InactiveUserLosesRefreshToken(t *testing.T) {
	t.Parallel()

	app, db := newTestApp(t)
	session := registerAlice(t, app)

	require.NoError(t, db.Model(&model.User{}).Where("username = ?", "alice").
		Update("status", model.StatusInactive).Error)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": session["refreshToken"].(string),
	}, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&model.RefreshToken{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestLogout_BlacklistsBearerToken(t *testing.T) {
	t.Parallel()

	app, db := newTestApp(t)
	session := registerAlice(t, app)
	bearer := session["token"].(string)

	// Token works before logout
	resp, _ := doJSON(t, app, http.MethodGet, "/api/auth/me", nil, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/logout", nil, bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "true", body["success"])

	// Same bearer token is rejected afterwards, well before natural expiry
	resp, _ = doJSON(t, app, http.MethodGet, "/api/auth/me", nil, bearer)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Refresh token is gone too
	var count int64
	require.NoError(t, db.Model(&model.RefreshToken{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestLogoutAll_InvalidatesEverySession(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)
	first := registerAlice(t, app)

	// Second session from another device
	resp, second := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "alice",
		"password": "Secret123",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/logout-all", nil, second["token"].(string))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Both bearer tokens fail now: the presented one is blacklisted and
	// the older one carries a stale token version
	resp, _ = doJSON(t, app, http.MethodGet, "/api/auth/me", nil, second["token"].(string))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/auth/me", nil, first["token"].(string))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestValidate_Endpoint(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)
	session := registerAlice(t, app)
	bearer := session["token"].(string)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/auth/validate", nil, bearer)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/auth/validate", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_RequiresToken(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_MissingAuthorizationHeader(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Missing authorization token", body["error"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/auth/logout-all", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Missing authorization token", body["error"])
}

func TestLogout_GarbageToken(t *testing.T) {
	t.Parallel()

	app, db := newTestApp(t)
	registerAlice(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/logout", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid or expired token", body["error"])

	// The garbage request must not touch alice's session
	var count int64
	require.NoError(t, db.Model(&model.RefreshToken{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRegister_IgnoresRequestedRole(t *testing.T) {
	t.Parallel()

	app, db := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/register", map[string]string{
		"username":  "mallory",
		"email":     "mallory@example.com",
		"password":  "Secret123",
		"firstName": "Mallory",
		"lastName":  "Jones",
		"role":      model.RoleAdmin,
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.RoleMember, body["role"])

	var user model.User
	require.NoError(t, db.Where("username = ?", "mallory").First(&user).Error)
	assert.Equal(t, model.RoleMember, user.Role)
}
