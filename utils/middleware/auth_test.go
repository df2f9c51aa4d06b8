package middleware

import (
	"context"
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
)

func newAuthTestApp(t *testing.T) (*fiber.App, *gorm.DB, *authutil.JWTManager, *bool) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.TokenBlacklist{},
	))

	jwtManager := authutil.NewJWTManager(authutil.JWTConfig{
		Secret: "test-signing-secret",
		Expiry: time.Hour,
		Issuer: "biblio-test",
	})

	m := NewAuthMiddleware(jwtManager, db)

	reached := false
	mark := func(c *fiber.Ctx) error {
		reached = true
		return c.SendStatus(fiber.StatusOK)
	}

	app := fiber.New()
	app.Get("/protected", m.Required(), mark)
	app.Get("/staff", m.RequireStaff(), mark)
	app.Get("/admin", m.RequireAdmin(), mark)

	return app, db, jwtManager, &reached
}

func createUser(t *testing.T, db *gorm.DB, username, role string) *model.User {
	t.Helper()

	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "irrelevant",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		Status:       model.StatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func get(t *testing.T, app *fiber.App, path, bearer string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRequired_RejectsMissingToken(t *testing.T) {
	t.Parallel()

	app, _, _, reached := newAuthTestApp(t)

	resp := get(t, app, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, *reached)
}

func TestRequired_RejectsGarbageToken(t *testing.T) {
	t.Parallel()

	app, _, _, reached := newAuthTestApp(t)

	resp := get(t, app, "/protected", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, *reached)
}

func TestRequired_AllowsValidToken(t *testing.T) {
	t.Parallel()

	app, db, jwtManager, reached := newAuthTestApp(t)
	user := createUser(t, db, "bob", model.RoleMember)

	token, err := jwtManager.Generate(user.Username, user.TokenVersion)
	require.NoError(t, err)

	resp := get(t, app, "/protected", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, *reached)
}

func TestRequireStaff_RejectsGarbageToken(t *testing.T) {
	t.Parallel()

	app, _, _, reached := newAuthTestApp(t)

	resp := get(t, app, "/staff", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, *reached)
}

func TestRequireStaff_RejectsMemberRole(t *testing.T) {
	t.Parallel()

	app, db, jwtManager, reached := newAuthTestApp(t)
	user := createUser(t, db, "carol", model.RoleMember)

	token, err := jwtManager.Generate(user.Username, user.TokenVersion)
	require.NoError(t, err)

	resp := get(t, app, "/staff", token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, *reached)
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	t.Parallel()

	app, db, jwtManager, reached := newAuthTestApp(t)
	user := createUser(t, db, "root", model.RoleAdmin)

	token, err := jwtManager.Generate(user.Username, user.TokenVersion)
	require.NoError(t, err)

	resp := get(t, app, "/admin", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, *reached)
}

func TestRequired_RejectsStaleTokenVersion(t *testing.T) {
	t.Parallel()

	app, db, jwtManager, reached := newAuthTestApp(t)
	user := createUser(t, db, "dave", model.RoleMember)

	token, err := jwtManager.Generate(user.Username, user.TokenVersion)
	require.NoError(t, err)

	require.NoError(t, authutil.NewBlacklistService(db).BumpTokenVersion(context.Background(), user.ID))

	resp := get(t, app, "/protected", token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, *reached)
}
