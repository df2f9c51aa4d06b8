package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
	"github.com/biblio-app/biblio-api/utils/auth"
	"github.com/biblio-app/biblio-api/utils/response"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		db:               db,
	}
}

// authError carries the status and message the wrapper should reply with.
// Only the wrapping handler writes to the response.
type authError struct {
	status  int
	message string
}

func (e *authError) Error() string {
	return e.message
}

// authenticate runs the full bearer-token check and loads the user into
// the request context. Every token failure past the header parse returns
// the same message so callers cannot probe for the reason.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*model.User, *authError) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, &authError{fiber.StatusUnauthorized, "Missing authorization token"}
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, &authError{fiber.StatusUnauthorized, "Invalid authorization format"}
	}

	tokenString := parts[1]

	claims, err := m.jwtManager.Validate(tokenString)
	if err != nil {
		return nil, &authError{fiber.StatusUnauthorized, "Invalid or expired token"}
	}

	// Revocation list is keyed by the raw token string
	isRevoked, err := m.blacklistService.IsRevoked(c.UserContext(), tokenString)
	if err != nil {
		return nil, &authError{fiber.StatusInternalServerError, "Failed to check token status"}
	}
	if isRevoked {
		return nil, &authError{fiber.StatusUnauthorized, "Invalid or expired token"}
	}

	var user model.User
	if err := m.db.Where("username = ?", claims.Subject).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &authError{fiber.StatusUnauthorized, "Invalid or expired token"}
		}
		return nil, &authError{fiber.StatusInternalServerError, "Failed to load user"}
	}

	if !user.IsActive() {
		return nil, &authError{fiber.StatusForbidden, "Account is not active"}
	}

	// A version bump invalidates every token issued before it
	if user.TokenVersion != claims.TokenVersion {
		return nil, &authError{fiber.StatusUnauthorized, "Invalid or expired token"}
	}

	c.Locals("user_id", user.ID)
	c.Locals("username", user.Username)
	c.Locals("user_role", user.Role)
	c.Locals("user", &user)
	c.Locals("bearer_token", tokenString)

	return &user, nil
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, authErr := m.authenticate(c); authErr != nil {
			return response.Error(c, authErr.status, authErr.message)
		}
		return c.Next()
	}
}

// RequireRole is middleware that requires one of the given user roles
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, authErr := m.authenticate(c)
		if authErr != nil {
			return response.Error(c, authErr.status, authErr.message)
		}

		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// RequireStaff requires the librarian or admin role
func (m *AuthMiddleware) RequireStaff() fiber.Handler {
	return m.RequireRole(model.RoleAdmin, model.RoleLibrarian)
}

// RequireAdmin requires the admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return m.RequireRole(model.RoleAdmin)
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUsername extracts the username from context
func GetUsername(c *fiber.Ctx) (string, bool) {
	username := c.Locals("username")
	if username == nil {
		return "", false
	}
	u, ok := username.(string)
	return u, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	role := c.Locals("user_role")
	if role == nil {
		return "", false
	}
	r, ok := role.(string)
	return r, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user := c.Locals("user")
	if user == nil {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetBearerToken extracts the raw bearer token from context
func GetBearerToken(c *fiber.Ctx) (string, bool) {
	token := c.Locals("bearer_token")
	if token == nil {
		return "", false
	}
	t, ok := token.(string)
	return t, ok
}
