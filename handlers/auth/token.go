package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/biblio-app/biblio-api/model"
	authutil "github.com/biblio-app/biblio-api/utils/auth"
	"github.com/biblio-app/biblio-api/utils/response"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Refresh exchanges a live refresh token for a new bearer token. The
// refresh token itself is returned unchanged; it is replaced only by a
// fresh login.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	rt, err := h.refreshTokens.FindByToken(c.UserContext(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, authutil.ErrRefreshTokenNotFound) {
			return response.Unauthorized(c, "Refresh token not found")
		}
		return response.InternalServerError(c, "Failed to look up refresh token")
	}

	if _, err := h.refreshTokens.VerifyExpiration(c.UserContext(), rt); err != nil {
		if errors.Is(err, authutil.ErrRefreshTokenExpired) {
			return response.Unauthorized(c, "Refresh token expired, please sign in again")
		}
		return response.InternalServerError(c, "Failed to verify refresh token")
	}

	var user model.User
	if err := h.db.First(&user, rt.UserID).Error; err != nil {
		return response.Unauthorized(c, "Refresh token not found")
	}

	// A deactivated account loses its refresh token on the spot
	if !user.IsActive() {
		h.refreshTokens.DeleteByUser(c.UserContext(), user.ID)
		return response.Forbidden(c, "Account is not active")
	}

	token, err := h.jwtManager.Generate(user.Username, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate token")
	}

	return response.Success(c, &SessionResponse{
		Token:        token,
		RefreshToken: rt.Token,
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
	})
}

// bearerFromHeader pulls the raw token out of the Authorization header
func bearerFromHeader(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

var (
	errMissingBearer = errors.New("missing authorization token")
	errInvalidBearer = errors.New("invalid bearer token")
)

// resolveLogoutUser maps the presented bearer token to its user. The
// signature must check out but an expired token is still accepted, so a
// client can always log out of a stale session. Callers translate the
// sentinel errors into the 401 response.
func (h *AuthHandler) resolveLogoutUser(c *fiber.Ctx) (string, *model.User, error) {
	tokenString, ok := bearerFromHeader(c)
	if !ok {
		return "", nil, errMissingBearer
	}

	username, err := h.jwtManager.Subject(tokenString)
	if err != nil {
		return "", nil, errInvalidBearer
	}

	var user model.User
	if err := h.db.Where("username = ?", username).First(&user).Error; err != nil {
		return "", nil, errInvalidBearer
	}

	return tokenString, &user, nil
}

func logoutAuthError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errMissingBearer) {
		return response.Unauthorized(c, "Missing authorization token")
	}
	return response.Unauthorized(c, "Invalid or expired token")
}

// Logout blacklists the presented bearer token and deletes the user's
// refresh token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tokenString, user, err := h.resolveLogoutUser(c)
	if err != nil {
		return logoutAuthError(c, err)
	}

	expiresAt, err := h.jwtManager.Expiry(tokenString)
	if err != nil {
		expiresAt = time.Now().Add(24 * time.Hour)
	}

	if err := h.blacklistService.Revoke(c.UserContext(), tokenString, user.ID, expiresAt, "logout"); err != nil {
		return response.InternalServerError(c, "Failed to revoke token")
	}

	if err := h.refreshTokens.DeleteByUser(c.UserContext(), user.ID); err != nil {
		return response.InternalServerError(c, "Failed to delete refresh token")
	}

	return response.Ack(c, "Logged out successfully")
}

// LogoutAll ends every session for the user: the presented token is
// blacklisted, the refresh token deleted, and the user's token version
// bumped so all other outstanding bearer tokens fail validation.
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	tokenString, user, err := h.resolveLogoutUser(c)
	if err != nil {
		return logoutAuthError(c, err)
	}

	expiresAt, expErr := h.jwtManager.Expiry(tokenString)
	if expErr != nil {
		expiresAt = time.Now().Add(24 * time.Hour)
	}

	if err := h.blacklistService.Revoke(c.UserContext(), tokenString, user.ID, expiresAt, "logout_all"); err != nil {
		return response.InternalServerError(c, "Failed to revoke token")
	}

	if err := h.refreshTokens.DeleteByUser(c.UserContext(), user.ID); err != nil {
		return response.InternalServerError(c, "Failed to delete refresh token")
	}

	if err := h.blacklistService.BumpTokenVersion(c.UserContext(), user.ID); err != nil {
		return response.InternalServerError(c, "Failed to invalidate sessions")
	}

	return response.Ack(c, "Logged out from all devices")
}
