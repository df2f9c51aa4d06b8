package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/biblio-app/biblio-api/model"
	"github.com/biblio-app/biblio-api/utils/response"
)

// Validate reports whether the presented bearer token would authorize a
// request: signature, expiry, blacklist, account status and token
// version all have to pass.
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	tokenString, ok := bearerFromHeader(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	claims, err := h.jwtManager.Validate(tokenString)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired token")
	}

	revoked, err := h.blacklistService.IsRevoked(c.UserContext(), tokenString)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if revoked {
		return response.Unauthorized(c, "Invalid or expired token")
	}

	var user model.User
	if err := h.db.Where("username = ?", claims.Subject).First(&user).Error; err != nil {
		return response.Unauthorized(c, "Invalid or expired token")
	}
	if !user.IsActive() || user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Invalid or expired token")
	}

	return response.Ack(c, "Token is valid")
}
