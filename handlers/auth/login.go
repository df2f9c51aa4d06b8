package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/biblio-app/biblio-api/model"
	authutil "github.com/biblio-app/biblio-api/utils/auth"
	"github.com/biblio-app/biblio-api/utils/response"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles user login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return response.BadRequest(c, "Username and password are required")
	}

	ip := c.IP()

	var user model.User
	if err := h.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		// Counted even when the username does not exist
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordFailure(c, ip)
		}
		return response.Unauthorized(c, "Invalid username or password")
	}

	if !authutil.VerifyPassword(req.Password, user.PasswordHash) {
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordFailure(c, ip)
		}
		return response.Unauthorized(c, "Invalid username or password")
	}

	// Correct credentials for a non-active account get a distinct 403,
	// no tokens issued
	switch user.Status {
	case model.StatusActive:
	case model.StatusBlocked:
		return response.Forbidden(c, "Account is blocked. Please contact the library.")
	case model.StatusInactive:
		return response.Forbidden(c, "Account is inactive. Please contact the library.")
	default:
		return response.Forbidden(c, "Account is pending approval.")
	}

	if h.bruteForceProtection != nil {
		h.bruteForceProtection.RecordSuccess(c, ip)
	}

	res, err := h.issueSession(c, &user)
	if err != nil {
		return response.InternalServerError(c, "Failed to create session")
	}

	return response.Success(c, res)
}
