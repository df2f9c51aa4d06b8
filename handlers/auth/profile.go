package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	authutil "github.com/biblio-app/biblio-api/utils/auth"
	"github.com/biblio-app/biblio-api/utils/middleware"
	"github.com/biblio-app/biblio-api/utils/response"
	"github.com/biblio-app/biblio-api/utils/validation"
)

// ProfileResponse represents the current user's profile
type ProfileResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	return response.Success(c, &ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	})
}

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	FirstName string `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

// UpdateProfile lets the authenticated user change their own details
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.FirstName != "" {
		user.FirstName = validation.SanitizeString(req.FirstName)
	}
	if req.LastName != "" {
		user.LastName = validation.SanitizeString(req.LastName)
	}
	if req.Email != "" && req.Email != user.Email {
		var count int64
		h.db.Model(user).Where("email = ? AND id <> ?", req.Email, user.ID).Count(&count)
		if count > 0 {
			return response.BadRequest(c, "Email is already in use")
		}
		user.Email = req.Email
	}

	if err := h.db.Save(user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.Success(c, &ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	})
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// ChangePassword verifies the current password and stores a new hash.
// All other sessions are ended because the old credentials may be
// compromised.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	if !authutil.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		return response.Unauthorized(c, "Current password is incorrect")
	}

	hash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	user.PasswordHash = hash
	if err := h.db.Save(user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	h.refreshTokens.DeleteByUser(c.UserContext(), user.ID)
	h.blacklistService.BumpTokenVersion(c.UserContext(), user.ID)

	return response.Ack(c, "Password updated successfully")
}
