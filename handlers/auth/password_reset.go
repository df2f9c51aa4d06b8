package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/biblio-app/biblio-api/model"
	authutil "github.com/biblio-app/biblio-api/utils/auth"
	"github.com/biblio-app/biblio-api/utils/response"
)

const passwordResetTTL = time.Hour

// ForgotPasswordRequest represents a password reset initiation request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword creates a reset token for the account. The response is
// the same whether or not the email exists so the endpoint cannot be
// used to enumerate accounts. Delivery of the token is out of scope.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err == nil {
		token := &model.PasswordResetToken{
			UserID:    user.ID,
			Token:     uuid.NewString(),
			ExpiresAt: time.Now().Add(passwordResetTTL),
		}
		// Older unused tokens stay valid until they expire
		h.db.Create(token)
	}

	return response.Ack(c, "If that email is registered, a reset link has been sent")
}

// ResetPasswordRequest represents a password reset completion request
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ResetPassword consumes a reset token and stores the new password hash.
// Every existing session for the user is invalidated.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	var reset model.PasswordResetToken
	if err := h.db.Where("token = ?", req.Token).First(&reset).Error; err != nil {
		return response.BadRequest(c, "Invalid or expired reset token")
	}
	if reset.IsExpired() || reset.IsUsed() {
		return response.BadRequest(c, "Invalid or expired reset token")
	}

	hash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.db.Model(&model.User{}).Where("id = ?", reset.UserID).
		UpdateColumn("password_hash", hash).Error; err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	reset.MarkAsUsed()
	h.db.Save(&reset)

	h.refreshTokens.DeleteByUser(c.UserContext(), reset.UserID)
	h.blacklistService.BumpTokenVersion(c.UserContext(), reset.UserID)

	return response.Ack(c, "Password has been reset")
}
