package auth

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
	authutil "github.com/biblio-app/biblio-api/utils/auth"
	"github.com/biblio-app/biblio-api/utils/middleware"
	"github.com/biblio-app/biblio-api/utils/response"
	"github.com/biblio-app/biblio-api/utils/validation"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	refreshTokens        *authutil.RefreshTokenService
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, refreshTTL time.Duration, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		refreshTokens:        authutil.NewRefreshTokenService(db, refreshTTL),
		blacklistService:     authutil.NewBlacklistService(db),
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string `json:"lastName" validate:"required,min=1,max=100"`
}

// SessionResponse is the body returned by login, register and refresh
type SessionResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
}

// issueSession creates the refresh token row and signs a bearer token
// for an already-authenticated user. Callers map a non-nil error to a
// 500 response; nothing is written here.
func (h *AuthHandler) issueSession(c *fiber.Ctx, user *model.User) (*SessionResponse, error) {
	token, err := h.jwtManager.Generate(user.Username, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	refreshToken, err := h.refreshTokens.Create(c.UserContext(), user.ID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	return &SessionResponse{
		Token:        token,
		RefreshToken: refreshToken.Token,
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
	}, nil
}

// Register handles user registration. A successful registration behaves
// like a login: the new user gets a session straight away.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	if err := authutil.IsPasswordValid(req.Password); err != nil {
		return response.BadRequest(c, err.Error())
	}

	var existing model.User
	if err := h.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return response.Conflict(c, "Username is already taken")
	}
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return response.Conflict(c, "Email is already in use")
	}

	hashedPassword, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	user := model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		FirstName:    validation.SanitizeString(req.FirstName),
		LastName:     validation.SanitizeString(req.LastName),
		Role:         model.RoleMember,
		Status:       model.StatusActive,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to create user")
	}

	res, err := h.issueSession(c, &user)
	if err != nil {
		return response.InternalServerError(c, "Failed to create session")
	}

	return response.Success(c, res)
}
