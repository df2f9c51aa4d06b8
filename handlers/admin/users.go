package admin

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
	authutil "github.com/biblio-app/biblio-api/utils/auth"
	"github.com/biblio-app/biblio-api/utils/middleware"
	"github.com/biblio-app/biblio-api/utils/response"
	"github.com/biblio-app/biblio-api/utils/validation"
)

// AdminHandler handles admin user-management requests
type AdminHandler struct {
	db               *gorm.DB
	blacklistService *authutil.BlacklistService
	validator        *validation.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{
		db:               db,
		blacklistService: authutil.NewBlacklistService(db),
		validator:        validation.NewValidator(),
	}
}

// audit records an admin action. Audit failures are not surfaced to the
// client; the primary action already succeeded.
func (h *AdminHandler) audit(c *fiber.Ctx, action, resource string, resourceID uint, details interface{}) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		return
	}

	entry := model.AdminAuditLog{
		AdminID:    adminID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}

	h.db.Create(&entry)
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "0"))
	size, _ := strconv.Atoi(c.Query("size", "20"))
	search := c.Query("search", "")
	role := c.Query("role", "")
	status := c.Query("status", "")
	if page < 0 {
		page = 0
	}
	if size < 1 || size > 100 {
		size = 20
	}

	query := h.db.Model(&model.User{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?",
			pattern, pattern, pattern, pattern)
	}
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	if err := query.Order("created_at DESC").Limit(size).Offset(page * size).Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, users, page, size, total)
}

// GetUser handles GET /api/admin/users/:id
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id := c.Params("id")

	var user model.User
	if err := h.db.Preload("Loans").Preload("Reservations").First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	return response.Success(c, user)
}

// UpdateUserRequest represents an admin update to a user account
type UpdateUserRequest struct {
	Role   string `json:"role,omitempty"`
	Status string `json:"status,omitempty"`
}

// UpdateUser handles PUT /api/admin/users/:id. Changing role or status
// bumps the user's token version so existing sessions pick up the change
// immediately rather than at next login.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Role != "" && !model.ValidRole(req.Role) {
		return response.BadRequest(c, "Invalid role")
	}
	if req.Status != "" && !model.ValidStatus(req.Status) {
		return response.BadRequest(c, "Invalid status")
	}

	var user model.User
	if err := h.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	adminID, _ := middleware.GetUserID(c)
	if user.ID == adminID && req.Status != "" && req.Status != model.StatusActive {
		return response.BadRequest(c, "You cannot deactivate your own account")
	}

	changes := map[string]string{}
	if req.Role != "" && req.Role != user.Role {
		changes["role"] = req.Role
		user.Role = req.Role
	}
	if req.Status != "" && req.Status != user.Status {
		changes["status"] = req.Status
		user.Status = req.Status
	}

	if len(changes) == 0 {
		return response.Success(c, user)
	}

	if err := h.db.Save(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update user")
	}

	h.blacklistService.BumpTokenVersion(c.UserContext(), user.ID)

	h.audit(c, "user_update", "users", user.ID, changes)

	return response.Success(c, user)
}

// DeleteUser handles DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")

	var user model.User
	if err := h.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	adminID, _ := middleware.GetUserID(c)
	if user.ID == adminID {
		return response.BadRequest(c, "You cannot delete your own account")
	}

	var activeLoans int64
	if err := h.db.Model(&model.Loan{}).
		Where("user_id = ? AND status = ?", id, model.LoanActive).
		Count(&activeLoans).Error; err != nil {
		return response.InternalServerError(c, "Failed to check user loans")
	}
	if activeLoans > 0 {
		return response.BadRequest(c, "Cannot delete a user with active loans")
	}

	if err := h.db.Delete(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}

	h.audit(c, "user_delete", "users", user.ID, fiber.Map{"username": user.Username})

	return response.Ack(c, "User deleted successfully")
}

// ListAuditLogs handles GET /api/admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "0"))
	size, _ := strconv.Atoi(c.Query("size", "50"))
	if page < 0 {
		page = 0
	}
	if size < 1 || size > 200 {
		size = 50
	}

	query := h.db.Model(&model.AdminAuditLog{})
	if action := c.Query("action", ""); action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit logs")
	}

	var logs []model.AdminAuditLog
	if err := query.Order("created_at DESC").Limit(size).Offset(page * size).Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.Paginated(c, logs, page, size, total)
}
