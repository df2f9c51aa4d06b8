package loan

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
	"github.com/biblio-app/biblio-api/utils/middleware"
	"github.com/biblio-app/biblio-api/utils/response"
	"github.com/biblio-app/biblio-api/utils/validation"
)

// LoanHandler handles loan-related requests
type LoanHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(db *gorm.DB) *LoanHandler {
	return &LoanHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CheckoutRequest represents a book checkout request
type CheckoutRequest struct {
	UserID uint   `json:"userId" validate:"required,min=1"`
	BookID uint   `json:"bookId" validate:"required,min=1"`
	Days   int    `json:"days" validate:"omitempty,min=1,max=90"`
	Notes  string `json:"notes" validate:"omitempty,max=500"`
}

// Checkout handles POST /api/loans. Staff only. Decrementing the
// available-copy count and creating the loan run in one transaction so
// two concurrent checkouts cannot both take the last copy.
func (h *LoanHandler) Checkout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	days := req.Days
	if days == 0 {
		days = model.DefaultLoanDays
	}

	var borrower model.User
	if err := h.db.First(&borrower, req.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}
	if !borrower.IsActive() {
		return response.BadRequest(c, "Cannot lend to a non-active account")
	}

	var loan model.Loan
	err := h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Book{}).
			Where("id = ? AND available_copies > 0", req.BookID).
			UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		now := time.Now()
		loan = model.Loan{
			UserID:   req.UserID,
			BookID:   req.BookID,
			LoanDate: now,
			DueDate:  now.AddDate(0, 0, days),
			Status:   model.LoanActive,
			Notes:    validation.SanitizeString(req.Notes),
		}
		return tx.Create(&loan).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.BadRequest(c, "No copies of this book are available")
		}
		return response.InternalServerError(c, "Failed to create loan")
	}

	h.db.Preload("Book").Preload("User").First(&loan, loan.ID)

	return response.Created(c, loan)
}

// Return handles POST /api/loans/:id/return. Staff only.
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	id := c.Params("id")

	var loan model.Loan
	if err := h.db.First(&loan, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to fetch loan")
	}

	if loan.Status == model.LoanReturned {
		return response.BadRequest(c, "Loan has already been returned")
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		loan.ReturnDate = &now
		loan.Status = model.LoanReturned
		if err := tx.Save(&loan).Error; err != nil {
			return err
		}

		return tx.Model(&model.Book{}).
			Where("id = ? AND available_copies < total_copies", loan.BookID).
			UpdateColumn("available_copies", gorm.Expr("available_copies + 1")).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to return loan")
	}

	h.db.Preload("Book").Preload("User").First(&loan, loan.ID)

	return response.Success(c, loan)
}

// ListLoans handles GET /api/loans. Staff see every loan; members see
// only their own.
func (h *LoanHandler) ListLoans(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	page, _ := strconv.Atoi(c.Query("page", "0"))
	size, _ := strconv.Atoi(c.Query("size", "20"))
	status := c.Query("status", "")
	if page < 0 {
		page = 0
	}
	if size < 1 || size > 100 {
		size = 20
	}

	query := h.db.Model(&model.Loan{})
	if !user.IsStaff() {
		query = query.Where("user_id = ?", user.ID)
	} else if userID := c.Query("userId", ""); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count loans")
	}

	var loans []model.Loan
	if err := query.Preload("Book").
		Order("loan_date DESC").
		Limit(size).
		Offset(page * size).
		Find(&loans).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch loans")
	}

	return response.Paginated(c, loans, page, size, total)
}

// GetLoan handles GET /api/loans/:id
func (h *LoanHandler) GetLoan(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	id := c.Params("id")

	var loan model.Loan
	if err := h.db.Preload("Book").Preload("Fines").First(&loan, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to fetch loan")
	}

	if !user.IsStaff() && loan.UserID != user.ID {
		return response.Forbidden(c, "Insufficient permissions")
	}

	return response.Success(c, loan)
}
