package fine

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

// FineHandler handles fine-related requests
type FineHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewFineHandler creates a new fine handler
func NewFineHandler(db *gorm.DB) *FineHandler {
	return &FineHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// IssueFineRequest represents a staff-issued fine
type IssueFineRequest struct {
	LoanID uint    `json:"loanId" validate:"required,min=1"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Reason string  `json:"reason" validate:"required,min=1,max=500"`
}

// Issue handles POST /api/fines. Staff only.
func (h *FineHandler) Issue(c *fiber.Ctx) error {
	var req IssueFineRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var loan model.Loan
	if err := h.db.First(&loan, req.LoanID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to fetch loan")
	}

	fine := model.Fine{
		LoanID: req.LoanID,
		Amount: req.Amount,
		Reason: validation.SanitizeString(req.Reason),
		Status: model.FinePending,
	}

	if err := h.db.Create(&fine).Error; err != nil {
		return response.InternalServerError(c, "Failed to create fine")
	}

	return response.Created(c, fine)
}

// PayRequest represents a payment against a fine
type PayRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Type   string  `json:"type" validate:"omitempty,oneof=CASH CARD ONLINE"`
}

// Pay handles POST /api/fines/:id/pay. Staff record payments; partial
// payments are allowed and tracked per fine.
func (h *FineHandler) Pay(c *fiber.Ctx) error {
	id := c.Params("id")

	var req PayRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	paymentType := req.Type
	if paymentType == "" {
		paymentType = model.PaymentCash
	}

	var fine model.Fine
	if err := h.db.First(&fine, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Fine not found")
		}
		return response.InternalServerError(c, "Failed to fetch fine")
	}

	if fine.Status == model.FinePaid || fine.Status == model.FineWaived || fine.Status == model.FineCancelled {
		return response.BadRequest(c, "Fine is already settled")
	}

	remaining := fine.Amount - fine.AmountPaid
	if req.Amount > remaining {
		return response.BadRequest(c, "Payment exceeds the outstanding amount")
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		payment := model.Payment{
			FineID: fine.ID,
			Amount: req.Amount,
			Type:   paymentType,
			PaidAt: time.Now(),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		fine.AmountPaid += req.Amount
		if fine.AmountPaid >= fine.Amount {
			fine.Status = model.FinePaid
		} else {
			fine.Status = model.FinePartiallyPaid
		}
		return tx.Save(&fine).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to record payment")
	}

	h.db.Preload("Payments").First(&fine, fine.ID)

	return response.Success(c, fine)
}

// Waive handles POST /api/fines/:id/waive. Staff only.
func (h *FineHandler) Waive(c *fiber.Ctx) error {
	id := c.Params("id")

	var fine model.Fine
	if err := h.db.First(&fine, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Fine not found")
		}
		return response.InternalServerError(c, "Failed to fetch fine")
	}

	if fine.Status == model.FinePaid || fine.Status == model.FineWaived || fine.Status == model.FineCancelled {
		return response.BadRequest(c, "Fine is already settled")
	}

	fine.Status = model.FineWaived
	if err := h.db.Save(&fine).Error; err != nil {
		return response.InternalServerError(c, "Failed to waive fine")
	}

	return response.Success(c, fine)
}

// ListFines handles GET /api/fines. Staff see all fines; members see
// fines on their own loans.
func (h *FineHandler) ListFines(c *fiber.Ctx) error {
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

	query := h.db.Model(&model.Fine{}).
		Joins("JOIN loans ON loans.id = fines.loan_id")
	if !user.IsStaff() {
		query = query.Where("loans.user_id = ?", user.ID)
	}
	if status != "" {
		query = query.Where("fines.status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count fines")
	}

	var fines []model.Fine
	if err := query.Preload("Loan").Preload("Loan.Book").Preload("Payments").
		Order("fines.issued_at DESC").
		Limit(size).
		Offset(page * size).
		Find(&fines).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch fines")
	}

	return response.Paginated(c, fines, page, size, total)
}
