package reservation

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
	"github.com/biblio-app/biblio-api/utils/middleware"
	"github.com/biblio-app/biblio-api/utils/response"
	"github.com/biblio-app/biblio-api/utils/validation"
)

// ReservationHandler handles reservation-related requests
type ReservationHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(db *gorm.DB) *ReservationHandler {
	return &ReservationHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// ReserveRequest represents a reservation request
type ReserveRequest struct {
	BookID uint `json:"bookId" validate:"required,min=1"`
}

// Reserve handles POST /api/reservations. A member may hold one pending
// reservation per book.
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	var req ReserveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var book model.Book
	if err := h.db.First(&book, req.BookID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to fetch book")
	}

	var existing model.Reservation
	if err := h.db.Where("user_id = ? AND book_id = ? AND status = ?",
		user.ID, req.BookID, model.ReservationPending).First(&existing).Error; err == nil {
		return response.Conflict(c, "You already have a pending reservation for this book")
	}

	reservation := model.Reservation{
		UserID: user.ID,
		BookID: req.BookID,
		Status: model.ReservationPending,
	}

	if err := h.db.Create(&reservation).Error; err != nil {
		return response.InternalServerError(c, "Failed to create reservation")
	}

	h.db.Preload("Book").First(&reservation, reservation.ID)

	return response.Created(c, reservation)
}

// Cancel handles DELETE /api/reservations/:id. Members can cancel their
// own reservations; staff can cancel any.
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Missing authorization token")
	}

	id := c.Params("id")

	var reservation model.Reservation
	if err := h.db.First(&reservation, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Reservation not found")
		}
		return response.InternalServerError(c, "Failed to fetch reservation")
	}

	if !user.IsStaff() && reservation.UserID != user.ID {
		return response.Forbidden(c, "Insufficient permissions")
	}

	if reservation.Status != model.ReservationPending && reservation.Status != model.ReservationOnHold {
		return response.BadRequest(c, "Reservation can no longer be cancelled")
	}

	reservation.Status = model.ReservationCancelled
	if err := h.db.Save(&reservation).Error; err != nil {
		return response.InternalServerError(c, "Failed to cancel reservation")
	}

	return response.Ack(c, "Reservation cancelled")
}

// ListReservations handles GET /api/reservations. Staff see all;
// members see their own.
func (h *ReservationHandler) ListReservations(c *fiber.Ctx) error {
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

	query := h.db.Model(&model.Reservation{})
	if !user.IsStaff() {
		query = query.Where("user_id = ?", user.ID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count reservations")
	}

	var reservations []model.Reservation
	if err := query.Preload("Book").
		Order("reservation_date DESC").
		Limit(size).
		Offset(page * size).
		Find(&reservations).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch reservations")
	}

	return response.Paginated(c, reservations, page, size, total)
}
