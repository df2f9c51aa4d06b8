package book

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
	"github.com/biblio-app/biblio-api/services/storage"
	"github.com/biblio-app/biblio-api/utils/response"
	"github.com/biblio-app/biblio-api/utils/validation"
)

// BookHandler handles book-related requests
type BookHandler struct {
	db        *gorm.DB
	covers    *storage.SpacesService
	validator *validation.Validator
}

// NewBookHandler creates a new book handler. covers may be nil when no
// object storage is configured; cover upload then returns an error.
func NewBookHandler(db *gorm.DB, covers *storage.SpacesService) *BookHandler {
	return &BookHandler{
		db:        db,
		covers:    covers,
		validator: validation.NewValidator(),
	}
}

// CreateBookRequest represents the request body for creating a book
type CreateBookRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=255"`
	Summary         string `json:"summary" validate:"omitempty,max=2000"`
	ISBN            string `json:"isbn" validate:"required"`
	CategoryID      uint   `json:"categoryId" validate:"required,min=1"`
	AuthorIDs       []uint `json:"authorIds" validate:"required,min=1"`
	PublicationYear int    `json:"publicationYear" validate:"omitempty,min=0,max=2100"`
	Edition         string `json:"edition" validate:"omitempty,max=50"`
	Publisher       string `json:"publisher" validate:"omitempty,max=255"`
	TotalCopies     int    `json:"totalCopies" validate:"required,min=1"`
}

// UpdateBookRequest represents the request body for updating a book
type UpdateBookRequest struct {
	Title           string `json:"title" validate:"omitempty,min=1,max=255"`
	Summary         string `json:"summary" validate:"omitempty,max=2000"`
	CategoryID      *uint  `json:"categoryId" validate:"omitempty,min=1"`
	AuthorIDs       []uint `json:"authorIds" validate:"omitempty,min=1"`
	PublicationYear *int   `json:"publicationYear" validate:"omitempty,min=0,max=2100"`
	Edition         string `json:"edition" validate:"omitempty,max=50"`
	Publisher       string `json:"publisher" validate:"omitempty,max=255"`
	TotalCopies     *int   `json:"totalCopies" validate:"omitempty,min=1"`
}

// ListBooks handles GET /api/books
func (h *BookHandler) ListBooks(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "0"))
	size, _ := strconv.Atoi(c.Query("size", "10"))
	search := c.Query("search", "")
	categoryID := c.Query("categoryId", "")
	if page < 0 {
		page = 0
	}
	if size < 1 || size > 100 {
		size = 10
	}

	query := h.db.Model(&model.Book{})

	if search != "" {
		pattern := "%" + search + "%"
		query = query.
			Joins("LEFT JOIN book_authors ON book_authors.book_id = books.id").
			Joins("LEFT JOIN authors ON authors.id = book_authors.author_id").
			Where("books.title ILIKE ? OR books.isbn ILIKE ? OR authors.name ILIKE ?", pattern, pattern, pattern).
			Distinct("books.*")
	}

	if categoryID != "" {
		query = query.Where("books.category_id = ?", categoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count books")
	}

	var books []model.Book
	if err := query.Preload("Category").Preload("Authors").
		Order("books.title ASC").
		Limit(size).
		Offset(page * size).
		Find(&books).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch books")
	}

	return response.Paginated(c, books, page, size, total)
}

// GetBook handles GET /api/books/:id
func (h *BookHandler) GetBook(c *fiber.Ctx) error {
	id := c.Params("id")

	var book model.Book
	if err := h.db.Preload("Category").Preload("Authors").First(&book, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to fetch book")
	}

	return response.Success(c, book)
}

// loadAuthors resolves author IDs, failing if any is unknown
func (h *BookHandler) loadAuthors(ids []uint) ([]model.Author, error) {
	var authors []model.Author
	if err := h.db.Find(&authors, ids).Error; err != nil {
		return nil, err
	}
	if len(authors) != len(ids) {
		return nil, gorm.ErrRecordNotFound
	}
	return authors, nil
}

// CreateBook handles POST /api/books
func (h *BookHandler) CreateBook(c *fiber.Ctx) error {
	var req CreateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if !validation.ValidateISBN(req.ISBN) {
		return response.BadRequest(c, "Invalid ISBN")
	}

	var category model.Category
	if err := h.db.First(&category, req.CategoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to verify category")
	}

	authors, err := h.loadAuthors(req.AuthorIDs)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "One or more authors not found")
		}
		return response.InternalServerError(c, "Failed to verify authors")
	}

	var existing model.Book
	if err := h.db.Where("isbn = ?", req.ISBN).First(&existing).Error; err == nil {
		return response.Conflict(c, "Book with this ISBN already exists")
	}

	book := model.Book{
		Title:           validation.SanitizeString(req.Title),
		Summary:         validation.SanitizeString(req.Summary),
		ISBN:            req.ISBN,
		CategoryID:      req.CategoryID,
		PublicationYear: req.PublicationYear,
		Edition:         validation.SanitizeString(req.Edition),
		Publisher:       validation.SanitizeString(req.Publisher),
		TotalCopies:     req.TotalCopies,
		Authors:         authors,
	}

	if err := h.db.Create(&book).Error; err != nil {
		return response.InternalServerError(c, "Failed to create book")
	}

	h.db.Preload("Category").Preload("Authors").First(&book, book.ID)

	return response.Created(c, book)
}

// UpdateBook handles PUT /api/books/:id
func (h *BookHandler) UpdateBook(c *fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var book model.Book
	if err := h.db.First(&book, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to fetch book")
	}

	if req.Title != "" {
		book.Title = validation.SanitizeString(req.Title)
	}
	if req.Summary != "" {
		book.Summary = validation.SanitizeString(req.Summary)
	}
	if req.CategoryID != nil {
		var category model.Category
		if err := h.db.First(&category, *req.CategoryID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.NotFound(c, "Category not found")
			}
			return response.InternalServerError(c, "Failed to verify category")
		}
		book.CategoryID = *req.CategoryID
	}
	if req.PublicationYear != nil {
		book.PublicationYear = *req.PublicationYear
	}
	if req.Edition != "" {
		book.Edition = validation.SanitizeString(req.Edition)
	}
	if req.Publisher != "" {
		book.Publisher = validation.SanitizeString(req.Publisher)
	}
	if req.TotalCopies != nil {
		// Copies out on loan stay out; available adjusts by the delta
		delta := *req.TotalCopies - book.TotalCopies
		if book.AvailableCopies+delta < 0 {
			return response.BadRequest(c, "Cannot reduce copies below the number currently on loan")
		}
		book.TotalCopies = *req.TotalCopies
		book.AvailableCopies += delta
	}

	if err := h.db.Save(&book).Error; err != nil {
		return response.InternalServerError(c, "Failed to update book")
	}

	if len(req.AuthorIDs) > 0 {
		authors, err := h.loadAuthors(req.AuthorIDs)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.NotFound(c, "One or more authors not found")
			}
			return response.InternalServerError(c, "Failed to verify authors")
		}
		if err := h.db.Model(&book).Association("Authors").Replace(authors); err != nil {
			return response.InternalServerError(c, "Failed to update authors")
		}
	}

	h.db.Preload("Category").Preload("Authors").First(&book, book.ID)

	return response.Success(c, book)
}

// DeleteBook handles DELETE /api/books/:id
func (h *BookHandler) DeleteBook(c *fiber.Ctx) error {
	id := c.Params("id")

	var book model.Book
	if err := h.db.First(&book, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to fetch book")
	}

	var activeLoans int64
	if err := h.db.Model(&model.Loan{}).
		Where("book_id = ? AND status = ?", id, model.LoanActive).
		Count(&activeLoans).Error; err != nil {
		return response.InternalServerError(c, "Failed to check book loans")
	}
	if activeLoans > 0 {
		return response.BadRequest(c, "Cannot delete a book with active loans")
	}

	if err := h.db.Delete(&book).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete book")
	}

	return response.Ack(c, "Book deleted successfully")
}

// UploadCover handles POST /api/books/:id/cover
func (h *BookHandler) UploadCover(c *fiber.Ctx) error {
	id := c.Params("id")

	var book model.Book
	if err := h.db.First(&book, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to fetch book")
	}

	if h.covers == nil {
		return response.InternalServerError(c, "Cover storage is not configured")
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		return response.BadRequest(c, "Cover image file is required")
	}

	url, err := h.covers.UploadCover(c.UserContext(), book.ID, fileHeader)
	if err != nil {
		if err == storage.ErrUnsupportedImageType {
			return response.BadRequest(c, "Cover must be a JPEG, PNG or WebP image")
		}
		return response.InternalServerError(c, "Failed to upload cover image")
	}

	book.CoverImageURL = url
	if err := h.db.Save(&book).Error; err != nil {
		return response.InternalServerError(c, "Failed to save cover URL")
	}

	return response.Success(c, book)
}
