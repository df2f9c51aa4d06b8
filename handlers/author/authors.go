package author

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
	"github.com/biblio-app/biblio-api/utils/response"
	"github.com/biblio-app/biblio-api/utils/validation"
)

// AuthorHandler handles author-related requests
type AuthorHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewAuthorHandler creates a new author handler
func NewAuthorHandler(db *gorm.DB) *AuthorHandler {
	return &AuthorHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// AuthorRequest represents the request body for creating or updating an author
type AuthorRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=255"`
	Biography string `json:"biography" validate:"omitempty,max=5000"`
	BirthDate string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
}

// ListAuthors handles GET /api/authors
func (h *AuthorHandler) ListAuthors(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "0"))
	size, _ := strconv.Atoi(c.Query("size", "20"))
	search := c.Query("search", "")
	if page < 0 {
		page = 0
	}
	if size < 1 || size > 100 {
		size = 20
	}

	query := h.db.Model(&model.Author{})
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count authors")
	}

	var authors []model.Author
	if err := query.Order("name ASC").Limit(size).Offset(page * size).Find(&authors).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch authors")
	}

	return response.Paginated(c, authors, page, size, total)
}

// GetAuthor handles GET /api/authors/:id
func (h *AuthorHandler) GetAuthor(c *fiber.Ctx) error {
	id := c.Params("id")

	var author model.Author
	if err := h.db.Preload("Books").First(&author, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Author not found")
		}
		return response.InternalServerError(c, "Failed to fetch author")
	}

	return response.Success(c, author)
}

// CreateAuthor handles POST /api/authors
func (h *AuthorHandler) CreateAuthor(c *fiber.Ctx) error {
	var req AuthorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var existing model.Author
	if err := h.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return response.Conflict(c, "Author with this name already exists")
	}

	author := model.Author{
		Name:      validation.SanitizeString(req.Name),
		Biography: validation.SanitizeString(req.Biography),
	}
	if req.BirthDate != "" {
		birthDate, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			return response.BadRequest(c, "Invalid birth date")
		}
		author.BirthDate = &birthDate
	}

	if err := h.db.Create(&author).Error; err != nil {
		return response.InternalServerError(c, "Failed to create author")
	}

	return response.Created(c, author)
}

// UpdateAuthor handles PUT /api/authors/:id
func (h *AuthorHandler) UpdateAuthor(c *fiber.Ctx) error {
	id := c.Params("id")

	var req AuthorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var author model.Author
	if err := h.db.First(&author, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Author not found")
		}
		return response.InternalServerError(c, "Failed to fetch author")
	}

	var existing model.Author
	if err := h.db.Where("name = ? AND id != ?", req.Name, id).First(&existing).Error; err == nil {
		return response.Conflict(c, "Author with this name already exists")
	}

	author.Name = validation.SanitizeString(req.Name)
	author.Biography = validation.SanitizeString(req.Biography)
	if req.BirthDate != "" {
		birthDate, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			return response.BadRequest(c, "Invalid birth date")
		}
		author.BirthDate = &birthDate
	}

	if err := h.db.Save(&author).Error; err != nil {
		return response.InternalServerError(c, "Failed to update author")
	}

	return response.Success(c, author)
}

// DeleteAuthor handles DELETE /api/authors/:id
func (h *AuthorHandler) DeleteAuthor(c *fiber.Ctx) error {
	id := c.Params("id")

	var author model.Author
	if err := h.db.First(&author, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Author not found")
		}
		return response.InternalServerError(c, "Failed to fetch author")
	}

	bookCount := h.db.Model(&author).Association("Books").Count()
	if bookCount > 0 {
		return response.BadRequest(c, "Cannot delete an author with books in the catalog")
	}

	if err := h.db.Delete(&author).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete author")
	}

	return response.Ack(c, "Author deleted successfully")
}
