package category

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/model"
	"github.com/biblio-app/biblio-api/utils/response"
	"github.com/biblio-app/biblio-api/utils/validation"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CategoryRequest represents the request body for creating or updating a category
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

// ListCategories handles GET /api/categories
func (h *CategoryHandler) ListCategories(c *fiber.Ctx) error {
	var categories []model.Category
	if err := h.db.Order("name ASC").Find(&categories).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch categories")
	}

	return response.Success(c, categories)
}

// GetCategory handles GET /api/categories/:id
func (h *CategoryHandler) GetCategory(c *fiber.Ctx) error {
	id := c.Params("id")

	var category model.Category
	if err := h.db.Preload("Books").First(&category, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to fetch category")
	}

	return response.Success(c, category)
}

// CreateCategory handles POST /api/categories
func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var existing model.Category
	if err := h.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return response.Conflict(c, "Category with this name already exists")
	}

	category := model.Category{
		Name:        validation.SanitizeString(req.Name),
		Description: validation.SanitizeString(req.Description),
	}

	if err := h.db.Create(&category).Error; err != nil {
		return response.InternalServerError(c, "Failed to create category")
	}

	return response.Created(c, category)
}

// UpdateCategory handles PUT /api/categories/:id
func (h *CategoryHandler) UpdateCategory(c *fiber.Ctx) error {
	id := c.Params("id")

	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var category model.Category
	if err := h.db.First(&category, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to fetch category")
	}

	var existing model.Category
	if err := h.db.Where("name = ? AND id != ?", req.Name, id).First(&existing).Error; err == nil {
		return response.Conflict(c, "Category with this name already exists")
	}

	category.Name = validation.SanitizeString(req.Name)
	category.Description = validation.SanitizeString(req.Description)

	if err := h.db.Save(&category).Error; err != nil {
		return response.InternalServerError(c, "Failed to update category")
	}

	return response.Success(c, category)
}

// DeleteCategory handles DELETE /api/categories/:id
func (h *CategoryHandler) DeleteCategory(c *fiber.Ctx) error {
	id := c.Params("id")

	var category model.Category
	if err := h.db.First(&category, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to fetch category")
	}

	var bookCount int64
	if err := h.db.Model(&model.Book{}).Where("category_id = ?", id).Count(&bookCount).Error; err != nil {
		return response.InternalServerError(c, "Failed to check category dependencies")
	}
	if bookCount > 0 {
		return response.BadRequest(c, "Cannot delete a category that still has books")
	}

	if err := h.db.Delete(&category).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete category")
	}

	return response.Ack(c, "Category deleted successfully")
}
