package response

import (
	"math"

	"github.com/gofiber/fiber/v2"
)

// ErrorBody is the uniform error payload: {"error": ..., "success": "false"}.
// The success field is a string for compatibility with existing clients.
type ErrorBody struct {
	Error   string `json:"error"`
	Success string `json:"success"`
}

// AckBody is the uniform acknowledgement payload: {"message": ..., "success": "true"}
type AckBody struct {
	Message string `json:"message"`
	Success string `json:"success"`
}

// PagedResponse wraps a page of results with pagination metadata
type PagedResponse struct {
	Content       interface{} `json:"content"`
	Page          int         `json:"page"`
	Size          int         `json:"size"`
	TotalElements int64       `json:"totalElements"`
	TotalPages    int         `json:"totalPages"`
	Last          bool        `json:"last"`
}

// Success returns a 200 response with the payload as the body
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(data)
}

// Created returns a 201 response with the payload as the body
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// Ack returns a 200 acknowledgement with a message
func Ack(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusOK).JSON(AckBody{Message: message, Success: "true"})
}

// CreatedAck returns a 201 acknowledgement with a message
func CreatedAck(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusCreated).JSON(AckBody{Message: message, Success: "true"})
}

// Error returns an error response with the uniform body
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(ErrorBody{Error: message, Success: "false"})
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized returns a 401 Unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Unauthorized access"
	}
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden returns a 403 Forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound returns a 404 Not Found response
func NotFound(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict returns a 409 Conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

// TooManyRequests returns a 429 Too Many Requests response
func TooManyRequests(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Too many requests"
	}
	return Error(c, fiber.StatusTooManyRequests, message)
}

// ValidationError returns a 422 Unprocessable Entity response
func ValidationError(c *fiber.Ctx, err error) error {
	return Error(c, fiber.StatusUnprocessableEntity, "Validation failed: "+err.Error())
}

// InternalServerError returns a 500 Internal Server Error response
func InternalServerError(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return Error(c, fiber.StatusInternalServerError, message)
}

// Paginated returns a page of results wrapped in PagedResponse
func Paginated(c *fiber.Ctx, content interface{}, page, size int, total int64) error {
	totalPages := 0
	if size > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(size)))
	}
	return c.Status(fiber.StatusOK).JSON(PagedResponse{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          page >= totalPages-1,
	})
}
