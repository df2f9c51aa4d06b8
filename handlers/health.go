package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/biblio-app/biblio-api/database"
)

// HandleCheckHealth reports service and database health
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if store != nil {
		if err := store.HealthCheck(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  "database unreachable",
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
