package admin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/biblio-app/biblio-api/database"
	"github.com/biblio-app/biblio-api/utils/response"
)

// StatsHandler serves library-wide statistics off the raw SQL store
type StatsHandler struct {
	store *database.PostgreSQLStore
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(store *database.PostgreSQLStore) *StatsHandler {
	return &StatsHandler{store: store}
}

// GetStats handles GET /api/admin/stats
func (h *StatsHandler) GetStats(c *fiber.Ctx) error {
	if h.store == nil {
		return response.InternalServerError(c, "Statistics store is not configured")
	}

	stats, err := h.store.Stats()
	if err != nil {
		return response.InternalServerError(c, "Failed to collect statistics")
	}

	return response.Success(c, stats)
}
