package handlers

import (
	"jewelcatalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SyncHandler exposes the secondary sink outbox.
type SyncHandler struct {
	service *services.SyncService
	log     *zap.Logger
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(service *services.SyncService, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{service: service, log: logger}
}

// RegisterRoutes registers the sync routes with the Fiber app.
func (h *SyncHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/sync/retry", h.HandleRetry)
}

// HandleRetry drains the outbox once instead of waiting for the scheduler.
func (h *SyncHandler) HandleRetry(c *fiber.Ctx) error {
	delivered, failed, err := h.service.RetryPending(c.UserContext())
	if err != nil {
		h.log.Error("manual sync retry failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retry pending syncs",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"delivered": delivered,
		"failed":    failed,
	})
}
