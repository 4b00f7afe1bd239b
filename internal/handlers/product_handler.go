package handlers

import (
	"errors"
	"io"

	"jewelcatalog/internal/models"
	"jewelcatalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service *services.CatalogService
	log     *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.CatalogService, logger *zap.Logger) *ProductHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHandler{
		service: service,
		log:     logger,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Post("/", h.HandleAddProduct)
}

// HandleGetProducts returns the whole catalog. It always answers with a JSON
// array, empty when nothing could be read.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products := h.service.ListProducts(c.UserContext())
	if products == nil {
		products = []models.Product{}
	}
	return c.JSON(products)
}

// HandleAddProduct accepts a multipart form with the product fields and an
// optional "image" file.
func (h *ProductHandler) HandleAddProduct(c *fiber.Ctx) error {
	var submission models.ProductSubmission
	if err := c.BodyParser(&submission); err != nil {
		h.log.Debug("failed to parse product submission", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	var image *services.ImageUpload
	if fh, err := c.FormFile("image"); err == nil && fh != nil && fh.Size > 0 {
		image = &services.ImageUpload{
			Filename: fh.Filename,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		}
	}

	result, err := h.service.AddProduct(c.UserContext(), submission, image)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": validationErr.Error(),
			})
		}
		h.log.Error("failed to add product", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to save product",
		})
	}

	message := "Product added"
	if !result.Synced {
		message = "Product saved locally, sync failed"
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"product": result.Product,
		"synced":  result.Synced,
	})
}
