package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"jewelcatalog/internal/models"
	"jewelcatalog/internal/repositories"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ProductSource is an optional read-only feed merged into the catalog.
type ProductSource interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Product, error)
}

// ImageUpload is an image attached to a product submission.
type ImageUpload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// AddResult describes the outcome of AddProduct. A product can be saved while
// its forward to the secondary sinks failed.
type AddResult struct {
	Product models.Product
	Synced  bool
	SyncErr error
}

// CatalogService handles business logic related to the product catalog.
type CatalogService struct {
	repo          repositories.ProductRepository
	images        repositories.ImageStore
	source        ProductSource
	sync          *SyncService
	publicBaseURL string
	validate      *validator.Validate
	log           *zap.Logger
}

// NewCatalogService creates a new CatalogService. source and syncer are
// optional.
func NewCatalogService(
	repo repositories.ProductRepository,
	images repositories.ImageStore,
	source ProductSource,
	syncer *SyncService,
	publicBaseURL string,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		repo:          repo,
		images:        images,
		source:        source,
		sync:          syncer,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		validate:      validator.New(),
		log:           logger,
	}
}

// HasSource reports whether a secondary source is configured.
func (s *CatalogService) HasSource() bool {
	return s.source != nil
}

// ListProducts returns the primary catalog followed by the secondary source's
// products. It never fails: unreadable storage yields an empty catalog and an
// unreachable source yields the primary products only.
func (s *CatalogService) ListProducts(ctx context.Context) []models.Product {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		s.log.Error("failed to read catalog, serving empty list", zap.Error(err))
		products = []models.Product{}
	}

	if s.source == nil {
		return products
	}

	extra, err := s.source.Fetch(ctx)
	if err != nil {
		s.log.Warn("secondary source unavailable, serving primary catalog only",
			zap.String("source", s.source.Name()), zap.Error(err))
		return products
	}

	seen := make(map[string]struct{}, len(products)+len(extra))
	for _, p := range products {
		seen[p.ID] = struct{}{}
	}
	for _, p := range extra {
		if _, dup := seen[p.ID]; dup {
			s.log.Warn("dropping secondary product with duplicate id",
				zap.String("source", s.source.Name()), zap.String("product_id", p.ID))
			continue
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
	}
	return products
}

// AddProduct validates a submission, stores its image, appends the product to
// the catalog and forwards it to the secondary sinks.
func (s *CatalogService) AddProduct(ctx context.Context, submission models.ProductSubmission, image *ImageUpload) (*AddResult, error) {
	submission = submission.Trimmed()
	if err := s.validateSubmission(submission); err != nil {
		return nil, err
	}

	price, ok := models.ParsePrice(submission.Price)
	if !ok {
		return nil, &ValidationError{Reason: "Price must be a non-negative number"}
	}

	product := models.Product{
		Name:              submission.Name,
		Category:          submission.Category,
		Price:             price,
		Rating:            models.ParseRating(submission.Rating),
		ShortDescription:  submission.ShortDescription,
		Description:       submission.Description,
		MetalType:         submission.MetalType,
		WeightRange:       submission.WeightRange,
		MakingChargesNote: submission.MakingChargesNote,
		DeliveryInfo:      submission.DeliveryInfo,
		Badge:             submission.Badge,
	}

	if image != nil {
		imageURL, err := s.storeImage(ctx, image)
		if err != nil {
			return nil, err
		}
		product.Image = imageURL
	}

	if err := s.repo.Create(ctx, &product); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	s.log.Info("product added", zap.String("product_id", product.ID), zap.String("name", product.Name))

	result := &AddResult{Product: product, Synced: true}
	if s.sync != nil && s.sync.Enabled() {
		if err := s.sync.Forward(ctx, product); err != nil {
			result.Synced = false
			result.SyncErr = err
		}
	}
	return result, nil
}

func (s *CatalogService) validateSubmission(submission models.ProductSubmission) error {
	err := s.validate.Struct(submission)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate submission: %w", err)
	}
	missing := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		missing = append(missing, strings.ToLower(e.Field()))
	}
	return &ValidationError{Missing: missing}
}

func (s *CatalogService) storeImage(ctx context.Context, image *ImageUpload) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("%w: no image store configured", ErrStorage)
	}

	rc, err := image.Open()
	if err != nil {
		return "", fmt.Errorf("%w: failed to open uploaded image: %v", ErrStorage, err)
	}
	defer rc.Close()

	filename, err := s.images.Save(ctx, image.Filename, rc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return s.publicBaseURL + "/uploads/" + url.PathEscape(filename), nil
}
