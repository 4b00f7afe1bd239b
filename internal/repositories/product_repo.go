package repositories

import (
	"context"
	"errors"
	"io"

	"jewelcatalog/internal/models"
)

// ErrCorruptCatalog is returned when the persisted catalog cannot be decoded.
var ErrCorruptCatalog = errors.New("catalog file is corrupt")

// ProductRepository defines the interface for product data access.
// The catalog is append-only: products are never updated or deleted.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
}

// ImageStore persists uploaded product images.
type ImageStore interface {
	// Save stores the image under a collision-free name derived from
	// originalName and returns that name.
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
}

// SyncOutboxRepository defines the durable queue of products awaiting a
// forward to the secondary sink.
type SyncOutboxRepository interface {
	Enqueue(ctx context.Context, entry *models.PendingSync) error
	Pending(ctx context.Context, maxAttempts, limit int) ([]models.PendingSync, error)
	MarkDelivered(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, cause error) error
}
