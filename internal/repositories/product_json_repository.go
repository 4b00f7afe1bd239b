package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"jewelcatalog/internal/models"

	"go.uber.org/zap"
)

// JSONProductRepository keeps the catalog in a single JSON document that is
// rewritten wholesale on every Create.
type JSONProductRepository struct {
	path   string
	log    *zap.Logger
	now    func() time.Time
	mu     sync.Mutex // single writer; also held by readers so they never race a rename
	lastID int64
}

// NewJSONProductRepository creates a repository backed by the file at path,
// creating its parent directory if needed.
func NewJSONProductRepository(path string, logger *zap.Logger) (*JSONProductRepository, error) {
	if path == "" {
		return nil, errors.New("products file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONProductRepository{
		path: path,
		log:  logger,
		now:  time.Now,
	}, nil
}

// GetAll returns every persisted product. A missing file is an empty catalog;
// an undecodable one yields ErrCorruptCatalog.
func (r *JSONProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

// Create assigns an id when the product has none, appends it and persists the
// whole collection atomically.
func (r *JSONProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.load()
	if errors.Is(err, ErrCorruptCatalog) {
		if qErr := r.quarantine(); qErr != nil {
			return fmt.Errorf("failed to move corrupt catalog aside: %w", qErr)
		}
		products = []models.Product{}
	} else if err != nil {
		return fmt.Errorf("failed to read catalog before append: %w", err)
	}

	if product.ID == "" {
		r.observeIDs(products)
		product.ID = r.nextID()
	}

	products = append(products, *product)
	if err := r.write(products); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *JSONProductRepository) load() ([]models.Product, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	products, err := models.DecodeProducts(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCatalog, err)
	}
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = fmt.Sprintf("local-%d", i+1)
		}
	}
	return products, nil
}

func (r *JSONProductRepository) write(products []models.Product) error {
	data, err := models.EncodeProducts(products)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".products-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace catalog file: %w", err)
	}
	return nil
}

func (r *JSONProductRepository) quarantine() error {
	target := fmt.Sprintf("%s.corrupt-%d", r.path, r.now().UnixMilli())
	if err := os.Rename(r.path, target); err != nil {
		return err
	}
	r.log.Warn("corrupt catalog file moved aside", zap.String("path", r.path), zap.String("backup", target))
	return nil
}

// observeIDs keeps generated ids ahead of any numeric id already stored, so a
// clock step backwards cannot reissue one.
func (r *JSONProductRepository) observeIDs(products []models.Product) {
	for _, p := range products {
		if n, err := strconv.ParseInt(p.ID, 10, 64); err == nil && n > r.lastID {
			r.lastID = n
		}
	}
}

func (r *JSONProductRepository) nextID() string {
	id := r.now().UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id
	return strconv.FormatInt(id, 10)
}
