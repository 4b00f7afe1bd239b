package repositories

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jewelcatalog/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenOutboxDB opens the outbox database for the given driver ("sqlite" or
// "postgres") and migrates the outbox table.
func OpenOutboxDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create outbox directory: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported outbox driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to outbox database: %w", err)
	}
	if err := db.AutoMigrate(&models.PendingSync{}); err != nil {
		return nil, fmt.Errorf("failed to migrate outbox table: %w", err)
	}
	return db, nil
}

// GORMSyncOutboxRepository is a GORM implementation of SyncOutboxRepository.
type GORMSyncOutboxRepository struct {
	db *gorm.DB
}

// NewGORMSyncOutboxRepository creates a new instance of GORMSyncOutboxRepository.
func NewGORMSyncOutboxRepository(db *gorm.DB) *GORMSyncOutboxRepository {
	return &GORMSyncOutboxRepository{
		db: db,
	}
}

// Enqueue stores a new pending forward.
func (r *GORMSyncOutboxRepository) Enqueue(ctx context.Context, entry *models.PendingSync) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to enqueue product %s for sync: %w", entry.ProductID, err)
	}
	return nil
}

// Pending returns the oldest entries that have not exhausted maxAttempts.
func (r *GORMSyncOutboxRepository) Pending(ctx context.Context, maxAttempts, limit int) ([]models.PendingSync, error) {
	var entries []models.PendingSync
	q := r.db.WithContext(ctx).Order("created_at ASC")
	if maxAttempts > 0 {
		q = q.Where("attempts < ?", maxAttempts)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending syncs: %w", err)
	}
	return entries, nil
}

// MarkDelivered removes an entry once its product reached the sink.
func (r *GORMSyncOutboxRepository) MarkDelivered(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.PendingSync{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete pending sync: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("pending sync with ID %s not found for deletion", id)
	}
	return nil
}

// MarkFailed records another failed attempt.
func (r *GORMSyncOutboxRepository) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res := r.db.WithContext(ctx).Model(&models.PendingSync{}).Where("id = ?", id).Updates(map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": msg,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update pending sync: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("pending sync with ID %s not found for update", id)
	}
	return nil
}
