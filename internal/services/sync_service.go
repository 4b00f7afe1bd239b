package services

import (
	"context"
	"errors"
	"fmt"

	"jewelcatalog/internal/models"
	"jewelcatalog/internal/repositories"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// ProductSink receives a copy of every newly added product.
type ProductSink interface {
	Name() string
	Forward(ctx context.Context, product models.Product) error
}

// SyncService forwards new products to the secondary sinks. Deliveries that
// fail are parked in the outbox, one entry per rejecting sink, and retried
// until they succeed (at-least-once).
type SyncService struct {
	sinks       map[string]ProductSink
	order       []string
	outbox      repositories.SyncOutboxRepository
	maxAttempts int
	batchSize   int
	log         *zap.Logger
}

// NewSyncService creates a new SyncService. outbox may be nil, in which case
// failed forwards are only logged.
func NewSyncService(sinks []ProductSink, outbox repositories.SyncOutboxRepository, maxAttempts int, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SyncService{
		sinks:       make(map[string]ProductSink, len(sinks)),
		outbox:      outbox,
		maxAttempts: maxAttempts,
		batchSize:   100,
		log:         logger,
	}
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		if _, dup := s.sinks[sink.Name()]; !dup {
			s.order = append(s.order, sink.Name())
		}
		s.sinks[sink.Name()] = sink
	}
	return s
}

// Enabled reports whether any sink is configured.
func (s *SyncService) Enabled() bool {
	return len(s.order) > 0
}

// SinkCount returns the number of configured sinks.
func (s *SyncService) SinkCount() int {
	return len(s.order)
}

// Forward sends the product to every sink. The returned error joins the
// failures of individual sinks; each failure has already been queued for retry
// when an outbox is configured.
func (s *SyncService) Forward(ctx context.Context, product models.Product) error {
	var errs []error
	for _, name := range s.order {
		err := s.sinks[name].Forward(ctx, product)
		if err == nil {
			s.log.Debug("product forwarded", zap.String("sink", name), zap.String("product_id", product.ID))
			continue
		}

		s.log.Warn("failed to forward product", zap.String("sink", name), zap.String("product_id", product.ID), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
		s.park(ctx, name, product, err)
	}
	return errors.Join(errs...)
}

func (s *SyncService) park(ctx context.Context, sink string, product models.Product, cause error) {
	if s.outbox == nil {
		s.log.Error("no sync outbox configured, forward will not be retried",
			zap.String("sink", sink), zap.String("product_id", product.ID))
		return
	}

	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(product)
	if err != nil {
		s.log.Error("failed to encode product for sync outbox", zap.String("product_id", product.ID), zap.Error(err))
		return
	}
	entry := &models.PendingSync{
		ProductID: product.ID,
		Sink:      sink,
		Payload:   string(payload),
		Attempts:  1,
		LastError: cause.Error(),
	}
	if err := s.outbox.Enqueue(ctx, entry); err != nil {
		s.log.Error("failed to park product in sync outbox", zap.String("product_id", product.ID), zap.Error(err))
	}
}

// RetryPending re-forwards parked products and reports how many were
// delivered and how many failed again.
func (s *SyncService) RetryPending(ctx context.Context) (delivered, failed int, err error) {
	if s.outbox == nil {
		return 0, 0, nil
	}

	entries, err := s.outbox.Pending(ctx, s.maxAttempts, s.batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load pending syncs: %w", err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return delivered, failed, ctx.Err()
		}

		if fwdErr := s.retry(ctx, entry); fwdErr != nil {
			failed++
			if mErr := s.outbox.MarkFailed(ctx, entry.ID, fwdErr); mErr != nil {
				s.log.Error("failed to record sync attempt", zap.String("entry_id", entry.ID), zap.Error(mErr))
			}
			if s.maxAttempts > 0 && entry.Attempts+1 >= s.maxAttempts {
				s.log.Error("sync retries exhausted, entry parked",
					zap.String("entry_id", entry.ID), zap.String("product_id", entry.ProductID), zap.Error(fwdErr))
			}
			continue
		}

		delivered++
		if mErr := s.outbox.MarkDelivered(ctx, entry.ID); mErr != nil {
			s.log.Error("failed to clear delivered sync", zap.String("entry_id", entry.ID), zap.Error(mErr))
		}
	}

	if delivered > 0 || failed > 0 {
		s.log.Info("sync outbox drained", zap.Int("delivered", delivered), zap.Int("failed", failed))
	}
	return delivered, failed, nil
}

func (s *SyncService) retry(ctx context.Context, entry models.PendingSync) error {
	sink, ok := s.sinks[entry.Sink]
	if !ok {
		return fmt.Errorf("sink %q is not configured", entry.Sink)
	}

	var product models.Product
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(entry.Payload, &product); err != nil {
		return fmt.Errorf("failed to decode parked product: %w", err)
	}
	return sink.Forward(ctx, product)
}
