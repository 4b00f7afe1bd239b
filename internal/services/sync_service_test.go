package services_test

import (
	"context"
	"errors"
	"testing"

	"jewelcatalog/internal/models"
	"jewelcatalog/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockOutbox is a mock implementation of repositories.SyncOutboxRepository
type MockOutbox struct {
	mock.Mock
}

func (m *MockOutbox) Enqueue(ctx context.Context, entry *models.PendingSync) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockOutbox) Pending(ctx context.Context, maxAttempts, limit int) ([]models.PendingSync, error) {
	args := m.Called(ctx, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PendingSync), args.Error(1)
}

func (m *MockOutbox) MarkDelivered(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutbox) MarkFailed(ctx context.Context, id string, cause error) error {
	args := m.Called(ctx, id, cause)
	return args.Error(0)
}

func TestSyncService_ForwardParksOnlyFailingSink(t *testing.T) {
	webapp := &MockSink{name: "webapp"}
	broker := &MockSink{name: "rabbitmq"}
	outbox := new(MockOutbox)
	syncer := services.NewSyncService([]services.ProductSink{webapp, broker}, outbox, 5, zap.NewNop())

	product := models.Product{ID: "42", Name: "Ring", Category: "Rings", Price: 100}
	webapp.On("Forward", mock.Anything, product).Return(errors.New("timeout")).Once()
	broker.On("Forward", mock.Anything, product).Return(nil).Once()
	outbox.On("Enqueue", mock.Anything, mock.MatchedBy(func(e *models.PendingSync) bool {
		return e.ProductID == "42" && e.Sink == "webapp" && e.LastError == "timeout" && e.Attempts == 1
	})).Return(nil).Once()

	err := syncer.Forward(context.Background(), product)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "webapp: timeout")
	assert.Equal(t, 2, syncer.SinkCount())
	webapp.AssertExpectations(t)
	broker.AssertExpectations(t)
	outbox.AssertExpectations(t)
}

func TestSyncService_ForwardWithoutSinks(t *testing.T) {
	syncer := services.NewSyncService(nil, nil, 5, zap.NewNop())

	assert.False(t, syncer.Enabled())
	assert.NoError(t, syncer.Forward(context.Background(), models.Product{ID: "1"}))
}

func TestSyncService_RetryPending(t *testing.T) {
	webapp := &MockSink{name: "webapp"}
	outbox := new(MockOutbox)
	syncer := services.NewSyncService([]services.ProductSink{webapp}, outbox, 5, zap.NewNop())

	entries := []models.PendingSync{
		{ID: "e1", ProductID: "1", Sink: "webapp", Payload: `{"id":"1","name":"Ring","category":"Rings","price":100}`, Attempts: 1},
		{ID: "e2", ProductID: "2", Sink: "webapp", Payload: `{"id":"2","name":"Chain","category":"Chains","price":200}`, Attempts: 2},
		{ID: "e3", ProductID: "3", Sink: "retired", Payload: `{"id":"3"}`, Attempts: 1},
	}
	outbox.On("Pending", mock.Anything, 5, 100).Return(entries, nil).Once()
	webapp.On("Forward", mock.Anything, mock.MatchedBy(func(p models.Product) bool { return p.ID == "1" })).Return(nil).Once()
	webapp.On("Forward", mock.Anything, mock.MatchedBy(func(p models.Product) bool { return p.ID == "2" })).Return(errors.New("still down")).Once()
	outbox.On("MarkDelivered", mock.Anything, "e1").Return(nil).Once()
	outbox.On("MarkFailed", mock.Anything, "e2", mock.Anything).Return(nil).Once()
	outbox.On("MarkFailed", mock.Anything, "e3", mock.Anything).Return(nil).Once()

	delivered, failed, err := syncer.RetryPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 2, failed)
	webapp.AssertExpectations(t)
	outbox.AssertExpectations(t)
}

func TestSyncService_RetryPendingWithoutOutbox(t *testing.T) {
	syncer := services.NewSyncService([]services.ProductSink{&MockSink{name: "webapp"}}, nil, 5, zap.NewNop())

	delivered, failed, err := syncer.RetryPending(context.Background())

	assert.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Zero(t, failed)
}
