package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"jewelcatalog/internal/models"
	"jewelcatalog/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOutbox(t *testing.T) *repositories.GORMSyncOutboxRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := repositories.OpenOutboxDB("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repositories.NewGORMSyncOutboxRepository(db)
}

func TestGORMSyncOutbox_Lifecycle(t *testing.T) {
	repo := newOutbox(t)
	ctx := context.Background()

	entry := &models.PendingSync{ProductID: "1712345678901", Payload: `{"id":"1712345678901"}`}
	require.NoError(t, repo.Enqueue(ctx, entry))
	assert.NotEmpty(t, entry.ID)

	pending, err := repo.Pending(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "1712345678901", pending[0].ProductID)

	require.NoError(t, repo.MarkFailed(ctx, entry.ID, errors.New("sheet unreachable")))
	pending, err = repo.Pending(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "sheet unreachable", pending[0].LastError)

	require.NoError(t, repo.MarkDelivered(ctx, entry.ID))
	pending, err = repo.Pending(ctx, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	err = repo.MarkDelivered(ctx, entry.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGORMSyncOutbox_PendingSkipsExhaustedEntries(t *testing.T) {
	repo := newOutbox(t)
	ctx := context.Background()

	entry := &models.PendingSync{ProductID: "p1", Payload: "{}"}
	require.NoError(t, repo.Enqueue(ctx, entry))
	require.NoError(t, repo.MarkFailed(ctx, entry.ID, errors.New("boom")))
	require.NoError(t, repo.MarkFailed(ctx, entry.ID, errors.New("boom")))

	pending, err := repo.Pending(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	pending, err = repo.Pending(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestOpenOutboxDB_RejectsUnknownDriver(t *testing.T) {
	_, err := repositories.OpenOutboxDB("mongo", "x")
	assert.Error(t, err)
}
