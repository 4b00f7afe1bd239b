package repositories

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeUploadName(t *testing.T) {
	assert.Equal(t, "gold_ring_final.png", SanitizeUploadName("gold ring  final.png"))
	assert.Equal(t, "passwd", SanitizeUploadName("../../etc/passwd"))
	assert.Equal(t, "photo_1.jpg", SanitizeUploadName(`C:\Users\me\photo 1.jpg`))
	assert.Equal(t, "image", SanitizeUploadName("   "))
}

func TestDiskImageStore_SaveUsesTimestampedNames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewDiskImageStore(dir)
	require.NoError(t, err)
	store.now = func() time.Time { return time.UnixMilli(1700000000000) }

	first, err := store.Save(context.Background(), "my ring.jpg", strings.NewReader("one"))
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-my_ring.jpg", first)

	// Same name in the same millisecond must not overwrite the first upload.
	second, err := store.Save(context.Background(), "my ring.jpg", strings.NewReader("two"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	data, err := os.ReadFile(filepath.Join(dir, first))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}
