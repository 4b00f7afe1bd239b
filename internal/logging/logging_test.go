package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"jewelcatalog/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_Modes(t *testing.T) {
	dev, err := logging.New(logging.Config{Mode: "development"})
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	prod, err := logging.New(logging.Config{Mode: "production"})
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))
}

func TestNew_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.log")

	logger, err := logging.New(logging.Config{Mode: "production", Filename: path})
	require.NoError(t, err)
	logger.Info("product added", zap.String("product_id", "42"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"product_id":"42"`)
}

func TestInit_ReplacesGlobals(t *testing.T) {
	logger, err := logging.Init(logging.Config{Mode: "production"})
	require.NoError(t, err)

	assert.Same(t, logger, zap.L())
}
