package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Parallel()
	dev, err := New(true, "debug")
	require.NoError(t, err)
	require.NotNil(t, dev)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	prod, err := New(false, "")
	require.NoError(t, err)
	require.NotNil(t, prod)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel), "empty level defaults to info")
}

func TestNew_LevelFiltersOutput(t *testing.T) {
	t.Parallel()
	logger, err := New(false, "error")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	t.Parallel()
	_, err := New(false, "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}
