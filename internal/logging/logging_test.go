package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("pool snapshot fetched", zap.Int64("chain_id", 50))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "pool snapshot fetched", entry["msg"])
	assert.Equal(t, float64(50), entry["chain_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewDefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("", &buf)
	require.NoError(t, err)
	logger.Info("quiet")
	assert.Zero(t, buf.Len())
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", &bytes.Buffer{})
	require.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
