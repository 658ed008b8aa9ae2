package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.log")

	logger, err := New(Options{Level: "info", File: path})
	require.NoError(t, err)

	logger.Info("inserted lead")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "inserted lead")
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.log")

	logger, err := New(Options{Level: "error", File: path})
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Error("loud")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "loud")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Options{Level: "shouting"})
	assert.Error(t, err)
}

func TestNewWithoutFileSink(t *testing.T) {
	logger, err := New(Options{})
	require.NoError(t, err)
	logger.Info("console only")
}
