package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, log.WarnLevel, ParseLevel(""))
	assert.Equal(t, log.WarnLevel, ParseLevel("verbose"))
	assert.Equal(t, log.JSONFormatter, ParseFormatter("json"))
	assert.Equal(t, log.TextFormatter, ParseFormatter("pretty"))
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cyberdeck.log")
	opts := DefaultOptions()
	opts.Level = "info"
	opts.Format = "logfmt"
	opts.File = path

	logger, closer, err := New(opts)
	require.NoError(t, err)
	logger.Info("gig created", "id", "g1")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gig created")
	assert.Contains(t, string(data), "id=g1")
}
