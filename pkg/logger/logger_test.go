package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "notes.log")

	lg, err := NewLogger(Config{Level: "debug", File: path, Production: true})
	require.NoError(t, err)

	lg.Info("hello")
	require.NoError(t, lg.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud"})
	assert.Error(t, err)
}
