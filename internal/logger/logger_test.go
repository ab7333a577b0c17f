package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests mutate the global logrus logger and therefore do not run in parallel.

func TestInit_InvalidLevel(t *testing.T) {
	err := Init(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	require.NoError(t, Init(Options{Level: "debug", Format: "json", File: path}))
	t.Cleanup(func() {
		Close()
		logrus.SetOutput(os.Stderr)
	})

	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	WithRoom("r1").Info("room created")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"room":"r1"`))
}

func TestOpenLogFile_RotatesLargeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.log")
	require.NoError(t, os.WriteFile(path, make([]byte, maxLogSize+1), 0o600))

	f, err := openLogFile(path)
	require.NoError(t, err)
	defer f.Close()

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
