package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevelFromString(t *testing.T) {
	defer SetLevelFromString("info")

	SetLevelFromString("debug")
	assert.True(t, IsDebugEnabled())

	SetLevelFromString("WARN")
	assert.False(t, IsDebugEnabled())

	SetLevelFromString("bogus")
	assert.False(t, IsDebugEnabled())
}

func TestNewFileOutput(t *testing.T) {
	defer SetLevelFromString("info")

	path := filepath.Join(t.TempDir(), "fleet.log")
	lg := New(&Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: path,
		MaxSize:  1,
	})
	lg.Info("robot offline")
	require.NoError(t, lg.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"robot offline"`)
}

func TestLReturnsSingleton(t *testing.T) {
	assert.Same(t, L(), L())
	assert.NotNil(t, Named("fleet"))
}
