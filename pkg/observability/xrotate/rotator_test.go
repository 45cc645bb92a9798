package xrotate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLumberjack_Validation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		file string
		opts []Option
		want error
	}{
		{"empty filename", "", nil, ErrEmptyFilename},
		{"zero size", "a.log", []Option{WithMaxSize(0)}, ErrInvalidMaxSize},
		{"huge size", "a.log", []Option{WithMaxSize(maxSizeMB + 1)}, ErrInvalidMaxSize},
		{"negative backups", "a.log", []Option{WithMaxBackups(-1)}, ErrInvalidMaxBackups},
		{"negative age", "a.log", []Option{WithMaxAge(-1)}, ErrInvalidMaxAge},
		{"no cleanup", "a.log", []Option{WithMaxBackups(0), WithMaxAge(0)}, ErrNoCleanupPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := tt.file
			if file != "" {
				file = filepath.Join(dir, file)
			}
			_, err := NewLumberjack(file, tt.opts...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLumberjack_WriteCreatesParentDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "diag", "bridge.log")
	r, err := NewLumberjack(file, nil, WithMaxSize(1), WithCompress(false))
	require.NoError(t, err)

	_, err = r.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestLumberjack_Rotate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bridge.log")
	r, err := NewLumberjack(file, WithLocalTime(true))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("first\n"))
	require.NoError(t, err)
	require.NoError(t, r.Rotate())
	_, err = r.Write([]byte("second\n"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLumberjack_Closed(t *testing.T) {
	r, err := NewLumberjack(filepath.Join(t.TempDir(), "bridge.log"))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
	assert.ErrorIs(t, r.Close(), ErrClosed)
}
