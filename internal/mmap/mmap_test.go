package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mapping.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	return path
}

func TestMapping(t *testing.T) {
	content := []byte("snapshot header and payload")

	m, err := Open(writeTemp(t, content))
	require.NoError(t, err)
	defer m.Close()

	t.Run("bytes and size", func(t *testing.T) {
		assert.Equal(t, len(content), m.Size())
		assert.Equal(t, content, m.Bytes())
	})

	t.Run("read at offset", func(t *testing.T) {
		buf := make([]byte, 6)
		n, err := m.ReadAt(buf, 9)
		require.NoError(t, err)
		assert.Equal(t, 6, n)
		assert.Equal(t, "header", string(buf))
	})

	t.Run("short read at tail", func(t *testing.T) {
		buf := make([]byte, 16)
		n, err := m.ReadAt(buf, int64(len(content)-7))
		assert.Equal(t, io.EOF, err)
		assert.Equal(t, 7, n)
		assert.Equal(t, "payload", string(buf[:n]))
	})

	t.Run("read past end", func(t *testing.T) {
		buf := make([]byte, 4)
		n, err := m.ReadAt(buf, int64(len(content)+1))
		assert.Equal(t, io.EOF, err)
		assert.Zero(t, n)
	})

	t.Run("negative offset", func(t *testing.T) {
		_, err := m.ReadAt(make([]byte, 1), -1)
		assert.ErrorIs(t, err, ErrInvalidOffset)
	})

	t.Run("advise", func(t *testing.T) {
		assert.NoError(t, m.Advise(AccessSequential))
		assert.NoError(t, m.Advise(AccessWillNeed))
	})
}

func TestMapping_Close(t *testing.T) {
	m, err := Open(writeTemp(t, []byte("data")))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.NoError(t, m.Close(), "close is idempotent")

	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)

	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMapping_EmptyFile(t *testing.T) {
	m, err := Open(writeTemp(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Zero(t, m.Size())
	assert.Empty(t, m.Bytes())

	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.Equal(t, io.EOF, err)
}

func TestMapping_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no-such-file"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
