package checkpoint

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumWriterReader(t *testing.T) {
	payload := []byte("header|meta|scaling|basis")

	var buf bytes.Buffer
	cw := NewChecksumWriter(&buf)

	n, err := cw.Write(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	assert.Equal(t, CalculateChecksum(payload), cw.Sum())
	assert.Equal(t, payload, buf.Bytes(), "writes pass through")

	cr := NewChecksumReader(&buf)
	read, err := io.ReadAll(cr)
	require.NoError(t, err)
	assert.Equal(t, payload, read)

	assert.NoError(t, cr.Verify(cw.Sum()))
	assert.Error(t, cr.Verify(cw.Sum()+1))
}

func TestIsChecksumMismatch(t *testing.T) {
	err := error(&ChecksumMismatchError{Expected: 1, Actual: 2})

	assert.True(t, IsChecksumMismatch(err))
	assert.True(t, IsChecksumMismatch(fmt.Errorf("load: %w", err)), "unwraps")
	assert.False(t, IsChecksumMismatch(io.EOF))
	assert.False(t, IsChecksumMismatch(nil))

	assert.Contains(t, err.Error(), "0x00000001")
}
