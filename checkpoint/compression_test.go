package checkpoint

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressBlock_Roundtrip(t *testing.T) {
	// Repetitive enough to compress under both algorithms.
	payload := bytes.Repeat([]byte("partition of unity "), 200)

	for name, ct := range map[string]CompressionType{
		"none": CompressionNone,
		"lz4":  CompressionLZ4,
		"zstd": CompressionZSTD,
	} {
		t.Run(name, func(t *testing.T) {
			block, err := compressBlock(payload, ct)
			require.NoError(t, err)

			if ct != CompressionNone {
				assert.Less(t, len(block), len(payload), "payload should shrink")
			}

			got, err := decompressBlock(block, ct)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestCompressBlock_IncompressibleStoredVerbatim(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	payload := make([]byte, 4096)
	rng.Read(payload)

	block, err := compressBlock(payload, CompressionLZ4)
	require.NoError(t, err)

	// CompressedSize == 0 marks a verbatim block.
	assert.Zero(t, binary.LittleEndian.Uint32(block[4:]))
	assert.Len(t, block, blockHeaderSize+len(payload))

	got, err := decompressBlock(block, CompressionLZ4)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCompressBlock_Empty(t *testing.T) {
	for _, ct := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		block, err := compressBlock(nil, ct)
		require.NoError(t, err)
		assert.Len(t, block, blockHeaderSize)

		got, err := decompressBlock(block, ct)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestCompressBlock_UnknownType(t *testing.T) {
	_, err := compressBlock([]byte("x"), CompressionType(42))
	assert.Error(t, err)
}

func TestDecompressBlock_Malformed(t *testing.T) {
	t.Run("short header", func(t *testing.T) {
		_, err := decompressBlock([]byte{1, 2, 3}, CompressionLZ4)
		assert.Error(t, err)
	})

	t.Run("truncated verbatim payload", func(t *testing.T) {
		block := make([]byte, blockHeaderSize+2)
		binary.LittleEndian.PutUint32(block[0:], 100)
		binary.LittleEndian.PutUint32(block[4:], 0)

		_, err := decompressBlock(block, CompressionNone)
		assert.Error(t, err)
	})

	t.Run("truncated compressed payload", func(t *testing.T) {
		block, err := compressBlock(bytes.Repeat([]byte("abc"), 500), CompressionZSTD)
		require.NoError(t, err)

		_, err = decompressBlock(block[:len(block)-4], CompressionZSTD)
		assert.Error(t, err)
	})
}
