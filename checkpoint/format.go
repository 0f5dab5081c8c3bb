package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// MagicNumber identifies snapshot files ("SWZ0" in ASCII).
	MagicNumber uint32 = 0x53575A30

	// FormatVersion is the current snapshot file format version.
	FormatVersion uint32 = 1
)

var (
	// ErrInvalidMagic is returned when a file does not start with
	// the snapshot magic number.
	ErrInvalidMagic = errors.New("checkpoint: invalid magic number")

	// ErrInvalidVersion is returned when a file carries an
	// unsupported format version.
	ErrInvalidVersion = errors.New("checkpoint: unsupported format version")
)

// FileHeader leads every snapshot file. It is written verbatim in
// little-endian order and is exactly 24 bytes:
//
//	Magic       uint32
//	Version     uint32
//	Compression uint8
//	CodecLen    uint8
//	Padding     [2]byte
//	MetaLen     uint32
//	Reserved    [8]byte
//
// The codec name (CodecLen bytes) and the codec-encoded metadata
// (MetaLen bytes) follow the header, then the payload blocks, then a
// trailing CRC32 over everything before it.
type FileHeader struct {
	Magic       uint32
	Version     uint32
	Compression uint8
	CodecLen    uint8
	Padding     [2]byte
	MetaLen     uint32
	Reserved    [8]byte
}

const fileHeaderSize = 24

func writeHeader(w io.Writer, h *FileHeader) error {
	return binary.Write(w, binary.LittleEndian, h)
}

func readHeader(r io.Reader) (*FileHeader, error) {
	var h FileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("checkpoint: read header: %w", err)
	}

	if h.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrInvalidMagic, h.Magic, MagicNumber)
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidVersion, h.Version, FormatVersion)
	}

	return &h, nil
}
