package checkpoint

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unsafe"

	"github.com/hupe1980/schwarzgo/codec"
)

// Snapshot is a serializable preconditioner setup: the local problem
// size, the partition-of-unity diagonal, and the deflation basis.
// Everything else (matrices, factorizations, the coarse operator) is
// rebuilt from these after a restore.
type Snapshot struct {
	// DOF is the local problem size the setup belongs to.
	DOF int

	// Scaling is the partition-of-unity diagonal, length DOF.
	Scaling []float64

	// Basis holds the deflation vectors, each of length DOF.
	Basis [][]float64
}

// Options configure snapshot encoding.
type Options struct {
	// Codec encodes the metadata section. Defaults to
	// codec.Default. The codec name is recorded in the file, so
	// readers do not need to know it up front.
	Codec codec.Codec

	// Compression selects payload block compression. Defaults to
	// CompressionLZ4.
	Compression CompressionType
}

type snapshotMeta struct {
	DOF        int   `json:"dof"`
	Nu         int   `json:"nu"`
	ScalingLen int64 `json:"scaling_len"`
	BasisLen   int64 `json:"basis_len"`
}

// Save encodes snap and writes it to the store under name. The write
// is atomic: either the full snapshot becomes visible or nothing
// does.
func Save(ctx context.Context, store Store, name string, snap *Snapshot, optFns ...func(o *Options)) error {
	data, err := Encode(snap, optFns...)
	if err != nil {
		return err
	}

	wb, err := store.Create(ctx, name)
	if err != nil {
		return err
	}

	if _, err := wb.Write(data); err != nil {
		_ = wb.Abort()
		return err
	}
	if err := wb.Sync(); err != nil {
		_ = wb.Abort()
		return err
	}

	return wb.Close()
}

// Load reads and decodes the snapshot stored under name. Blobs that
// expose their contents as memory (local files via mmap) are decoded
// in place without staging the payload through an extra buffer.
func Load(ctx context.Context, store Store, name string) (*Snapshot, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	var data []byte
	if m, ok := b.(Mappable); ok {
		data, err = m.Bytes()
		if err != nil {
			return nil, err
		}
	} else {
		data = make([]byte, b.Size())
		n, err := b.ReadAt(ctx, data, 0)
		if err != nil && !(errors.Is(err, io.EOF) && n == len(data)) {
			return nil, err
		}
	}

	return Decode(data)
}

// Encode serializes snap into the snapshot file format:
//
//	FileHeader | codec name | metadata | scaling block | basis block | CRC32
//
// All integers are little-endian. The trailing CRC32 covers every
// preceding byte.
func Encode(snap *Snapshot, optFns ...func(o *Options)) ([]byte, error) {
	opts := Options{
		Codec:       codec.Default,
		Compression: CompressionLZ4,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	if snap == nil {
		return nil, errors.New("checkpoint: nil snapshot")
	}
	if len(snap.Scaling) != snap.DOF {
		return nil, fmt.Errorf("checkpoint: scaling has length %d, want %d", len(snap.Scaling), snap.DOF)
	}

	flat := make([]float64, 0, len(snap.Basis)*snap.DOF)
	for k, z := range snap.Basis {
		if len(z) != snap.DOF {
			return nil, fmt.Errorf("checkpoint: basis vector %d has length %d, want %d", k, len(z), snap.DOF)
		}
		flat = append(flat, z...)
	}

	scalingBlock, err := compressBlock(float64Bytes(snap.Scaling), opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: scaling block: %w", err)
	}
	basisBlock, err := compressBlock(float64Bytes(flat), opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: basis block: %w", err)
	}

	name := opts.Codec.Name()
	if len(name) > 255 {
		return nil, fmt.Errorf("checkpoint: codec name %q too long", name)
	}

	meta, err := opts.Codec.Marshal(snapshotMeta{
		DOF:        snap.DOF,
		Nu:         len(snap.Basis),
		ScalingLen: int64(len(scalingBlock)),
		BasisLen:   int64(len(basisBlock)),
	})
	if err != nil {
		return nil, fmt.Errorf("checkpoint: encode metadata: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(fileHeaderSize + len(name) + len(meta) + len(scalingBlock) + len(basisBlock) + checksumSize)

	cw := NewChecksumWriter(&buf)
	h := FileHeader{
		Magic:       MagicNumber,
		Version:     FormatVersion,
		Compression: uint8(opts.Compression),
		CodecLen:    uint8(len(name)),
		MetaLen:     uint32(len(meta)),
	}
	if err := writeHeader(cw, &h); err != nil {
		return nil, err
	}
	for _, section := range [][]byte{[]byte(name), meta, scalingBlock, basisBlock} {
		if _, err := cw.Write(section); err != nil {
			return nil, err
		}
	}

	var tail [checksumSize]byte
	binary.LittleEndian.PutUint32(tail[:], cw.Sum())
	buf.Write(tail[:])

	return buf.Bytes(), nil
}

// Decode parses a snapshot file produced by Encode. The checksum is
// verified before any field is trusted. The payload is copied out of
// data, so a backing memory mapping may be unmapped once Decode
// returns.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) < fileHeaderSize+checksumSize {
		return nil, errors.New("checkpoint: snapshot truncated")
	}

	body := data[:len(data)-checksumSize]
	want := binary.LittleEndian.Uint32(data[len(data)-checksumSize:])
	if got := CalculateChecksum(body); got != want {
		return nil, &ChecksumMismatchError{Expected: want, Actual: got}
	}

	h, err := readHeader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	off := fileHeaderSize
	if len(body)-off < int(h.CodecLen)+int(h.MetaLen) {
		return nil, errors.New("checkpoint: snapshot truncated")
	}

	name := string(body[off : off+int(h.CodecLen)])
	off += int(h.CodecLen)

	c, ok := codec.ByName(name)
	if !ok {
		return nil, fmt.Errorf("checkpoint: unknown codec %q", name)
	}

	var meta snapshotMeta
	if err := c.Unmarshal(body[off:off+int(h.MetaLen)], &meta); err != nil {
		return nil, fmt.Errorf("checkpoint: decode metadata: %w", err)
	}
	off += int(h.MetaLen)

	if meta.DOF < 0 || meta.Nu < 0 || meta.ScalingLen < 0 || meta.BasisLen < 0 {
		return nil, errors.New("checkpoint: malformed metadata")
	}
	if int64(len(body)-off) < meta.ScalingLen+meta.BasisLen {
		return nil, errors.New("checkpoint: snapshot truncated")
	}

	ct := CompressionType(h.Compression)

	rawScaling, err := decompressBlock(body[off:off+int(meta.ScalingLen)], ct)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: scaling block: %w", err)
	}
	off += int(meta.ScalingLen)

	rawBasis, err := decompressBlock(body[off:off+int(meta.BasisLen)], ct)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: basis block: %w", err)
	}

	// Size guards precede the allocations so malformed metadata
	// cannot trigger huge makes.
	if int64(meta.DOF)*8 != int64(len(rawScaling)) {
		return nil, errors.New("checkpoint: scaling block size mismatch")
	}
	if int64(meta.Nu)*int64(meta.DOF)*8 != int64(len(rawBasis)) {
		return nil, errors.New("checkpoint: basis block size mismatch")
	}

	snap := &Snapshot{
		DOF:     meta.DOF,
		Scaling: bytesToFloat64s(rawScaling),
	}

	flat := bytesToFloat64s(rawBasis)
	snap.Basis = make([][]float64, meta.Nu)
	for k := range snap.Basis {
		snap.Basis[k] = flat[k*meta.DOF : (k+1)*meta.DOF]
	}

	return snap, nil
}

// float64Bytes views v as raw bytes without copying. Byte order is
// the host's; snapshots are portable across the little-endian
// platforms this targets (amd64, arm64).
func float64Bytes(v []float64) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*8)
}

// bytesToFloat64s copies raw bytes into a fresh float64 slice.
// len(b) must be a multiple of 8.
func bytesToFloat64s(b []byte) []float64 {
	out := make([]float64, len(b)/8)
	if len(out) == 0 {
		return out
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(b)), b)
	return out
}
