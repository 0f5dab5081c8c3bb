package schwarzgo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/schwarzgo/checkpoint"
	"github.com/hupe1980/schwarzgo/codec"
	"github.com/hupe1980/schwarzgo/sparse"
)

func TestSaveLoadSetup_Roundtrip(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()

	src := singleRank(t, sparse.FromDense(laplacian1D(4), false))
	require.NoError(t, src.SetScaling([]float64{1, 0.5, 0.25, 1}))
	require.NoError(t, src.SetDeflationBasis([][]float64{
		{0.5, 0.5, 0.5, 0.5},
		{1, 0, 0, -1},
	}))
	require.NoError(t, src.SaveSetup(ctx, store, "rank-0.swz"))

	dst := singleRank(t, sparse.FromDense(laplacian1D(4), false))
	require.NoError(t, dst.LoadSetup(ctx, store, "rank-0.swz"))

	assert.Equal(t, []float64{1, 0.5, 0.25, 1}, dst.Scaling())
	assert.Equal(t, src.Basis(), dst.Basis())
	assert.Equal(t, 2, dst.Options().GeneoNu)
}

func TestSaveLoadSetup_EmptyBasis(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()

	src := singleRank(t, identityCSR(3))
	require.NoError(t, src.SaveSetup(ctx, store, "bare.swz"))

	dst := singleRank(t, identityCSR(3))
	require.NoError(t, dst.LoadSetup(ctx, store, "bare.swz"))

	assert.Equal(t, []float64{1, 1, 1}, dst.Scaling())
	assert.Empty(t, dst.Basis())
	assert.Zero(t, dst.Options().GeneoNu)
}

func TestSaveLoadSetup_CodecAndCompressionHonored(t *testing.T) {
	// The reader picks codec and compression from the header, so a
	// writer configured away from the defaults stays loadable.
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()

	src := singleRank(t, identityCSR(2),
		WithCodec(codec.JSON{}),
		WithSnapshotCompression(checkpoint.CompressionZSTD),
	)
	require.NoError(t, src.SetScaling([]float64{0.5, 1}))
	require.NoError(t, src.SaveSetup(ctx, store, "rank-0.swz"))

	dst := singleRank(t, identityCSR(2))
	require.NoError(t, dst.LoadSetup(ctx, store, "rank-0.swz"))
	assert.Equal(t, []float64{0.5, 1}, dst.Scaling())
}

func TestLoadSetup_NotFound(t *testing.T) {
	s := singleRank(t, identityCSR(2))

	err := s.LoadSetup(context.Background(), checkpoint.NewMemoryStore(), "missing.swz")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestLoadSetup_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()

	src := singleRank(t, identityCSR(4))
	require.NoError(t, src.SaveSetup(ctx, store, "rank-0.swz"))

	dst := singleRank(t, identityCSR(3))
	err := dst.LoadSetup(ctx, store, "rank-0.swz")

	var mismatch *DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 3, mismatch.Expected)
	assert.Equal(t, 4, mismatch.Actual)
}
