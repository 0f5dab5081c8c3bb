package schwarzgo

import (
	"context"
	"time"

	"github.com/hupe1980/schwarzgo/checkpoint"
)

// SaveSetup persists the current setup (scaling and deflation basis)
// to the store under key. The snapshot belongs to this subdomain
// only; in a multi-rank run every rank saves under its own key,
// typically derived from its rank.
//
// Matrices, factorizations, and the coarse operator are not saved.
// After LoadSetup they are rebuilt with Factorize and
// BuildCoarseOperator, which is cheap next to the eigensolves the
// snapshot avoids.
func (s *Schwarz) SaveSetup(ctx context.Context, store checkpoint.Store, key string) error {
	start := time.Now()

	snap := &checkpoint.Snapshot{
		DOF:     s.sd.dof,
		Scaling: s.d,
		Basis:   s.ev,
	}

	err := checkpoint.Save(ctx, store, key, snap, func(o *checkpoint.Options) {
		o.Codec = s.opts.Codec
		o.Compression = s.opts.SnapshotCompression
	})

	s.logger.LogSnapshot(ctx, key, time.Since(start), err)

	return translateError(err)
}

// LoadSetup restores a setup saved with SaveSetup. The snapshot must
// match this subdomain's size; a snapshot written by a different
// decomposition fails with DimensionMismatchError. Options.GeneoNu is
// updated to the restored basis size.
//
// The error wraps ErrNotFound when no snapshot exists under key.
func (s *Schwarz) LoadSetup(ctx context.Context, store checkpoint.Store, key string) error {
	start := time.Now()

	snap, err := checkpoint.Load(ctx, store, key)
	if err != nil {
		s.logger.LogRestore(ctx, key, time.Since(start), err)
		return translateError(err)
	}

	if snap.DOF != s.sd.dof {
		err := &DimensionMismatchError{Expected: s.sd.dof, Actual: snap.DOF}
		s.logger.LogRestore(ctx, key, time.Since(start), err)
		return err
	}

	s.d = snap.Scaling
	s.ev = snap.Basis
	s.opts.GeneoNu = len(snap.Basis)

	s.logger.LogRestore(ctx, key, time.Since(start), nil)

	return nil
}
