// Package resource enforces limits on snapshot IO and mapped memory.
//
// Saving and restoring a preconditioner setup moves large deflation
// bases through disk or object storage. On shared nodes that traffic
// should not starve the solver, so stores route their IO through a
// Controller with two concerns:
//
//   - Memory: track and cap bytes pinned by open snapshot mappings
//     (non-blocking, fail-fast)
//   - IO: token-bucket pacing of snapshot reads and writes
//
// # Memory
//
// AcquireMemory never blocks. A reservation over the limit fails with
// ErrMemoryLimitExceeded and the caller decides whether to retry,
// evict, or surface the error. Blocking here would be a deadlock
// hazard when ranks restore collectively.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	})
//
//	if err := rc.AcquireMemory(size); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(size)
//
// # IO
//
// AcquireIO blocks until the token bucket admits the requested bytes,
// slicing oversized requests at the burst cap. The wrappers apply the
// same pacing to a stream:
//
//	w := resource.NewRateLimitedWriter(ctx, file, rc)
//	r := resource.NewRateLimitedReader(ctx, file, rc)
//
// # Nil Safety
//
// All methods are no-ops on a nil *Controller, so limiting stays
// optional without nil checks at every call site.
package resource
