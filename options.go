package schwarzgo

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/schwarzgo/checkpoint"
	"github.com/hupe1980/schwarzgo/codec"
	"github.com/hupe1980/schwarzgo/eigen"
	"github.com/hupe1980/schwarzgo/solver"
)

// Method names the overlapping Schwarz variant to run.
type Method int

const (
	// MethodRAS is restricted additive Schwarz, the default.
	MethodRAS Method = iota
	// MethodORAS is optimized restricted additive Schwarz.
	MethodORAS
	// MethodSORAS is symmetric optimized restricted additive Schwarz.
	MethodSORAS
	// MethodASM is additive Schwarz.
	MethodASM
	// MethodOSM is optimized Schwarz.
	MethodOSM
	// MethodNone applies no local solve at all.
	MethodNone
)

// String implements fmt.Stringer.
func (m Method) String() string {
	switch m {
	case MethodRAS:
		return "ras"
	case MethodORAS:
		return "oras"
	case MethodSORAS:
		return "soras"
	case MethodASM:
		return "asm"
	case MethodOSM:
		return "osm"
	case MethodNone:
		return "none"
	default:
		return "unknown"
	}
}

// Correction selects the coarse correction strategy. Apply reads it on
// every call, so it may be changed between applications.
type Correction int

const (
	// CorrectionNone runs the one-level method even when a coarse
	// operator exists.
	CorrectionNone Correction = iota - 1
	// CorrectionDeflated combines the coarse solve with a deflated
	// residual iteration.
	CorrectionDeflated
	// CorrectionAdditive overlaps the coarse solve with the local one
	// and adds the two corrections.
	CorrectionAdditive
	// CorrectionBalanced is CorrectionDeflated with an extra projection
	// keeping the fine correction out of the coarse space.
	CorrectionBalanced
)

// String implements fmt.Stringer.
func (c Correction) String() string {
	switch c {
	case CorrectionNone:
		return "none"
	case CorrectionDeflated:
		return "deflated"
	case CorrectionAdditive:
		return "additive"
	case CorrectionBalanced:
		return "balanced"
	default:
		return "unknown"
	}
}

// Options configures a Schwarz instance. The struct stays live after
// construction: Apply reads CoarseCorrection on every call and
// SolveGEVP overwrites GeneoNu with the achieved count.
type Options struct {
	// Method selects the Schwarz variant. Factorize maps it, together
	// with the presence of an externally supplied matrix, onto the
	// preconditioner mode.
	Method Method

	// CoarseCorrection selects the correction strategy once a coarse
	// operator has been built.
	CoarseCorrection Correction

	// GeneoNu is the number of deflation vectors to request from the
	// spectral coarse space. SolveGEVP overwrites it with the number
	// actually obtained.
	GeneoNu int

	// GeneoThreshold is the convergence threshold handed to the
	// eigensolver. Non-positive selects the solver default.
	GeneoThreshold float64

	// Workers bounds the data-parallel parts of the setup.
	Workers int

	// LocalSolver factorizes and solves the subdomain problem. Nil
	// selects a dense LU factorization.
	LocalSolver solver.Local

	// EigenSolver extracts the deflation basis. Nil selects subspace
	// iteration.
	EigenSolver eigen.Solver

	// Codec encodes the snapshot meta header.
	//
	// If nil, codec.Default is used.
	Codec codec.Codec

	// SnapshotCompression is the block compression for persisted setup
	// snapshots.
	SnapshotCompression checkpoint.CompressionType

	// Logger receives structured setup events. Hot paths do not log.
	Logger *Logger

	// Metrics receives operational counters.
	Metrics MetricsCollector
}

// Option configures constructor behavior.
type Option func(*Options)

// WithMethod selects the Schwarz variant.
func WithMethod(m Method) Option {
	return func(o *Options) {
		o.Method = m
	}
}

// WithCoarseCorrection selects the coarse correction strategy.
func WithCoarseCorrection(c Correction) Option {
	return func(o *Options) {
		o.CoarseCorrection = c
	}
}

// WithGeneoNu sets the number of deflation vectors to request.
func WithGeneoNu(nu int) Option {
	return func(o *Options) {
		o.GeneoNu = nu
	}
}

// WithGeneoThreshold sets the eigensolver convergence threshold.
func WithGeneoThreshold(threshold float64) Option {
	return func(o *Options) {
		o.GeneoThreshold = threshold
	}
}

// WithWorkers bounds setup parallelism.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithLocalSolver replaces the subdomain solver.
func WithLocalSolver(s solver.Local) Option {
	return func(o *Options) {
		o.LocalSolver = s
	}
}

// WithEigenSolver replaces the eigensolver building the coarse space.
func WithEigenSolver(es eigen.Solver) Option {
	return func(o *Options) {
		o.EigenSolver = es
	}
}

// WithCodec configures the codec used for snapshot meta headers.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) {
		if c == nil {
			c = codec.Default
		}
		o.Codec = c
	}
}

// WithSnapshotCompression selects the block compression for persisted
// setup snapshots.
func WithSnapshotCompression(ct checkpoint.CompressionType) Option {
	return func(o *Options) {
		o.SnapshotCompression = ct
	}
}

// WithLogger configures structured logging for setup operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *Options) {
		o.Logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
//
// Example with BasicMetricsCollector:
//
//	metrics := &schwarzgo.BasicMetricsCollector{}
//	s, _ := schwarzgo.New(sd, schwarzgo.WithMetricsCollector(metrics))
//	// ... use s ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *Options) {
		o.Metrics = mc
	}
}

func applyOptions(optFns []Option) Options {
	o := Options{
		Method:              MethodRAS,
		CoarseCorrection:    CorrectionNone,
		GeneoNu:             20,
		Workers:             runtime.GOMAXPROCS(0),
		SnapshotCompression: checkpoint.CompressionLZ4,
		Logger:              NoopLogger(),
		Metrics:             NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.Logger == nil {
		o.Logger = NoopLogger()
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetricsCollector{}
	}

	return o
}
