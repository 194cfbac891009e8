package locindex

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"github.com/hupe1980/locindex/distance"
	"github.com/hupe1980/locindex/internal/compact"
)

const (
	// DefaultResolution is the default tile edge length in meters.
	DefaultResolution = 300.0

	// DefaultMaxRegionSearch is the default number of tile rings a query
	// inspects before giving up.
	DefaultMaxRegionSearch = 4
)

type options struct {
	resolution       float64
	maxRegionSearch  int
	calc             distance.Calc
	workers          int
	skipInvalidEdges bool
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Build, Load and Open.
type Option func(*options)

// WithResolution sets the tile edge length in meters. Smaller tiles mean a
// deeper tree, a larger index and fewer candidates per query.
//
// Only Build uses it; a loaded index keeps the resolution it was built with.
func WithResolution(meters float64) Option {
	return func(o *options) {
		o.resolution = meters
	}
}

// WithMaxRegionSearch sets how many tile rings around the query tile are
// searched at most. Ring 0 is the query tile itself.
func WithMaxRegionSearch(rings int) Option {
	return func(o *options) {
		o.maxRegionSearch = rings
	}
}

// WithDistanceCalc sets the distance function used for snapping and pruning.
// If nil is passed, distance.PlaneProjection is used.
func WithDistanceCalc(calc distance.Calc) Option {
	return func(o *options) {
		if calc == nil {
			calc = distance.PlaneProjection{}
		}
		o.calc = calc
	}
}

// WithWorkers sets the number of goroutines rasterizing edges during Build.
// Values below 1 use runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithSkipInvalidEdges makes Build skip edges with out-of-range coordinates
// instead of failing. Skipped edges are logged at warn level and counted in
// Stats.
func WithSkipInvalidEdges() Option {
	return func(o *options) {
		o.skipInvalidEdges = true
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &locindex.BasicMetricsCollector{}
//	idx, _ := locindex.Build(ctx, g, locindex.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := locindex.NewJSONLogger(slog.LevelInfo)
//	idx, _ := locindex.Build(ctx, g, locindex.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		resolution:       DefaultResolution,
		maxRegionSearch:  DefaultMaxRegionSearch,
		calc:             distance.PlaneProjection{},
		workers:          runtime.GOMAXPROCS(0),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	return o
}

func (o options) validate() error {
	if math.IsNaN(o.resolution) || math.IsInf(o.resolution, 0) || o.resolution <= 0 {
		return fmt.Errorf("%w: resolution %v", ErrInvalidOption, o.resolution)
	}
	if o.maxRegionSearch < 1 {
		return fmt.Errorf("%w: max region search %d", ErrInvalidOption, o.maxRegionSearch)
	}
	return nil
}

// Compression selects how Save encodes an index.
type Compression = compact.Compression

const (
	// CompressionNone stores the index region as is. Local stores can map it
	// without copying.
	CompressionNone = compact.CompressionNone
	// CompressionLZ4 favors load speed.
	CompressionLZ4 = compact.CompressionLZ4
	// CompressionZstd favors size.
	CompressionZstd = compact.CompressionZstd
)

type saveOptions struct {
	compression Compression
}

// SaveOption configures Save.
type SaveOption func(*saveOptions)

// WithCompression compresses the saved index. Load, OpenFile and Open detect
// the compression automatically.
func WithCompression(c Compression) SaveOption {
	return func(o *saveOptions) {
		o.compression = c
	}
}
