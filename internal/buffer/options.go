package buffer

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNominalRoot is the fallback reference frame used when the forest has
// zero or several roots.
const DefaultNominalRoot = "map"

// Option configures a Buffer.
type Option func(*Buffer)

// WithNominalRoot sets the fallback reference frame id.
//
// Default: "map" (DefaultNominalRoot).
func WithNominalRoot(id string) Option {
	return func(b *Buffer) {
		b.fallbackRoot = id
	}
}

// WithLogger sets the logger for ingest diagnostics and handler failures.
//
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Buffer) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics registers resolver and ingest counters on reg.
// A nil registerer leaves metrics disabled.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(b *Buffer) {
		b.registerer = reg
	}
}

// WithRecorder writes every applied batch to r after it is applied.
// Recording failures are logged and never fail the batch.
func WithRecorder(r Recorder) Option {
	return func(b *Buffer) {
		b.recorder = r
	}
}

// WithBatchIDs overrides the batch id generator.
//
// Default: UUIDv7Generator.
func WithBatchIDs(g BatchIDGenerator) Option {
	return func(b *Buffer) {
		if g != nil {
			b.batchIDs = g
		}
	}
}

// WithMaxChainLength caps the parent hops the resolver walks from one frame.
//
// Default: the number of known frames.
func WithMaxChainLength(n int) Option {
	return func(b *Buffer) {
		b.maxChain = n
	}
}
