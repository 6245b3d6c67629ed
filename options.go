package recgo

import (
	"github.com/hupe1980/recgo/codec"
)

type options struct {
	codec   codec.Codec
	logger  *Logger
	metrics MetricsCollector
}

// Option configures Open/Create behavior.
//
// Options apply to the whole table tree: every child handle resolved from
// the returned table shares the same codec, logger and metrics collector.
type Option func(*options)

// WithCodec configures the codec used for manifest encoding.
//
// If nil is passed, codec.Default is used. All handles to one database must
// agree on the codec family; the built-in codecs are interchangeable.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger configures the logger used for operation logging.
// The default logger discards all output.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:   codec.Default,
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
