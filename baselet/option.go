package baselet

import "go.uber.org/zap"

// DefaultFetchConcurrency is the default number of buckets fetched in
// parallel by a single query.
const DefaultFetchConcurrency = 8

// Option is passed to the Create and Open functions to customize a base.
type Option func(*options)

type options struct {
	codec            Codec
	logger           *zap.Logger
	fetchConcurrency int
}

func makeOptions(opts []Option) options {
	o := options{
		codec:            JSONCodec(),
		logger:           zap.NewNop(),
		fetchConcurrency: DefaultFetchConcurrency,
	}
	for _, option := range opts {
		option(&o)
	}
	return o
}

// WithCodec specifies the Codec used for bucket blobs. By default, buckets
// are stored as JSON.
//
// The same Codec must be used every time a database is opened. Additional
// Codecs can be found in the packages in driver/encoding.
func WithCodec(c Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger specifies the logger used to report bucket and descriptor
// writes. By default, nothing is logged.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFetchConcurrency sets the maximum number of buckets fetched in parallel
// by a single query. Values below 1 disable the limit.
func WithFetchConcurrency(n int) Option {
	return func(o *options) {
		o.fetchConcurrency = n
	}
}
