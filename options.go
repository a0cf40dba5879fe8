package bot

import (
	"log/slog"

	"github.com/ircflow/ircbot/irc"
	"github.com/ircflow/ircbot/store"
)

type options struct {
	logger     *slog.Logger
	store      store.Store
	metrics    bool
	tracing    bool
	clientOpts []irc.Option
}

// Option configures a Bot.
type Option func(*options)

func newOptions(opts ...Option) *options {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for the bot and everything it owns.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStore overrides the storage backend from the config.
func WithStore(s store.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithMetrics enables OpenTelemetry counters for bus activity.
func WithMetrics(enable bool) Option {
	return func(o *options) {
		o.metrics = enable
	}
}

// WithTracing enables an OpenTelemetry span around each dispatch.
func WithTracing(enable bool) Option {
	return func(o *options) {
		o.tracing = enable
	}
}

// WithClientOptions appends options for the underlying connection,
// after those derived from the config. Tests use this to swap in an
// in-process dialer.
func WithClientOptions(opts ...irc.Option) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}
