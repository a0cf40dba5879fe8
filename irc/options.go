package irc

import (
	"log/slog"
	"net"
	"time"
)

// Default client settings.
const (
	DefaultPingInterval = 3 * time.Minute
	DefaultPingTimeout  = 10 * time.Minute
	DefaultBackoffMin   = 2 * time.Second
	DefaultBackoffMax   = 5 * time.Minute
	DefaultPaceInterval = 500 * time.Millisecond
	DefaultPaceBurst    = 4
	DefaultQueueDepth   = 128
)

type clientOptions struct {
	username string
	realname string
	password string
	notifier Notifier
	logger   *slog.Logger
	dial     DialFunc

	pingInterval time.Duration
	pingTimeout  time.Duration
	backoffMin   time.Duration
	backoffMax   time.Duration
	paceInterval time.Duration
	paceBurst    int
	queueDepth   int
}

// Option configures a Client.
type Option func(*clientOptions)

func newClientOptions(opts ...Option) *clientOptions {
	var d net.Dialer
	o := &clientOptions{
		notifier:     NopNotifier{},
		logger:       slog.Default(),
		dial:         d.DialContext,
		pingInterval: DefaultPingInterval,
		pingTimeout:  DefaultPingTimeout,
		backoffMin:   DefaultBackoffMin,
		backoffMax:   DefaultBackoffMax,
		paceInterval: DefaultPaceInterval,
		paceBurst:    DefaultPaceBurst,
		queueDepth:   DefaultQueueDepth,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithUser sets the username and realname sent during registration.
// Empty values default to the nick.
func WithUser(username, realname string) Option {
	return func(o *clientOptions) {
		o.username = username
		o.realname = realname
	}
}

// WithPassword sets the server password sent before registration.
func WithPassword(password string) Option {
	return func(o *clientOptions) {
		o.password = password
	}
}

// WithNotifier sets the receiver for connection activity.
func WithNotifier(n Notifier) Option {
	return func(o *clientOptions) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDialer replaces the transport dialer. Tests use this to connect
// the client to an in-process endpoint.
func WithDialer(dial DialFunc) Option {
	return func(o *clientOptions) {
		if dial != nil {
			o.dial = dial
		}
	}
}

// WithKeepalive sets how often the client probes an idle connection and
// how long a silent connection is tolerated before being dropped. An
// interval of 0 disables keepalive.
func WithKeepalive(interval, timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.pingInterval = interval
		o.pingTimeout = timeout
	}
}

// WithBackoff sets the bounds for the exponential reconnect delay.
func WithBackoff(min, max time.Duration) Option {
	return func(o *clientOptions) {
		if min > 0 {
			o.backoffMin = min
		}
		if max > 0 {
			o.backoffMax = max
		}
	}
}

// WithPacing configures the outgoing rate limit: minimum interval
// between paced lines once the burst allowance is spent, and the depth
// cap of the outgoing queue.
func WithPacing(interval time.Duration, burst, queueDepth int) Option {
	return func(o *clientOptions) {
		if interval > 0 {
			o.paceInterval = interval
		}
		if burst > 0 {
			o.paceBurst = burst
		}
		if queueDepth > 0 {
			o.queueDepth = queueDepth
		}
	}
}
