package irc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Client errors
var (
	// ErrNotConnected is returned when writing without an open transport.
	ErrNotConnected = errors.New("irc: not connected")
	// ErrClientClosed is returned by Run after Close has been called.
	ErrClientClosed = errors.New("irc: client closed")
)

// State is the connection lifecycle state of a Client.
type State int32

const (
	// Disconnected is the initial state, before Run is called.
	Disconnected State = iota
	// Connecting means the transport is being dialed.
	Connecting
	// Registering means the transport is open and the registration
	// handshake (PASS/NICK/USER) is in flight.
	Registering
	// Connected means the server accepted the registration.
	Connected
	// Reconnecting means the connection was lost and the client is
	// backing off before the next attempt.
	Reconnecting
	// Terminated is the absorbing state reached only by explicit
	// shutdown.
	Terminated
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Registering:
		return "registering"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// DialFunc opens the transport for a connection attempt.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Client is a single IRC session: it owns the transport and drives the
// connection lifecycle (registration handshake, keepalive, reconnection
// with backoff) while reporting all activity through its Notifier.
//
// All outgoing traffic from callers goes through an internal FIFO queue
// drained at a paced rate; only keepalive replies and the registration
// handshake bypass the queue.
type Client struct {
	addr     string
	wantNick string
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

	pacer *pacer

	state     atomic.Int32
	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}

	mu      sync.Mutex // guards conn, nick, joined, pending, names
	conn    net.Conn
	nick    string
	joined  map[string]struct{}
	pending map[string]struct{}
	names   map[string][]string

	writeMu  sync.Mutex
	lastRecv atomic.Int64
	pingSeq  atomic.Int64
	attempts int // reconnect attempts, touched only by the Run goroutine
}

// NewClient creates a client for addr ("host:port") registering as nick.
func NewClient(addr, nick string, opts ...Option) *Client {
	o := newClientOptions(opts...)
	c := &Client{
		addr:         addr,
		wantNick:     nick,
		nick:         nick,
		username:     o.username,
		realname:     o.realname,
		password:     o.password,
		notifier:     o.notifier,
		logger:       o.logger.With("component", "irc"),
		dial:         o.dial,
		pingInterval: o.pingInterval,
		pingTimeout:  o.pingTimeout,
		backoffMin:   o.backoffMin,
		backoffMax:   o.backoffMax,
		done:         make(chan struct{}),
		joined:       make(map[string]struct{}),
		pending:      make(map[string]struct{}),
		names:        make(map[string][]string),
	}
	c.pacer = newPacer(o.paceInterval, o.paceBurst, o.queueDepth, func(line string) {
		c.logger.Warn("outgoing queue full, dropping oldest line", "line", line)
		c.notifier.Dropped(line)
	})
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	old := State(c.state.Swap(int32(s)))
	if old != s {
		c.logger.Debug("state transition", "from", old.String(), "to", s.String())
	}
}

// Nick returns the nick currently in effect for this session.
func (c *Client) Nick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick
}

// Channels returns the sorted set of channels the session has joined.
func (c *Client) Channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.joined))
	for ch := range c.joined {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Run drives the session until ctx is cancelled or Close is called,
// reconnecting with exponential backoff whenever the connection is
// lost. It always leaves the client in the Terminated state.
func (c *Client) Run(ctx context.Context) error {
	defer c.setState(Terminated)
	for {
		if c.closed.Load() {
			return ErrClientClosed
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.setState(Connecting)
		conn, err := c.dial(ctx, "tcp", c.addr)
		if err != nil {
			c.logger.Warn("dial failed", "addr", c.addr, "error", err)
			c.setState(Reconnecting)
			if !c.sleepBackoff(ctx) {
				return ctx.Err()
			}
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		c.lastRecv.Store(time.Now().UnixNano())

		c.setState(Registering)
		c.notifier.Connected()
		c.register()

		connCtx, cancel := context.WithCancel(ctx)
		readDone := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.pacer.drain(connCtx, c.writeLine)
		}()
		if c.pingInterval > 0 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.keepalive(connCtx)
			}()
		}
		// The read loop only notices cancellation through a failed
		// read, so drop the transport when asked to stop.
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				conn.Close()
			case <-c.done:
				conn.Close()
			case <-readDone:
			}
		}()

		err = c.readLoop(conn)
		close(readDone)
		cancel()
		conn.Close()
		wg.Wait()

		c.mu.Lock()
		c.conn = nil
		c.pending = make(map[string]struct{})
		c.names = make(map[string][]string)
		c.mu.Unlock()
		c.pacer.clear()

		c.logger.Info("connection lost", "error", err)
		c.notifier.Disconnected(err)

		if c.closed.Load() || ctx.Err() != nil {
			return nil
		}
		c.setState(Reconnecting)
		if !c.sleepBackoff(ctx) {
			return nil
		}
	}
}

// Close requests shutdown: the connection is dropped and Run returns
// without reconnecting. Use Quit first for a graceful disconnect.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		c.closeConn()
	})
}

func (c *Client) closeConn() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// sleepBackoff waits for the next reconnect attempt. Returns false if
// the wait was interrupted by shutdown or context cancellation.
func (c *Client) sleepBackoff(ctx context.Context) bool {
	delay := c.backoffMin << c.attempts
	if delay > c.backoffMax || delay <= 0 {
		delay = c.backoffMax
	}
	c.attempts++
	c.logger.Debug("waiting before reconnect", "delay", delay, "attempt", c.attempts)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-c.done:
		return false
	}
}

// register performs the registration handshake. These lines bypass the
// pacer: nothing else may be sent until the server accepts them.
func (c *Client) register() {
	c.mu.Lock()
	c.nick = c.wantNick
	nick := c.nick
	c.mu.Unlock()

	if c.password != "" {
		c.writeLine(NewMessage("PASS", c.password).Raw)
	}
	c.writeLine(NewMessage("NICK", nick).Raw)
	username := c.username
	if username == "" {
		username = nick
	}
	realname := c.realname
	if realname == "" {
		realname = nick
	}
	c.writeLine(NewMessage("USER", username, "*", "*", realname).Raw)
}

// readLoop reads and dispatches lines until the connection fails.
func (c *Client) readLoop(conn net.Conn) error {
	r := bufio.NewReaderSize(conn, 4096)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		c.lastRecv.Store(time.Now().UnixNano())
		c.logger.Debug(">>>", "line", line)
		c.notifier.RawReceived(line)

		msg, perr := ParseMessage(line)
		if perr != nil {
			// The raw event was already reported; nothing semantic can
			// be derived from a malformed line.
			c.logger.Warn("skipping malformed line", "error", perr)
			continue
		}
		if h, ok := wireHandlers[msg.Name]; ok {
			h(c, msg)
		}
	}
}

// keepalive sends client PING probes when the connection is idle and
// drops the connection when nothing has been received for pingTimeout.
func (c *Client) keepalive(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idle := time.Since(time.Unix(0, c.lastRecv.Load()))
			if c.pingTimeout > 0 && idle > c.pingTimeout {
				c.logger.Warn("keepalive window exceeded, dropping connection", "idle", idle)
				c.closeConn()
				return
			}
			if idle >= c.pingInterval {
				c.writeLine(fmt.Sprintf("PING %d", c.pingSeq.Add(1)))
			}
		}
	}
}

// writeLine sends one raw line on the transport, truncating to the
// protocol line limit.
func (c *Client) writeLine(line string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	line = TruncateLine(line)
	c.writeMu.Lock()
	_, err := conn.Write([]byte(line + "\r\n"))
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("irc: write failed: %w", err)
	}
	c.logger.Debug("<<<", "line", line)
	c.notifier.RawSent(line)
	return nil
}

// Send enqueues a message for paced sending.
func (c *Client) Send(m Message) {
	c.pacer.enqueue(m.Raw)
}

// SendRaw enqueues an already-serialized line for paced sending.
func (c *Client) SendRaw(line string) {
	c.pacer.enqueue(line)
}

// Join asks the server to join channel. Channels already joined (or
// with a join in flight) are skipped, so the call is idempotent.
func (c *Client) Join(channel string) {
	c.mu.Lock()
	_, joined := c.joined[channel]
	_, pending := c.pending[channel]
	if !joined && !pending {
		c.pending[channel] = struct{}{}
	}
	c.mu.Unlock()
	if joined || pending {
		return
	}
	c.Send(NewMessage("JOIN", channel))
}

// Part leaves a channel, with an optional message.
func (c *Client) Part(channel, message string) {
	c.mu.Lock()
	delete(c.pending, channel)
	c.mu.Unlock()
	c.Send(NewMessage("PART", channel, flattenText(message)))
}

// Privmsg sends a message to a channel or nick.
func (c *Client) Privmsg(target, message string) {
	c.Send(NewMessage("PRIVMSG", target, flattenText(message)))
}

// Notice sends a notice to a channel or nick.
func (c *Client) Notice(target, message string) {
	c.Send(NewMessage("NOTICE", target, flattenText(message)))
}

// Action sends a CTCP ACTION to a channel or nick.
func (c *Client) Action(target, message string) {
	c.Send(NewMessage("PRIVMSG", target, "\x01ACTION "+flattenText(message)+"\x01"))
}

// Topic tries to set a channel's topic.
func (c *Client) Topic(channel, topic string) {
	c.Send(NewMessage("TOPIC", channel, flattenText(topic)))
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// flattenText replaces line breaks in message text with spaces. Text
// often comes from other users, and a line break inside a parameter
// would smuggle extra commands onto the wire.
func flattenText(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return lineBreaks.Replace(s)
}

// SetNick asks the server to change the session nick. The change takes
// effect when the server confirms it.
func (c *Client) SetNick(nick string) {
	c.mu.Lock()
	c.wantNick = nick
	c.mu.Unlock()
	c.Send(NewMessage("NICK", nick))
}

// Quit sends a QUIT immediately, bypassing the pacer so it reaches the
// server before the connection is torn down.
func (c *Client) Quit(message string) {
	c.writeLine(NewMessage("QUIT", flattenText(message)).Raw)
}
