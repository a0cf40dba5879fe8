package irc

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"
)

// fakeServer hands out in-process connections to the client's dialer
// and lets tests play the server side of the protocol.
type fakeServer struct {
	conns chan net.Conn
}

func newFakeServer() *fakeServer {
	return &fakeServer{conns: make(chan net.Conn, 4)}
}

func (s *fakeServer) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	client, server := net.Pipe()
	s.conns <- server
	return client, nil
}

func (s *fakeServer) accept(t *testing.T) *serverConn {
	t.Helper()
	select {
	case conn := <-s.conns:
		return &serverConn{t: t, conn: conn, r: bufio.NewReader(conn)}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the client to connect")
		return nil
	}
}

type serverConn struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func (s *serverConn) readLine() string {
	s.t.Helper()
	s.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := s.r.ReadString('\n')
	if err != nil {
		s.t.Fatalf("server read: %v", err)
	}
	return strings.TrimRight(line, "\r\n")
}

// expect reads lines until one matches want exactly.
func (s *serverConn) expect(want string) {
	s.t.Helper()
	for {
		if got := s.readLine(); got == want {
			return
		}
	}
}

func (s *serverConn) send(line string) {
	s.t.Helper()
	s.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := s.conn.Write([]byte(line + "\r\n")); err != nil {
		s.t.Fatalf("server write: %v", err)
	}
}

func (s *serverConn) close() {
	s.conn.Close()
}

// recorder captures the notifications tests care about.
type recorder struct {
	NopNotifier
	welcomes    chan struct{}
	joins       chan string
	privmsgs    chan string
	disconnects chan error
	nicks       chan string
}

func newRecorder() *recorder {
	return &recorder{
		welcomes:    make(chan struct{}, 4),
		joins:       make(chan string, 4),
		privmsgs:    make(chan string, 4),
		disconnects: make(chan error, 4),
		nicks:       make(chan string, 4),
	}
}

func (r *recorder) Welcome()                           { r.welcomes <- struct{}{} }
func (r *recorder) Joined(channel string)              { r.joins <- channel }
func (r *recorder) Disconnected(err error)             { r.disconnects <- err }
func (r *recorder) NickChanged(nick string)            { r.nicks <- nick }
func (r *recorder) Privmsg(u User, target, msg string) { r.privmsgs <- target + " " + msg }

func waitFor[T any](t *testing.T, ch chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		var zero T
		return zero
	}
}

func newTestClient(srv *fakeServer, rec *recorder, opts ...Option) *Client {
	base := []Option{
		WithDialer(srv.dial),
		WithNotifier(rec),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithKeepalive(0, 0),
		WithBackoff(10*time.Millisecond, 50*time.Millisecond),
		WithPacing(time.Millisecond, 4, 16),
	}
	return NewClient("irc.test:6667", "bot", append(base, opts...)...)
}

func TestClientRegistration(t *testing.T) {
	srv := newFakeServer()
	rec := newRecorder()
	c := newTestClient(srv, rec, WithPassword("sekrit"), WithUser("ident", "Real Name"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	s := srv.accept(t)
	defer s.close()
	s.expect("PASS sekrit")
	s.expect("NICK bot")
	s.expect("USER ident * * :Real Name")
	s.send(":irc.test 001 bot :Welcome to the test network")

	waitFor(t, rec.welcomes, "welcome")
	if got := c.State(); got != Connected {
		t.Errorf("state = %v, want %v", got, Connected)
	}
	if got := c.Nick(); got != "bot" {
		t.Errorf("nick = %q, want %q", got, "bot")
	}
}

func TestClientAnswersPing(t *testing.T) {
	srv := newFakeServer()
	rec := newRecorder()
	c := newTestClient(srv, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	s := srv.accept(t)
	defer s.close()
	s.expect("USER bot * * :bot")
	s.send(":irc.test 001 bot :Welcome")
	waitFor(t, rec.welcomes, "welcome")

	s.send("PING :abc123")
	s.expect("PONG :abc123")
}

func TestClientNickCollision(t *testing.T) {
	srv := newFakeServer()
	rec := newRecorder()
	c := newTestClient(srv, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	s := srv.accept(t)
	defer s.close()
	s.expect("NICK bot")
	// The client is still blocked writing USER; drain it before
	// replying, or both sides of the pipe wait on each other.
	s.expect("USER bot * * :bot")
	s.send(":irc.test 433 * bot :Nickname is already in use")
	s.expect("NICK bot_")
	s.send(":irc.test 433 * bot_ :Nickname is already in use")
	s.expect("NICK bot__")
	s.send(":irc.test 001 bot__ :Welcome")

	waitFor(t, rec.welcomes, "welcome")
	if got := c.Nick(); got != "bot__" {
		t.Errorf("nick = %q, want %q", got, "bot__")
	}
}

// A nick collision on a server that truncated the requested nick must
// not retry the same truncated value forever.
func TestClientNickCollisionTruncated(t *testing.T) {
	srv := newFakeServer()
	rec := newRecorder()
	c := newTestClient(srv, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	s := srv.accept(t)
	defer s.close()
	s.expect("NICK bot")
	s.expect("USER bot * * :bot")
	// The server claims "bo" is taken: it truncated the nick.
	s.send(":irc.test 433 * bo :Nickname is already in use")
	s.expect("NICK b_")
}

func TestClientWelcomeAdoptsServerNick(t *testing.T) {
	srv := newFakeServer()
	rec := newRecorder()
	c := newTestClient(srv, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	s := srv.accept(t)
	defer s.close()
	s.expect("USER bot * * :bot")
	s.send(":irc.test 001 shortbot :Welcome")

	if got := waitFor(t, rec.nicks, "nick change"); got != "shortbot" {
		t.Errorf("nick change = %q, want %q", got, "shortbot")
	}
	waitFor(t, rec.welcomes, "welcome")
	if got := c.Nick(); got != "shortbot" {
		t.Errorf("nick = %q, want %q", got, "shortbot")
	}
}

func TestClientReconnectRejoinsOnce(t *testing.T) {
	srv := newFakeServer()
	rec := newRecorder()
	c := newTestClient(srv, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	s1 := srv.accept(t)
	s1.expect("USER bot * * :bot")
	s1.send(":irc.test 001 bot :Welcome")
	waitFor(t, rec.welcomes, "first welcome")

	c.Join("#chaos")
	s1.expect("JOIN #chaos")
	s1.send(":bot!bot@host JOIN #chaos")
	waitFor(t, rec.joins, "first join")

	// A duplicate Join for an already-joined channel sends nothing.
	c.Join("#chaos")

	s1.close()
	waitFor(t, rec.disconnects, "disconnect")

	s2 := srv.accept(t)
	defer s2.close()
	s2.expect("USER bot * * :bot")
	s2.send(":irc.test 001 bot :Welcome back")
	waitFor(t, rec.welcomes, "second welcome")

	s2.expect("JOIN #chaos")
	// Application-level channel joining racing the automatic rejoin
	// must not produce a second JOIN.
	c.Join("#chaos")
	c.Privmsg("#chaos", "marker")
	if got := s2.readLine(); got != "PRIVMSG #chaos :marker" {
		t.Fatalf("after rejoin got %q, want the marker PRIVMSG", got)
	}
}

func TestClientQueueClearedOnDisconnect(t *testing.T) {
	srv := newFakeServer()
	rec := newRecorder()
	c := newTestClient(srv, rec, WithPacing(200*time.Millisecond, 1, 16))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	s1 := srv.accept(t)
	s1.expect("USER bot * * :bot")
	s1.send(":irc.test 001 bot :Welcome")
	waitFor(t, rec.welcomes, "first welcome")

	// Fill the queue faster than it drains, then drop the connection
	// with lines still queued. They must not surface on the next
	// connection.
	c.Privmsg("#chaos", "one")
	c.Privmsg("#chaos", "two")
	c.Privmsg("#chaos", "three")
	s1.expect("PRIVMSG #chaos :one")
	s1.close()
	waitFor(t, rec.disconnects, "disconnect")

	s2 := srv.accept(t)
	defer s2.close()
	s2.expect("USER bot * * :bot")
	s2.send(":irc.test 001 bot :Welcome back")
	waitFor(t, rec.welcomes, "second welcome")

	c.Privmsg("#chaos", "after")
	if got := s2.readLine(); got != "PRIVMSG #chaos :after" {
		t.Fatalf("got %q, want only the post-reconnect PRIVMSG", got)
	}
}

func TestClientClose(t *testing.T) {
	srv := newFakeServer()
	rec := newRecorder()
	c := newTestClient(srv, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	s := srv.accept(t)
	defer s.close()
	s.expect("USER bot * * :bot")
	s.send(":irc.test 001 bot :Welcome")
	waitFor(t, rec.welcomes, "welcome")

	c.Close()
	if err := waitFor(t, runErr, "Run to return"); err != nil {
		t.Errorf("Run returned %v, want nil after Close", err)
	}
	if got := c.State(); got != Terminated {
		t.Errorf("state = %v, want %v", got, Terminated)
	}
}

func TestClientMessageEvents(t *testing.T) {
	srv := newFakeServer()
	rec := newRecorder()
	c := newTestClient(srv, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	s := srv.accept(t)
	defer s.close()
	s.expect("USER bot * * :bot")
	s.send(":irc.test 001 bot :Welcome")
	waitFor(t, rec.welcomes, "welcome")

	s.send(":alice!a@host PRIVMSG #chaos :hello there")
	if got := waitFor(t, rec.privmsgs, "privmsg"); got != "#chaos hello there" {
		t.Errorf("privmsg = %q", got)
	}

	// A CTCP VERSION query is not a privmsg.
	s.send(":alice!a@host PRIVMSG bot :\x01VERSION\x01")
	s.send(":alice!a@host PRIVMSG #chaos :plain again")
	if got := waitFor(t, rec.privmsgs, "second privmsg"); got != "#chaos plain again" {
		t.Errorf("privmsg after CTCP = %q", got)
	}
}

// Message text containing line breaks must not reach the wire as extra
// commands.
func TestClientFlattensOutgoingText(t *testing.T) {
	srv := newFakeServer()
	rec := newRecorder()
	c := newTestClient(srv, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	s := srv.accept(t)
	defer s.close()
	s.expect("USER bot * * :bot")
	s.send(":irc.test 001 bot :Welcome")
	waitFor(t, rec.welcomes, "welcome")

	c.Privmsg("#chaos", "hi\r\nQUIT :boom")
	if got := s.readLine(); got != "PRIVMSG #chaos :hi QUIT :boom" {
		t.Errorf("got %q, want the line breaks flattened into one command", got)
	}

	c.Privmsg("#chaos", "marker")
	if got := s.readLine(); got != "PRIVMSG #chaos :marker" {
		t.Errorf("got %q, want the marker as the very next command", got)
	}
}
