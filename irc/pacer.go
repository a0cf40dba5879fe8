package irc

import (
	"context"
	"sync"
	"time"

	"github.com/ircflow/ircbot/ratelimit"
)

// queuedLine is one serialized outgoing wire command waiting to be sent.
type queuedLine struct {
	line     string
	enqueued time.Time
}

// pacer rate-limits outgoing wire commands. Handlers enqueue from any
// goroutine; a single drain loop per connection sends lines in FIFO
// order, gated by a token bucket. When the queue exceeds its depth cap
// the oldest entry is dropped and reported via onDrop.
type pacer struct {
	limiter *ratelimit.TokenBucket
	depth   int
	onDrop  func(line string)

	mu    sync.Mutex
	queue []queuedLine
	wake  chan struct{}
}

func newPacer(interval time.Duration, burst, depth int, onDrop func(string)) *pacer {
	if interval <= 0 {
		interval = time.Millisecond
	}
	if burst < 1 {
		burst = 1
	}
	return &pacer{
		limiter: ratelimit.NewInterval(interval, burst),
		depth:   depth,
		onDrop:  onDrop,
		wake:    make(chan struct{}, 1),
	}
}

// enqueue adds a line to the tail of the queue. If the depth cap is
// exceeded the oldest entry is discarded and reported; the new entry is
// always kept.
func (p *pacer) enqueue(line string) {
	var dropped string
	p.mu.Lock()
	p.queue = append(p.queue, queuedLine{line: line, enqueued: time.Now()})
	if p.depth > 0 && len(p.queue) > p.depth {
		dropped = p.queue[0].line
		p.queue = p.queue[1:]
	}
	p.mu.Unlock()

	if dropped != "" && p.onDrop != nil {
		p.onDrop(dropped)
	}
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// pop removes and returns the head of the queue.
func (p *pacer) pop() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return "", false
	}
	line := p.queue[0].line
	p.queue = p.queue[1:]
	return line, true
}

// clear discards all queued lines. Called on disconnect: nothing queued
// before a connection was lost is re-sent on the next one.
func (p *pacer) clear() {
	p.mu.Lock()
	p.queue = nil
	p.mu.Unlock()
}

// drain sends queued lines through write until ctx is cancelled or a
// write fails. FIFO order is preserved and each send waits for the
// limiter first, so consecutive writes are separated by at least the
// configured interval once the burst allowance is spent.
func (p *pacer) drain(ctx context.Context, write func(string) error) {
	for {
		line, ok := p.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-p.wake:
				continue
			}
		}
		if err := p.limiter.Wait(ctx); err != nil {
			return
		}
		if err := write(line); err != nil {
			return
		}
	}
}
