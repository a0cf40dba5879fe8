package irc

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// collectLines drains the pacer into a slice until n lines arrived or
// the timeout expired.
func collectLines(t *testing.T, p *pacer, n int, timeout time.Duration) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	lines := make(chan string, n)
	go p.drain(ctx, func(line string) error {
		lines <- line
		return nil
	})

	var got []string
	for len(got) < n {
		select {
		case line := <-lines:
			got = append(got, line)
		case <-ctx.Done():
			t.Fatalf("timed out after %d of %d lines", len(got), n)
		}
	}
	return got
}

func TestPacerFIFO(t *testing.T) {
	p := newPacer(time.Millisecond, 1, 10, nil)
	p.enqueue("one")
	p.enqueue("two")
	p.enqueue("three")

	got := collectLines(t, p, 3, time.Second)
	if diff := cmp.Diff([]string{"one", "two", "three"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestPacerSpacing(t *testing.T) {
	const interval = 50 * time.Millisecond
	p := newPacer(interval, 1, 10, nil)
	p.enqueue("a")
	p.enqueue("b")
	p.enqueue("c")

	start := time.Now()
	collectLines(t, p, 3, 2*time.Second)
	elapsed := time.Since(start)

	// First line is covered by the burst allowance, the other two each
	// wait a full interval.
	if want := 2 * interval; elapsed < want-10*time.Millisecond {
		t.Errorf("3 lines took %v, want at least %v", elapsed, want)
	}
}

func TestPacerBurst(t *testing.T) {
	p := newPacer(time.Second, 3, 10, nil)
	p.enqueue("a")
	p.enqueue("b")
	p.enqueue("c")

	start := time.Now()
	collectLines(t, p, 3, time.Second)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("burst of 3 took %v, should be nearly immediate", elapsed)
	}
}

func TestPacerDropsOldest(t *testing.T) {
	var dropped []string
	p := newPacer(time.Millisecond, 1, 2, func(line string) {
		dropped = append(dropped, line)
	})

	// No drain loop running: the queue fills and overflows.
	p.enqueue("one")
	p.enqueue("two")
	p.enqueue("three")
	p.enqueue("four")

	if diff := cmp.Diff([]string{"one", "two"}, dropped); diff != "" {
		t.Errorf("dropped lines mismatch (-want +got):\n%s", diff)
	}

	got := collectLines(t, p, 2, time.Second)
	if diff := cmp.Diff([]string{"three", "four"}, got); diff != "" {
		t.Errorf("surviving lines mismatch (-want +got):\n%s", diff)
	}
}

func TestPacerClear(t *testing.T) {
	p := newPacer(time.Millisecond, 1, 10, nil)
	p.enqueue("stale")
	p.clear()

	if line, ok := p.pop(); ok {
		t.Errorf("pop after clear returned %q", line)
	}
}
