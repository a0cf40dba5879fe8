package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ns, err := m.Namespace("karma")
	if err != nil {
		t.Fatal(err)
	}

	type score struct {
		Points int    `msgpack:"points"`
		Reason string `msgpack:"reason"`
	}
	in := score{Points: 3, Reason: "helpful"}
	if err := ns.Put(ctx, "alice", in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var out score
	if err := ns.Get(ctx, "alice", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryNotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ns, _ := m.Namespace("karma")

	var out string
	if err := ns.Get(ctx, "nobody", &out); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get absent key: got %v, want ErrNotFound", err)
	}
}

// Two namespaces writing the same key must not observe each other.
func TestMemoryNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a, _ := m.Namespace("plugin_a")
	b, _ := m.Namespace("plugin_b")

	if err := a.Put(ctx, "state", "from a"); err != nil {
		t.Fatal(err)
	}
	if err := b.Put(ctx, "state", "from b"); err != nil {
		t.Fatal(err)
	}

	var got string
	if err := a.Get(ctx, "state", &got); err != nil {
		t.Fatal(err)
	}
	if got != "from a" {
		t.Errorf("namespace a read %q", got)
	}
	if err := b.Get(ctx, "state", &got); err != nil {
		t.Fatal(err)
	}
	if got != "from b" {
		t.Errorf("namespace b read %q", got)
	}
}

// Values are stored encoded: mutating what was put must not change
// what a later Get sees.
func TestMemoryOwnershipIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ns, _ := m.Namespace("lists")

	in := []string{"one", "two"}
	if err := ns.Put(ctx, "items", in); err != nil {
		t.Fatal(err)
	}
	in[0] = "mutated"

	var out []string
	if err := ns.Get(ctx, "items", &out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"one", "two"}, out); diff != "" {
		t.Errorf("stored value changed under mutation (-want +got):\n%s", diff)
	}
}

func TestMemoryDeleteAndKeys(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ns, _ := m.Namespace("keys")

	for _, k := range []string{"b", "a", "c"} {
		if err := ns.Put(ctx, k, k); err != nil {
			t.Fatal(err)
		}
	}
	if err := ns.Delete(ctx, "b"); err != nil {
		t.Fatal(err)
	}

	keys, err := ns.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "c"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryClosed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ns, _ := m.Namespace("karma")
	m.Close(ctx)

	if err := ns.Put(ctx, "k", "v"); !errors.Is(err, ErrClosed) {
		t.Errorf("Put after Close: got %v, want ErrClosed", err)
	}
	if _, err := m.Namespace("other"); !errors.Is(err, ErrClosed) {
		t.Errorf("Namespace after Close: got %v, want ErrClosed", err)
	}
}
