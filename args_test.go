package bot

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"spaces only", "   ", []string{}},
		{"plain tokens", "one two three", []string{"one", "two", "three"}},
		{"extra whitespace", "  one \t two  ", []string{"one", "two"}},
		{"quoted segment", `hello "world wide"`, []string{"hello", "world wide"}},
		{"quotes inside token", `he"llo wor"ld`, []string{"hello world"}},
		{"empty quoted token", `""`, []string{""}},
		{"escaped space", `a\ b`, []string{"a b"}},
		{"escaped quote", `say \"hi\"`, []string{"say", `"hi"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitArgs(tt.in)
			if err != nil {
				t.Fatalf("SplitArgs(%q): %v", tt.in, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SplitArgs(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestSplitArgsUnmatched(t *testing.T) {
	for _, in := range []string{`"unterminated`, `trailing\`, `a "b c`} {
		if _, err := SplitArgs(in); !errors.Is(err, ErrUnmatchedQuote) {
			t.Errorf("SplitArgs(%q): got %v, want ErrUnmatchedQuote", in, err)
		}
	}
}
