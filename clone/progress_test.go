package clone //nolint

import (
	"fmt"
	"testing"
)

func TestProgressOrderAndAccumulation(t *testing.T) { //nolint:paralleltest
	var consumed []string

	p := newProgress(func(line string) {
		consumed = append(consumed, line)
	})

	const total = progressBufferSize * 3 // force the producer past the buffer

	want := make([]string, total)
	for i := range total {
		want[i] = fmt.Sprintf("line %d", i)
		p.Report(want[i])
	}

	lines := p.Close()

	if len(lines) != total {
		t.Fatalf("accumulated %d lines, want %d", len(lines), total)
	}

	for i, line := range lines {
		if line != want[i] {
			t.Fatalf("line %d = %q, want %q", i, line, want[i])
		}
	}

	// the consumer callback observed the same lines in the same order
	if len(consumed) != total {
		t.Fatalf("consumed %d lines, want %d", len(consumed), total)
	}
	for i, line := range consumed {
		if line != want[i] {
			t.Fatalf("consumed line %d = %q, want %q", i, line, want[i])
		}
	}
}

func TestProgressNilConsumer(t *testing.T) { //nolint:paralleltest
	p := newProgress(nil)

	p.Report("one")
	p.Reportf("%s", "two")

	lines := p.Close()
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("lines = %v", lines)
	}
}
