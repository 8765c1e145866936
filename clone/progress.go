package clone

import (
	"fmt"
)

const progressBufferSize = 64

// Progress delivers human-readable progress lines through a bounded
// channel drained by a single consumer goroutine, preserving strict
// emission order. Lines are accumulated and returned by Close for the
// operation Result.
type Progress struct {
	ch   chan string
	done chan struct{}

	fn    func(line string)
	lines []string
}

// newProgress starts the consumer. fn may be nil; when set, it is invoked
// once per line, in order, from the consumer goroutine.
func newProgress(fn func(line string)) *Progress {
	p := &Progress{
		ch:   make(chan string, progressBufferSize),
		done: make(chan struct{}),
		fn:   fn,
	}

	go p.run()

	return p
}

func (p *Progress) run() {
	defer close(p.done)

	for line := range p.ch {
		p.lines = append(p.lines, line)

		if p.fn != nil {
			p.fn(line)
		}
	}
}

// Report emits one progress line.
func (p *Progress) Report(line string) {
	p.ch <- line
}

// Reportf emits one formatted progress line.
func (p *Progress) Reportf(format string, vals ...any) {
	p.Report(fmt.Sprintf(format, vals...))
}

// Close drains the channel and returns all lines in emission order. The
// Progress must not be used afterward.
func (p *Progress) Close() []string {
	close(p.ch)
	<-p.done

	return p.lines
}
