// Package report shows a fatal pipeline error to the user.
package report

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/richinsley/goshadercam/capture"
)

// Reporter shows an error to the user.
type Reporter interface {
	Report(err error)
}

// Panel writes a framed error message. The first report wins: later ones are
// only logged. When a source is attached it is stopped and detached on that
// first report, and every function registered with Halt runs.
type Panel struct {
	Out   io.Writer
	Title string

	mu       sync.Mutex
	source   capture.Stopper
	halts    []func()
	reported bool
	err      error
}

// NewPanel returns a panel writing to stderr.
func NewPanel() *Panel {
	return &Panel{Out: os.Stderr, Title: "goshadercam"}
}

// Attach sets the source stopped by the first report.
func (p *Panel) Attach(source capture.Stopper) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = source
}

// Halt registers f to run on the first report. If an error was already
// reported f runs immediately.
func (p *Panel) Halt(f func()) {
	p.mu.Lock()
	if p.reported {
		p.mu.Unlock()
		f()
		return
	}
	p.halts = append(p.halts, f)
	p.mu.Unlock()
}

// Report shows err unless an error was already reported. It is safe for
// concurrent use.
func (p *Panel) Report(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.reported {
		p.mu.Unlock()
		log.Printf("Suppressed further error: %v", err)
		return
	}
	p.reported = true
	p.err = err
	source := p.source
	halts := p.halts
	p.source = nil
	p.halts = nil
	p.mu.Unlock()

	if source != nil {
		if stopErr := source.Stop(); stopErr != nil {
			log.Printf("Failed to stop source: %v", stopErr)
		}
	}
	for _, f := range halts {
		f()
	}
	fmt.Fprint(p.Out, Frame(p.Title, err.Error()))
}

// Err returns the reported error, if any.
func (p *Panel) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Frame draws a box around title and message.
func Frame(title, message string) string {
	lines := strings.Split(strings.TrimRight(message, "\n"), "\n")
	width := len(title)
	for _, l := range lines {
		if len(l) > width {
			width = len(l)
		}
	}

	var b strings.Builder
	rule := "+" + strings.Repeat("-", width+2) + "+\n"
	b.WriteString(rule)
	fmt.Fprintf(&b, "| %-*s |\n", width, title)
	b.WriteString(rule)
	for _, l := range lines {
		fmt.Fprintf(&b, "| %-*s |\n", width, l)
	}
	b.WriteString(rule)
	return b.String()
}
