package notify

import (
	"fmt"
	"io"
	"sync"
)

// Notifier surfaces short user-facing outcome messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type Writer struct {
	mu  sync.Mutex
	Out io.Writer
	Err io.Writer
}

func NewWriter(out, errOut io.Writer) *Writer {
	return &Writer{Out: out, Err: errOut}
}

func (w *Writer) Success(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.Out, "✓ %s\n", msg)
}

func (w *Writer) Error(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.Err, "✗ %s\n", msg)
}

type discard struct{}

func (discard) Success(string) {}
func (discard) Error(string)   {}

// Discard drops every message.
var Discard Notifier = discard{}
