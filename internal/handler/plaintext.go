package handler

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	outMu  sync.RWMutex
	output io.Writer = os.Stdout
)

// SetOutput sets the writer new plain-text printers write to. Nil restores
// stdout.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	output = w
}

func currentOutput() io.Writer {
	outMu.RLock()
	defer outMu.RUnlock()
	return output
}

// PlainText prints every event as one line of text.
type PlainText struct {
	Base
	mu sync.Mutex
	w  io.Writer
}

// NewPlainText returns a printer writing to w.
func NewPlainText(w io.Writer) *PlainText {
	return &PlainText{w: w}
}

func (p *PlainText) Handle(e Event) {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	p.mu.Lock()
	_, _ = fmt.Fprintf(p.w, "%s %s %s\n", ts.Format("15:04:05.000000"), e.Tracker, e.Text())
	p.mu.Unlock()
	p.Forward(e)
}
