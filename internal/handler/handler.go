// Package handler builds the event-handler chains trackers export their
// events through.
//
// A chain is singly linked: every handler processes an event and then
// delegates it to its successor. Chains are built from a declarative list
// of handler names (see Build) and are owned by exactly one tracker.
package handler

import (
	"encoding/hex"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Event is one record emitted by a tracker.
type Event struct {
	Tracker string
	Time    time.Time
	Data    []byte
}

// Text renders the payload as text when it is printable UTF-8, hex otherwise.
// Trailing NUL padding from fixed-size kernel buffers is dropped.
func (e Event) Text() string {
	b := e.Data
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	if !utf8.Valid(b) {
		return hex.EncodeToString(e.Data)
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return hex.EncodeToString(e.Data)
		}
	}
	return string(b)
}

// EventHandler is one node of a handler chain.
type EventHandler interface {
	// Handle processes e and delegates it to the successor, if any.
	Handle(e Event)
	// AddHandler sets the successor, replacing any previous one.
	AddHandler(next EventHandler)
	// Next returns the successor or nil.
	Next() EventHandler
}

// Base carries the successor link. Handlers embed it and call Forward at
// the end of Handle.
type Base struct {
	next EventHandler
}

func (b *Base) AddHandler(next EventHandler) { b.next = next }

func (b *Base) Next() EventHandler { return b.next }

// Forward delegates e to the successor.
func (b *Base) Forward(e Event) {
	if b.next != nil {
		b.next.Handle(e)
	}
}

// Func adapts a function into a chain node.
type Func struct {
	Base
	fn func(Event)
}

// NewFunc returns a handler that calls fn before forwarding.
func NewFunc(fn func(Event)) *Func { return &Func{fn: fn} }

func (f *Func) Handle(e Event) {
	if f.fn != nil {
		f.fn(e)
	}
	f.Forward(e)
}

// Chain returns the handlers reachable from head, in delegation order.
func Chain(head EventHandler) []EventHandler {
	var out []EventHandler
	for h := head; h != nil; h = h.Next() {
		out = append(out, h)
	}
	return out
}

var logger = zerolog.Nop()

// SetLogger installs the logger used to report configuration problems.
func SetLogger(l zerolog.Logger) { logger = l }
