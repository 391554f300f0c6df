package handler

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ecli/pkg/types"
)

func specs(names ...string) []types.HandlerConfig {
	out := make([]types.HandlerConfig, 0, len(names))
	for _, n := range names {
		out = append(out, types.HandlerConfig{Name: n})
	}
	return out
}

func TestBuild_None(t *testing.T) {
	if h := Build(specs("none")); h != nil {
		t.Fatalf("expected no handler, got %T", h)
	}
	if h := Build(nil); h != nil {
		t.Fatalf("expected no handler for empty list, got %T", h)
	}
}

func TestBuild_SinglePlainText(t *testing.T) {
	h := Build(specs("plain_text"))
	if h == nil {
		t.Fatalf("expected a handler")
	}
	if _, ok := h.(*PlainText); !ok {
		t.Fatalf("expected *PlainText, got %T", h)
	}
	if h.Next() != nil {
		t.Fatalf("expected no successor")
	}
}

func TestBuild_TwoPlainTextLinked(t *testing.T) {
	h := Build(specs("plain_text", "plain_text"))
	chain := Chain(h)
	if len(chain) != 2 {
		t.Fatalf("expected 2 linked handlers, got %d", len(chain))
	}
	if chain[0] == chain[1] {
		t.Fatalf("expected distinct handler instances")
	}
}

func TestBuild_UnsupportedIsSkippedWithWarning(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())

	if h := Build(specs("bogus")); h != nil {
		t.Fatalf("expected no handler, got %T", h)
	}
	out := buf.String()
	if !strings.Contains(out, "unsupported event handler") || !strings.Contains(out, "bogus") {
		t.Fatalf("expected warning naming the handler, got %q", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("expected warn level, got %q", out)
	}
}

func TestBuild_SkipsNoneAndUnknownBetweenHandlers(t *testing.T) {
	h := Build(specs("none", "plain_text", "bogus", "none", "plain_text"))
	if n := len(Chain(h)); n != 2 {
		t.Fatalf("expected 2 handlers, got %d", n)
	}
}

// Each new handler is attached to the handler created just before it, not
// to a separately tracked tail. With three handlers the third hangs off
// the second.
func TestBuild_AttachesToMostRecentlyCreated(t *testing.T) {
	h := Build(specs("plain_text", "plain_text", "plain_text"))
	chain := Chain(h)
	if len(chain) != 3 {
		t.Fatalf("expected 3 handlers, got %d", len(chain))
	}
	if chain[0].Next() != chain[1] || chain[1].Next() != chain[2] {
		t.Fatalf("unexpected links: %v", chain)
	}
	if chain[2].Next() != nil {
		t.Fatalf("last handler must not have a successor")
	}
}

func TestBuild_PreservesOrderOnDelivery(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	var seen []string
	first := Build(specs("plain_text"))
	first.AddHandler(NewFunc(func(e Event) { seen = append(seen, "func:"+e.Tracker) }))

	first.Handle(Event{Tracker: "opensnoop", Time: time.Unix(0, 0), Data: []byte("open /etc/passwd")})
	if !strings.Contains(buf.String(), "opensnoop open /etc/passwd") {
		t.Fatalf("printer output=%q", buf.String())
	}
	if len(seen) != 1 || seen[0] != "func:opensnoop" {
		t.Fatalf("successor not reached: %v", seen)
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]struct {
		kind Kind
		ok   bool
	}{
		"plain_text": {KindPlainText, true},
		"none":       {KindNone, true},
		"json":       {KindNone, false},
		"":           {KindNone, false},
	}
	for in, want := range cases {
		k, ok := ParseKind(in)
		if ok != want.ok || (ok && k != want.kind) {
			t.Fatalf("ParseKind(%q) = %v,%v want %v,%v", in, k, ok, want.kind, want.ok)
		}
	}
	if KindPlainText.String() != "plain_text" {
		t.Fatalf("String()=%q", KindPlainText.String())
	}
}

func TestKindString(t *testing.T) {
	for i := range kindStrings {
		k := Kind(i)
		if back, ok := ParseKind(k.String()); !ok || back != k {
			t.Fatalf("kind %d: String()=%q parses back to %v,%v", i, k.String(), back, ok)
		}
	}
	for _, k := range []Kind{-1, Kind(len(kindStrings))} {
		if k.String() != "unknown" {
			t.Fatalf("kind %d: String()=%q", int(k), k.String())
		}
	}
}
