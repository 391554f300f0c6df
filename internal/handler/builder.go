package handler

import "ecli/pkg/types"

// Kind enumerates the handler variants a chain can be built from.
type Kind int

const (
	// KindNone explicitly produces no handler.
	KindNone Kind = iota
	KindPlainText
)

var kindNames = map[string]Kind{
	"none":       KindNone,
	"plain_text": KindPlainText,
}

var kindStrings = [...]string{
	KindNone:      "none",
	KindPlainText: "plain_text",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindStrings) {
		return "unknown"
	}
	return kindStrings[k]
}

// ParseKind resolves a configured handler name.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindNames[name]
	return k, ok
}

// New instantiates a handler of kind k. KindNone yields nil.
func New(k Kind) EventHandler {
	switch k {
	case KindPlainText:
		return NewPlainText(currentOutput())
	default:
		return nil
	}
}

// Build instantiates the handlers named in specs and links them in order.
// The first handler created is the returned head. Each later handler is
// attached to the handler created just before it, which is the chain's
// tail because fresh handlers have no successor. Unknown names are logged
// and skipped; "none" entries are skipped silently. Build returns nil when
// no handler was created.
func Build(specs []types.HandlerConfig) EventHandler {
	var head, cur EventHandler
	for _, spec := range specs {
		k, ok := ParseKind(spec.Name)
		if !ok {
			logger.Warn().Str("handler", spec.Name).Msg("unsupported event handler")
			continue
		}
		h := New(k)
		if h == nil {
			continue
		}
		if cur == nil {
			head = h
		} else {
			cur.AddHandler(h)
		}
		cur = h
	}
	return head
}
