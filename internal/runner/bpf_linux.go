//go:build linux

package runner

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/ringbuf"
	"github.com/cilium/ebpf/rlimit"

	"ecli/internal/handler"
)

// bpfRunner loads an ELF object, attaches its programs by section name and
// streams every ring buffer map into the handler chain.
type bpfRunner struct {
	name    string
	handler handler.EventHandler
	spec    *ebpf.CollectionSpec

	mu      sync.Mutex
	coll    *ebpf.Collection
	links   []link.Link
	readers []*ringbuf.Reader
	wg      sync.WaitGroup
	running bool
}

// NewBPF is the Factory for eBPF trackers.
func NewBPF(h handler.EventHandler, locator string, payload []byte, args []string) (Runner, error) {
	pkg, obj, err := ParsePackage(payload)
	if err != nil {
		return nil, err
	}
	spec, err := ebpf.LoadCollectionSpecFromReader(bytes.NewReader(obj))
	if err != nil {
		return nil, fmt.Errorf("loading collection spec: %w", err)
	}
	values, err := ParseArgs(args)
	if err != nil {
		return nil, err
	}
	if err := setVariables(spec, values); err != nil {
		return nil, err
	}
	return &bpfRunner{name: DisplayName(pkg, locator), handler: h, spec: spec}, nil
}

func (r *bpfRunner) Name() string { return r.name }

func (r *bpfRunner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	if err := rlimit.RemoveMemlock(); err != nil {
		return fmt.Errorf("removing memlock: %w", err)
	}
	coll, err := ebpf.NewCollection(r.spec)
	if err != nil {
		return fmt.Errorf("loading BPF objects: %w", err)
	}
	r.coll = coll

	for name, ps := range r.spec.Programs {
		l, err := attach(ps.SectionName, coll.Programs[name])
		if err != nil {
			return r.closeErrorf(fmt.Sprintf("attaching %s (%s)", name, ps.SectionName), err)
		}
		if l == nil {
			logger.Debug().Str("tracker", r.name).Str("program", name).Str("section", ps.SectionName).Msg("section not attachable, skipped")
			continue
		}
		r.links = append(r.links, l)
	}

	for name, ms := range r.spec.Maps {
		if ms.Type != ebpf.RingBuf {
			continue
		}
		rd, err := ringbuf.NewReader(coll.Maps[name])
		if err != nil {
			return r.closeErrorf("opening ring buffer "+name, err)
		}
		r.readers = append(r.readers, rd)
	}
	for _, rd := range r.readers {
		r.wg.Add(1)
		go r.read(rd)
	}
	r.running = true
	return nil
}

// Stop closes the ring buffers, waits for the readers to drain, then
// detaches and unloads everything.
func (r *bpfRunner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nil
	}
	r.running = false
	return r.release()
}

func (r *bpfRunner) release() error {
	var errs []error
	for _, rd := range r.readers {
		if err := rd.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing ring buffer: %w", err))
		}
	}
	r.wg.Wait()
	for _, l := range r.links {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing link: %w", err))
		}
	}
	if r.coll != nil {
		r.coll.Close()
	}
	r.readers, r.links, r.coll = nil, nil, nil
	if len(errs) > 0 {
		return fmt.Errorf("errors during cleanup: %w", errors.Join(errs...))
	}
	return nil
}

// closeErrorf releases whatever was set up and returns a wrapped error.
func (r *bpfRunner) closeErrorf(what string, e error) error {
	_ = r.release()
	return fmt.Errorf("%s: %w", what, e)
}

func (r *bpfRunner) read(rd *ringbuf.Reader) {
	defer r.wg.Done()
	for {
		record, err := rd.Read()
		if err != nil {
			if errors.Is(err, ringbuf.ErrClosed) {
				return
			}
			logger.Warn().Err(err).Str("tracker", r.name).Msg("reading from ring buffer")
			continue
		}
		if r.handler == nil {
			continue
		}
		r.handler.Handle(handler.Event{Tracker: r.name, Time: time.Now(), Data: record.RawSample})
	}
}

// attach links prog according to its ELF section. Unsupported sections
// return a nil link.
func attach(section string, prog *ebpf.Program) (link.Link, error) {
	ap, ok, err := parseSection(section)
	if err != nil || !ok {
		return nil, err
	}
	switch ap.kind {
	case "kprobe":
		return link.Kprobe(ap.name, prog, nil)
	case "kretprobe":
		return link.Kretprobe(ap.name, prog, nil)
	case "tracepoint":
		return link.Tracepoint(ap.group, ap.name, prog, nil)
	case "raw_tracepoint":
		return link.AttachRawTracepoint(link.RawTracepointOptions{Name: ap.name, Program: prog})
	default:
		return link.AttachTracing(link.TracingOptions{Program: prog})
	}
}

// attachPoint is a program section name split into the link kind and its
// target. Aliases are normalized, so "tp" becomes "tracepoint".
type attachPoint struct {
	kind  string
	group string
	name  string
}

// parseSection reports where a program in section attaches. ok is false for
// sections the runner leaves unattached.
func parseSection(section string) (attachPoint, bool, error) {
	kind, target, _ := strings.Cut(section, "/")
	switch kind {
	case "kprobe", "kretprobe":
		if target == "" {
			return attachPoint{}, false, fmt.Errorf("%s section %q needs a symbol", kind, section)
		}
		return attachPoint{kind: kind, name: target}, true, nil
	case "tracepoint", "tp":
		group, name, ok := strings.Cut(target, "/")
		if !ok || group == "" || name == "" {
			return attachPoint{}, false, fmt.Errorf("tracepoint section %q needs group/name", section)
		}
		return attachPoint{kind: "tracepoint", group: group, name: name}, true, nil
	case "raw_tracepoint", "raw_tp":
		if target == "" {
			return attachPoint{}, false, fmt.Errorf("raw tracepoint section %q needs a name", section)
		}
		return attachPoint{kind: "raw_tracepoint", name: target}, true, nil
	case "fentry", "fexit", "tp_btf":
		return attachPoint{kind: kind, name: target}, true, nil
	default:
		return attachPoint{}, false, nil
	}
}

// setVariables assigns tracker arguments to the object's global variables.
func setVariables(spec *ebpf.CollectionSpec, values map[string]string) error {
	for name, raw := range values {
		v, ok := spec.Variables[name]
		if !ok {
			return fmt.Errorf("unknown tracker argument %q", name)
		}
		val, err := sizedValue(raw, v.Size())
		if err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
		if err := v.Set(val); err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
	}
	return nil
}

// sizedValue converts raw into an integer of size bytes. Values that fit
// neither the signed nor the unsigned range are rejected rather than
// truncated. A one-byte variable also accepts booleans.
func sizedValue(raw string, size uint64) (any, error) {
	switch size {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("unsupported variable size %d", size)
	}
	if size == 1 {
		if b, err := strconv.ParseBool(raw); err == nil {
			if b {
				return uint8(1), nil
			}
			return uint8(0), nil
		}
	}
	bits := int(size * 8)
	if n, err := strconv.ParseInt(raw, 0, bits); err == nil {
		switch size {
		case 1:
			return int8(n), nil
		case 2:
			return int16(n), nil
		case 4:
			return int32(n), nil
		default:
			return n, nil
		}
	}
	u, err := strconv.ParseUint(raw, 0, bits)
	if err != nil {
		return nil, fmt.Errorf("value %q does not fit %d bytes: %w", raw, size, err)
	}
	switch size {
	case 1:
		return uint8(u), nil
	case 2:
		return uint16(u), nil
	case 4:
		return uint32(u), nil
	default:
		return u, nil
	}
}
