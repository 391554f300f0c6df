// Package runner defines the runnable unit behind a tracker and provides
// the eBPF implementation used by ecli.
package runner

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"ecli/internal/handler"
)

// Runner is a startable, stoppable observation unit.
type Runner interface {
	Name() string
	// Start begins execution and returns once the unit is running.
	Start() error
	// Stop terminates execution and returns after resources are released.
	Stop() error
}

// Factory creates a Runner from a resolved package. Events the runner emits
// are delivered to h, which may be nil.
type Factory func(h handler.EventHandler, locator string, payload []byte, args []string) (Runner, error)

// Package is the tracker package format.
type Package struct {
	Name string `json:"name"`
	// BPFObject is the compiled ELF object, base64 encoded.
	BPFObject string `json:"bpf_object"`
}

// ParsePackage decodes payload and returns the package and its ELF object.
func ParsePackage(payload []byte) (Package, []byte, error) {
	var pkg Package
	if err := json.Unmarshal(payload, &pkg); err != nil {
		return pkg, nil, fmt.Errorf("decode package: %w", err)
	}
	if pkg.BPFObject == "" {
		return pkg, nil, fmt.Errorf("package has no bpf_object")
	}
	obj, err := base64.StdEncoding.DecodeString(pkg.BPFObject)
	if err != nil {
		return pkg, nil, fmt.Errorf("decode bpf_object: %w", err)
	}
	return pkg, obj, nil
}

// DisplayName picks the name a runner reports: the package name, else the
// locator's base name without extension, else "tracker".
func DisplayName(pkg Package, locator string) string {
	if pkg.Name != "" {
		return pkg.Name
	}
	if locator != "" {
		base := filepath.Base(locator)
		if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" && name != "." && name != "/" {
			return name
		}
	}
	return "tracker"
}

// ParseArgs turns "--name value", "--name=value" and bare "--flag" tokens
// into a name/value map. Bare flags map to "true".
func ParseArgs(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") {
			return nil, fmt.Errorf("unexpected argument %q", a)
		}
		name := strings.TrimLeft(a, "-")
		if name == "" {
			return nil, fmt.Errorf("empty argument name")
		}
		if k, v, ok := strings.Cut(name, "="); ok {
			out[k] = v
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			out[name] = args[i+1]
			i++
			continue
		}
		out[name] = "true"
	}
	return out, nil
}

// dependencyUnavailableError signals that the eBPF runtime cannot be used
// on this platform.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}

var logger = zerolog.Nop()

// SetLogger installs the logger used by runners.
func SetLogger(l zerolog.Logger) { logger = l }
