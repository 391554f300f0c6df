// Package resolver turns a tracker locator into the package payload the
// runner loads.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ecli/internal/common/fsutil"
)

// Resolver fetches and validates a tracker package.
type Resolver interface {
	// Resolve returns the package JSON for locator. A non-empty inline
	// payload is used as-is and locator is not fetched.
	Resolve(ctx context.Context, locator, inline string) ([]byte, error)
}

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBytes     = 64 << 20
)

// Default resolves inline payloads, local files and http(s) URLs.
type Default struct {
	Client *http.Client
	// FetchTimeout bounds a remote fetch. Zero uses 30s.
	FetchTimeout time.Duration
	// MaxBytes caps the payload size. Zero uses 64 MiB.
	MaxBytes int64
}

// New returns a Default resolver using http.DefaultClient.
func New() *Default { return &Default{Client: http.DefaultClient} }

func (d *Default) Resolve(ctx context.Context, locator, inline string) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	switch {
	case inline != "":
		if int64(len(inline)) > d.maxBytes() {
			return nil, fmt.Errorf("inline package exceeds %d bytes", d.maxBytes())
		}
		b = []byte(inline)
	case locator == "":
		return nil, fmt.Errorf("empty tracker locator")
	case fsutil.IsRemote(locator):
		b, err = d.fetch(ctx, locator)
	default:
		b, err = d.readFile(locator)
	}
	if err != nil {
		return nil, err
	}
	if err := validate(b); err != nil {
		return nil, fmt.Errorf("%s: %w", describe(locator), err)
	}
	return b, nil
}

func (d *Default) maxBytes() int64 {
	if d.MaxBytes <= 0 {
		return defaultMaxBytes
	}
	return d.MaxBytes
}

func (d *Default) readFile(locator string) ([]byte, error) {
	p, err := fsutil.ExpandHome(locator)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, d.maxBytes()+1))
	if err != nil {
		return nil, fmt.Errorf("read package: %w", err)
	}
	if int64(len(b)) > d.maxBytes() {
		return nil, fmt.Errorf("package %s exceeds %d bytes", p, d.maxBytes())
	}
	return b, nil
}

func (d *Default) fetch(ctx context.Context, url string) ([]byte, error) {
	timeout := d.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes()+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if int64(len(b)) > d.maxBytes() {
		return nil, fmt.Errorf("fetch %s: package exceeds %d bytes", url, d.maxBytes())
	}
	return b, nil
}

// validate requires a JSON object.
func validate(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("package is not a JSON object")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return fmt.Errorf("invalid package JSON: %w", err)
	}
	return nil
}

func describe(locator string) string {
	if locator == "" {
		return "inline package"
	}
	return locator
}
