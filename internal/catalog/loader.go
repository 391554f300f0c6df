// Package catalog discovers tracker packages on disk.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ecli/internal/common/fsutil"
	"ecli/pkg/types"
)

// DefaultHandler is attached to every discovered tracker.
const DefaultHandler = "plain_text"

// LoadDir scans a directory for *.json tracker packages and returns one
// TrackerConfig per file, in filename order. URL is the absolute file path.
func LoadDir(dir string) ([]types.TrackerConfig, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []types.TrackerConfig
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".json") {
			continue
		}
		out = append(out, types.TrackerConfig{
			URL:            filepath.Join(abs, name),
			ExportHandlers: []types.HandlerConfig{{Name: DefaultHandler}},
		})
	}
	return out, nil
}

// Merge appends discovered trackers to the configured ones, skipping
// locators that are already configured.
func Merge(configured, discovered []types.TrackerConfig) []types.TrackerConfig {
	seen := make(map[string]struct{}, len(configured))
	out := make([]types.TrackerConfig, 0, len(configured)+len(discovered))
	for _, c := range configured {
		if c.URL != "" {
			seen[c.URL] = struct{}{}
		}
		out = append(out, c)
	}
	for _, d := range discovered {
		if _, ok := seen[d.URL]; ok {
			continue
		}
		seen[d.URL] = struct{}{}
		out = append(out, d)
	}
	return out
}
