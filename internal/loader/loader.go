package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andrew-lundgren/hveto/internal/config"
	"github.com/andrew-lundgren/hveto/internal/segments"
	"github.com/andrew-lundgren/hveto/internal/trigger"
)

// Loader reads one trigger table from disk.
type Loader interface {
	Load() ([]trigger.Trigger, error)
}

// New returns the appropriate Loader for the given source configuration.
func New(src config.Source) (Loader, error) {
	kind, err := trigger.ParseKind(src.Kind)
	if err != nil {
		return nil, fmt.Errorf("loader %q: %w", src.Channel, err)
	}
	switch src.Format {
	case "ascii", "":
		return &asciiLoader{path: src.File}, nil
	case "csv":
		return &csvLoader{path: src.File, kind: kind}, nil
	default:
		return nil, fmt.Errorf("loader: unsupported format %q", src.Format)
	}
}

// LoadChannel reads the source's trigger table and wraps it in a Channel.
func LoadChannel(src config.Source) (*trigger.Channel, error) {
	ldr, err := New(src)
	if err != nil {
		return nil, err
	}
	trigs, err := ldr.Load()
	if err != nil {
		return nil, fmt.Errorf("loader %q: %w", src.Channel, err)
	}
	kind, _ := trigger.ParseKind(src.Kind)
	return trigger.NewChannel(src.Channel, kind, trigs), nil
}

// LoadAuxDir loads every auxiliary channel configured in cfg. Directory
// entries provide one channel per file, named after the file without its
// extension; cfg.Sources are merged on top and override directory entries
// with the same channel name. Channels listed in cfg.Ignore are skipped.
// The result is sorted by channel name.
//
// A channel whose table is unreadable or malformed is excluded and logged,
// never fatal; the returned map records the exclusions by channel name.
// Only a failed directory scan aborts the load.
func LoadAuxDir(cfg config.AuxConfig) ([]*trigger.Channel, map[string]error, error) {
	ignore := make(map[string]bool, len(cfg.Ignore))
	for _, name := range cfg.Ignore {
		ignore[name] = true
	}

	sources := make(map[string]config.Source)
	if cfg.Dir != "" {
		entries, err := os.ReadDir(cfg.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("loader: scan aux dir: %w", err)
		}
		for _, entry := range entries {
			base := entry.Name()
			if entry.IsDir() || strings.HasPrefix(base, ".") {
				continue
			}
			name := strings.TrimSuffix(base, filepath.Ext(base))
			sources[name] = config.Source{
				Channel: name,
				File:    filepath.Join(cfg.Dir, base),
				Format:  cfg.Format,
				Kind:    cfg.Kind,
			}
		}
	}
	for _, src := range cfg.Sources {
		sources[src.Channel] = src
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		if !ignore[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	channels := make([]*trigger.Channel, 0, len(names))
	failed := make(map[string]error)
	for _, name := range names {
		ch, err := LoadChannel(sources[name])
		if err != nil {
			failed[name] = err
			slog.Warn("loader: excluding auxiliary channel", "channel", name, "err", err)
			continue
		}
		channels = append(channels, ch)
	}
	return channels, failed, nil
}

// LoadSegments reads a two-column "start end" segment list. Blank lines
// and lines starting with '#' are skipped. The result is coalesced.
func LoadSegments(path string) (segments.List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read segments: %w", err)
	}
	var spans segments.List
	for i, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("loader: segments %s line %d: want 2 columns, got %d", path, i+1, len(fields))
		}
		start, err := parseFloat(fields[0])
		if err != nil {
			return nil, fmt.Errorf("loader: segments %s line %d: %w", path, i+1, err)
		}
		end, err := parseFloat(fields[1])
		if err != nil {
			return nil, fmt.Errorf("loader: segments %s line %d: %w", path, i+1, err)
		}
		if end < start {
			return nil, fmt.Errorf("loader: segments %s line %d: end %v before start %v", path, i+1, end, start)
		}
		spans = append(spans, segments.Span{Start: start, End: end})
	}
	return segments.Coalesce(spans), nil
}
