// Package scan estimates model VRAM footprints against available accelerator
// memory and produces the sorted scanner report.
package scan

import (
	"context"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"modelrun/internal/hub"
	"modelrun/pkg/types"
)

var sizeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[Bb]`)

// ExtractSize pulls a parameter count in billions out of a model name
// suffix such as "7B" or "13b". Naming convention only; used as a fallback
// when the registry has no parameter count.
func ExtractSize(name string) (float64, bool) {
	m := sizeRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// EstimateVRAMGB is a crude linear estimator: two bytes per parameter for
// half-precision weights plus a flat 20% allowance for activations and
// runtime buffers, rounded to one decimal.
func EstimateVRAMGB(sizeB float64) float64 {
	return math.Round(sizeB*2*1.2*10) / 10
}

// ColorFor classifies an estimated requirement against available memory.
// nil means unknown size.
func ColorFor(vramGB *float64, availableGB float64) string {
	switch {
	case vramGB == nil:
		return types.ColorWhite
	case *vramGB <= availableGB:
		return types.ColorGreen
	case *vramGB <= availableGB*1.5:
		return types.ColorYellow
	default:
		return types.ColorRed
	}
}

// Registry is the external metadata source consulted per catalog entry.
type Registry interface {
	ModelInfo(ctx context.Context, modelID string) (hub.ModelInfo, error)
}

// Scanner walks a catalog and builds a report. Progress receives one tinted
// line per model; pass io.Discard to silence it.
type Scanner struct {
	Registry Registry
	Catalog  []string
	Log      zerolog.Logger
	Progress io.Writer
}

// Run scans every catalog entry against one snapshot of available memory.
// Per-entry registry failures degrade that entry (name-derived size,
// available=false); no entry is ever dropped.
func (s *Scanner) Run(ctx context.Context, availableGB float64) types.ScanReport {
	progress := s.Progress
	if progress == nil {
		progress = io.Discard
	}
	s.Log.Info().Int("models", len(s.Catalog)).Float64("available_vram_gb", availableGB).Msg("scanning catalog")

	entries := make([]types.ModelEntry, 0, len(s.Catalog))
	for i, name := range s.Catalog {
		entry := s.scanOne(ctx, name, availableGB)
		entries = append(entries, entry)
		tint(entry.Color).Fprintf(progress, "checking %s (%d/%d): %s\n", name, i+1, len(s.Catalog), entry.Color)
	}

	sortEntries(entries)
	return types.ScanReport{AvailableVRAMGB: availableGB, Models: entries}
}

func (s *Scanner) scanOne(ctx context.Context, name string, availableGB float64) types.ModelEntry {
	var (
		sizeB     *float64
		available bool
	)
	info, err := s.Registry.ModelInfo(ctx, name)
	if err == nil {
		available = true
		if info.Params > 0 {
			v := float64(info.Params) / 1e9
			sizeB = &v
		}
	} else {
		s.Log.Warn().Err(err).Str("model", name).Msg("registry lookup failed")
	}
	if sizeB == nil {
		if v, ok := ExtractSize(name); ok {
			sizeB = &v
		}
	}

	var vramGB *float64
	if sizeB != nil {
		v := EstimateVRAMGB(*sizeB)
		vramGB = &v
	}

	return types.ModelEntry{
		Name:      name,
		SizeB:     sizeB,
		VRAMGB:    vramGB,
		Color:     ColorFor(vramGB, availableGB),
		Available: available,
	}
}

// sortEntries orders by ascending known size with unknown sizes last;
// stable, so ties keep catalog order.
func sortEntries(entries []types.ModelEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].SizeB, entries[j].SizeB
		if (a == nil) != (b == nil) {
			return a != nil
		}
		if a == nil {
			return false
		}
		return *a < *b
	})
}

func tint(name string) *color.Color {
	switch name {
	case types.ColorGreen:
		return color.New(color.FgGreen)
	case types.ColorYellow:
		return color.New(color.FgYellow)
	case types.ColorRed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgWhite)
	}
}
