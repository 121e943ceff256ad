package types

// Traffic-light colors classifying a model's estimated VRAM need against the
// memory available at scan time.
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
	ColorWhite  = "white"
)

// ModelEntry is one scanned catalog entry. SizeB and VRAMGB are nil when the
// size could not be determined from either the registry or the name.
type ModelEntry struct {
	// Model identifier as listed in the catalog.
	// example: meta-llama/Llama-3.1-8B
	Name string `json:"name" example:"meta-llama/Llama-3.1-8B"`
	// Parameter count in billions, if known.
	// example: 8
	SizeB *float64 `json:"size_b" example:"8"`
	// Estimated VRAM requirement in GiB, if known.
	// example: 19.2
	VRAMGB *float64 `json:"vram_gb" example:"19.2"`
	// Traffic-light classification, fixed at scan time.
	// example: green
	Color string `json:"color" example:"green"`
	// True when the registry lookup succeeded for this entry.
	Available bool `json:"available"`
}

// ScanReport is the full scanner output: one snapshot of available memory
// plus every catalog entry, sorted by ascending known size with unknown
// sizes last.
type ScanReport struct {
	// Error is set only on the degenerate top-level failure payload.
	Error           string       `json:"error,omitempty"`
	AvailableVRAMGB float64      `json:"available_vram_gb"`
	Models          []ModelEntry `json:"models"`
}
