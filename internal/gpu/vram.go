// Package gpu reports total accelerator memory. The probe degrades in three
// tiers: no NVIDIA tooling means no accelerator (0), a structured nvidia-smi
// query is preferred, the human-readable table is parsed as a fallback, and
// any probe failure yields a fixed default so a scan never aborts on memory
// introspection alone.
package gpu

import (
	"errors"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// FallbackVRAMGB is assumed when an accelerator is present but the memory
// query fails.
const FallbackVRAMGB = 8.0

// Prober runs the detection commands. The exec seams exist so tests never
// shell out.
type Prober struct {
	lookPath func(file string) (string, error)
	run      func(name string, args ...string) ([]byte, error)
}

// NewProber returns a Prober backed by the real nvidia-smi binary.
func NewProber() *Prober {
	return &Prober{
		lookPath: exec.LookPath,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
	}
}

// AvailableVRAMGB returns total accelerator memory in GiB, 0 when no
// accelerator is visible, and FallbackVRAMGB when the query fails.
func (p *Prober) AvailableVRAMGB() float64 {
	if _, err := p.lookPath("nvidia-smi"); err != nil {
		return 0
	}
	if out, err := p.run("nvidia-smi", "--query-gpu=memory.total", "--format=csv,noheader,nounits"); err == nil {
		if gb, err := parseQueryOutput(string(out)); err == nil {
			return gb
		}
	}
	if out, err := p.run("nvidia-smi"); err == nil {
		if gb, err := parseTableOutput(string(out)); err == nil {
			return gb
		}
	}
	return FallbackVRAMGB
}

// parseQueryOutput reads the first line of the csv query (MiB for GPU 0).
func parseQueryOutput(out string) (float64, error) {
	line := strings.TrimSpace(out)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	mib, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, err
	}
	return mib / 1024, nil
}

var tableMemRe = regexp.MustCompile(`\d+MiB\s*/\s*(\d+)MiB`)

// parseTableOutput extracts the memory total from the "used / total" column
// of the default nvidia-smi table.
func parseTableOutput(out string) (float64, error) {
	m := tableMemRe.FindStringSubmatch(out)
	if m == nil {
		return 0, errors.New("no memory column in nvidia-smi output")
	}
	mib, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, err
	}
	return mib / 1024, nil
}
