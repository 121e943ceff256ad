package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelrun/internal/common/cliutil"
	"modelrun/internal/config"
	"modelrun/internal/gpu"
	"modelrun/internal/hub"
	"modelrun/internal/scan"
	"modelrun/pkg/types"
)

const hubTimeout = 30 * time.Second

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		configPath string
		hubURL     string
	)
	cmd := &cobra.Command{
		Use:           "modelscan",
		Short:         "Report estimated VRAM fit for a curated model catalog",
		Long:          "modelscan checks each catalog model against the hub registry, estimates its VRAM requirement, classifies it against available accelerator memory, and prints a sorted JSON report.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cliutil.NewLogger(stderr)
			report, err := run(cmd, log, stderr, configPath, hubURL)
			cliutil.WriteJSON(stdout, report)
			if err != nil {
				log.Error().Err(err).Msg("scan failed")
			}
			return err
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Optional config file (json/yaml/toml)")
	cmd.Flags().StringVar(&hubURL, "hub-url", "", "Model-hub registry base URL (overrides config)")
	return cmd
}

// run builds the scan report. A non-nil error means the degenerate payload
// was produced and the process should exit 1; per-model lookup failures are
// absorbed into the report instead.
func run(cmd *cobra.Command, log zerolog.Logger, stderr io.Writer, configPath, hubURL string) (types.ScanReport, error) {
	degenerate := func(err error) (types.ScanReport, error) {
		return types.ScanReport{Error: err.Error(), Models: []types.ModelEntry{}}, err
	}

	cfg := config.Config{}
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return degenerate(fmt.Errorf("load config: %w", err))
		}
	}
	if hubURL == "" {
		hubURL = cfg.HubURL
	}
	if hubURL == "" {
		hubURL = config.DefaultHubURL
	}
	catalog := cfg.Catalog
	if len(catalog) == 0 {
		catalog = scan.DefaultCatalog()
	}

	availableGB := gpu.NewProber().AvailableVRAMGB()

	scanner := &scan.Scanner{
		Registry: hub.New(hubURL, hubTimeout),
		Catalog:  catalog,
		Log:      log,
		Progress: stderr,
	}
	return scanner.Run(cmd.Context(), availableGB), nil
}
