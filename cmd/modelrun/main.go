package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelrun/internal/backend"
	"modelrun/internal/common/cliutil"
	"modelrun/internal/common/fsutil"
	"modelrun/internal/config"
	"modelrun/internal/engine"
	"modelrun/pkg/types"
)

const defaultRequestTimeoutS = 600

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		modelID    string
		inputPath  string
		configPath string
		backendURL string
	)
	cmd := &cobra.Command{
		Use:           "modelrun",
		Short:         "Serve one chat completion from a local generation backend",
		Long:          "modelrun reads a chat completion request as JSON (file or stdin), ensures the requested model is loaded, and prints an OpenAI-compatible response envelope to stdout.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cliutil.NewLogger(stderr)
			resp, err := run(cmd, log, modelID, inputPath, configPath, backendURL)
			cliutil.WriteJSON(stdout, resp)
			if err != nil {
				log.Error().Err(err).Msg("request failed")
			}
			return err
		},
	}
	cmd.Flags().StringVar(&modelID, "model", config.DefaultModel, "Model identifier loaded when the request names none")
	cmd.Flags().StringVar(&inputPath, "input", "", "JSON request file (stdin if not provided)")
	cmd.Flags().StringVar(&configPath, "config", "", "Optional config file (json/yaml/toml)")
	cmd.Flags().StringVar(&backendURL, "backend-url", "", "Generation backend base URL (overrides config)")
	return cmd
}

// run produces the response envelope. A non-nil error marks the envelope as
// a fatal failure (exit 1); generation errors come back as a normal envelope
// with finish_reason "error" and a nil error.
func run(cmd *cobra.Command, log zerolog.Logger, modelID, inputPath, configPath, backendURL string) (types.CompletionResponse, error) {
	cfg := config.Config{}
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			err = fmt.Errorf("load config: %w", err)
			return types.ErrorResponse(err), err
		}
	}
	if !cmd.Flags().Changed("model") && cfg.DefaultModel != "" {
		modelID = cfg.DefaultModel
	}
	if backendURL == "" {
		backendURL = cfg.BackendURL
	}
	if backendURL == "" {
		backendURL = config.DefaultBackendURL
	}
	timeoutS := cfg.RequestTimeoutS
	if timeoutS <= 0 {
		timeoutS = defaultRequestTimeoutS
	}

	doc, err := readRequest(inputPath, cmd.InOrStdin())
	if err != nil {
		err = fmt.Errorf("read request: %w", err)
		return types.ErrorResponse(err), err
	}
	req, err := engine.DecodeRequest(doc)
	if err != nil {
		return types.ErrorResponse(err), err
	}

	client := backend.New(backendURL, cfg.APIKey, time.Duration(timeoutS)*time.Second)
	eng := engine.New(client, modelID, log)

	resp, err := eng.Generate(cmd.Context(), req)
	if err != nil {
		// Model load failure: fatal for the whole process.
		return types.ErrorResponse(err), err
	}
	return resp, nil
}

func readRequest(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		return io.ReadAll(stdin)
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}
