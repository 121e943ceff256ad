package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"modelrun/internal/common/fsutil"
)

// Defaults used when the corresponding Config field is unset.
const (
	DefaultBackendURL = "http://127.0.0.1:8080"
	DefaultModel      = "openai/gpt-oss-20b"
	DefaultHubURL     = "https://huggingface.co"
)

// Config holds runtime parameters shared by the two binaries.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	// Base URL of the generation backend (llama-server or any
	// OpenAI-compatible endpoint).
	BackendURL string `json:"backend_url" yaml:"backend_url" toml:"backend_url"`
	// Optional bearer token sent with backend requests.
	APIKey string `json:"api_key" yaml:"api_key" toml:"api_key"`
	// Model loaded when a request does not name one.
	DefaultModel string `json:"default_model" yaml:"default_model" toml:"default_model"`
	// Per-request deadline for generation calls, in seconds.
	RequestTimeoutS int `json:"request_timeout_s" yaml:"request_timeout_s" toml:"request_timeout_s"`
	// Base URL of the model-hub registry.
	HubURL string `json:"hub_url" yaml:"hub_url" toml:"hub_url"`
	// Catalog overrides the built-in model list scanned by modelscan.
	Catalog []string `json:"catalog" yaml:"catalog" toml:"catalog"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
