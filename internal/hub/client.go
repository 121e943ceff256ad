// Package hub queries a model-hub registry for model configuration. Only
// the parameter count is extracted; everything else the registry returns is
// ignored.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// ModelInfo is the subset of registry metadata the scanner needs.
type ModelInfo struct {
	ID string
	// Params is the total parameter count, or 0 when the registry does not
	// publish one for this model.
	Params int64
}

// Client fetches model metadata over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// New constructs a Client for the given registry base URL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 0},
		timeout:    timeout,
	}
}

// modelResponse mirrors the registry's model endpoint. The parameter count
// lives under safetensors.total when the model publishes weight metadata.
type modelResponse struct {
	ID          string `json:"id"`
	Safetensors struct {
		Total int64 `json:"total"`
	} `json:"safetensors"`
}

// ModelInfo fetches the configuration for modelID. Any failure (network,
// missing model, bad payload) is returned as-is; the caller decides whether
// that is recoverable.
func (c *Client) ModelInfo(ctx context.Context, modelID string) (ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + "/api/models/" + modelID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ModelInfo{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ModelInfo{}, ctx.Err()
		}
		return ModelInfo{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return ModelInfo{}, errors.New("registry: " + resp.Status + ": " + strings.TrimSpace(string(b)))
	}
	var mr modelResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return ModelInfo{}, err
	}
	id := mr.ID
	if id == "" {
		id = modelID
	}
	return ModelInfo{ID: id, Params: mr.Safetensors.Total}, nil
}
