// Package backend implements the engine provider boundary against a
// llama-server / OpenAI-compatible HTTP endpoint: chat completions for
// generation and the native tokenize endpoint for token accounting.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"modelrun/internal/engine"
	"modelrun/pkg/types"
)

// Client talks to one backend server. It implements engine.Factory.
type Client struct {
	baseURL     string
	apiKey      string
	reqTimeout  time.Duration
	metaTimeout time.Duration
	httpClient  *http.Client
}

// New constructs a Client. reqTimeout bounds generation calls; metadata
// calls (health probe, tokenize) use a shorter fixed deadline.
func New(baseURL, apiKey string, reqTimeout time.Duration) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout stays 0 on the client: every request carries a context
	// deadline instead.
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		reqTimeout:  reqTimeout,
		metaTimeout: 30 * time.Second,
		httpClient:  &http.Client{Transport: tr, Timeout: 0},
	}
}

// NewPipeline verifies the server is reachable and returns a pipeline bound
// to modelID. The probe makes load failures surface at load time, not on the
// first generation call.
func (c *Client) NewPipeline(ctx context.Context, modelID string) (engine.Pipeline, error) {
	if err := c.probe(ctx); err != nil {
		return nil, err
	}
	return &pipeline{client: c, modelID: modelID}, nil
}

// NewTokenizer returns a tokenizer bound to modelID.
func (c *Client) NewTokenizer(ctx context.Context, modelID string) (engine.Tokenizer, error) {
	if err := c.probe(ctx); err != nil {
		return nil, err
	}
	return &tokenizer{client: c, modelID: modelID}, nil
}

func (c *Client) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.metaTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("backend health: " + resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.New("backend http error: " + resp.Status + ": " + strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type chatRequest struct {
	Model       string              `json:"model,omitempty"`
	Messages    []types.ChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature *float64            `json:"temperature,omitempty"`
	Stream      bool                `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// pipeline generates one continuation per call via /v1/chat/completions.
type pipeline struct {
	client  *Client
	modelID string
}

func (p *pipeline) Generate(ctx context.Context, conversation []types.ChatMessage, opts engine.GenOptions) (string, error) {
	payload := chatRequest{
		Model:     p.modelID,
		Messages:  conversation,
		MaxTokens: opts.MaxNewTokens,
		Stream:    false,
	}
	// Deterministic path: temperature 0 sent explicitly. Sampling path:
	// forward the requested temperature.
	temp := 0.0
	if opts.Sample {
		temp = opts.Temperature
	}
	payload.Temperature = &temp

	var out chatResponse
	if err := p.client.post(ctx, "/v1/chat/completions", payload, &out, p.client.reqTimeout); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("backend returned no choices")
	}
	return decodeContinuation(out.Choices[0].Message.Content)
}

// continuationTurn is one entry of a structured content list.
type continuationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Text    string `json:"text"`
}

// decodeContinuation resolves the content variants a backend may emit: a
// plain string, or a structured turn list whose trailing entry carries the
// generated text. The shape is resolved here, once, and never propagated.
func decodeContinuation(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s, nil
	}
	var turns []continuationTurn
	if err := json.Unmarshal(trimmed, &turns); err == nil {
		if len(turns) == 0 {
			return "", nil
		}
		last := turns[len(turns)-1]
		if last.Content != "" {
			return last.Content, nil
		}
		return last.Text, nil
	}
	snippet := string(trimmed)
	if len(snippet) > 256 {
		snippet = snippet[:256]
	}
	return "", fmt.Errorf("unrecognized content shape: %s", snippet)
}

type tokenizeRequest struct {
	Content string `json:"content"`
}

type tokenizeResponse struct {
	Tokens []int `json:"tokens"`
}

// tokenizer counts tokens via the server's native /tokenize endpoint.
type tokenizer struct {
	client  *Client
	modelID string
}

func (t *tokenizer) CountTokens(ctx context.Context, text string) (int, error) {
	var out tokenizeResponse
	if err := t.client.post(ctx, "/tokenize", tokenizeRequest{Content: text}, &out, t.client.metaTimeout); err != nil {
		return 0, err
	}
	return len(out.Tokens), nil
}
