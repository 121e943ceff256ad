package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modelrun/pkg/types"
)

func newBackendStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"salt on the wind"}}]}`))
	})
	mux.HandleFunc("/tokenize", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tokens":[1,2,3,4]}`))
	})
	return httptest.NewServer(mux)
}

func TestRunFromStdin(t *testing.T) {
	srv := newBackendStub(t)
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetIn(strings.NewReader(`{"messages":[{"role":"user","content":"write a haiku"}]}`))
	cmd.SetArgs([]string{"--backend-url", srv.URL})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v\nstderr: %s", err, stderr.String())
	}

	var resp types.CompletionResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("stdout not JSON: %v\n%s", err, stdout.String())
	}
	if resp.Error != "" {
		t.Fatalf("unexpected error: %q", resp.Error)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "salt on the wind" {
		t.Fatalf("unexpected choices: %+v", resp.Choices)
	}
	if resp.Choices[0].FinishReason != types.FinishStop {
		t.Fatalf("finish reason = %q", resp.Choices[0].FinishReason)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 8 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
}

func TestRunFromFile(t *testing.T) {
	srv := newBackendStub(t)
	defer srv.Close()

	p := filepath.Join(t.TempDir(), "req.json")
	if err := os.WriteFile(p, []byte(`{"messages":[{"role":"user","content":"hi"}],"max_tokens":16}`), 0o644); err != nil {
		t.Fatalf("write request: %v", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"--backend-url", srv.URL, "--input", p})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var resp types.CompletionResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("stdout not JSON: %v", err)
	}
	if resp.Error != "" || len(resp.Choices) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestConfigDefaultModelUsedWhenFlagAbsent(t *testing.T) {
	var models []string
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode chat body: %v", err)
		}
		models = append(models, body.Model)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	})
	mux.HandleFunc("/tokenize", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tokens":[1]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("default_model: cfg/model\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	run := func(args ...string) {
		t.Helper()
		var stdout, stderr bytes.Buffer
		cmd := newRootCmd(&stdout, &stderr)
		cmd.SetIn(strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
		cmd.SetArgs(append([]string{"--backend-url", srv.URL, "--config", cfgPath}, args...))
		if err := cmd.Execute(); err != nil {
			t.Fatalf("execute: %v\nstderr: %s", err, stderr.String())
		}
	}

	run()
	run("--model", "flag/model")

	if len(models) != 2 {
		t.Fatalf("expected 2 completion calls, got %d", len(models))
	}
	if models[0] != "cfg/model" {
		t.Fatalf("flag absent: expected config model, backend saw %q", models[0])
	}
	if models[1] != "flag/model" {
		t.Fatalf("flag set: expected flag to win over config, backend saw %q", models[1])
	}
}

func TestMalformedInputExitsNonZeroWithEnvelope(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetIn(strings.NewReader(`{not json`))
	cmd.SetArgs([]string{"--backend-url", "http://127.0.0.1:1"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error on malformed input")
	}

	var resp types.CompletionResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("error path must still print JSON: %v\n%s", err, stdout.String())
	}
	if resp.Error == "" || resp.Choices[0].FinishReason != types.FinishError {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestBackendDownIsFatalLoadError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetIn(strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	// Nothing listens here; the load-time probe must fail.
	cmd.SetArgs([]string{"--backend-url", "http://127.0.0.1:1"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected fatal error when backend is unreachable")
	}
	var resp types.CompletionResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("error path must still print JSON: %v", err)
	}
	if resp.Error == "" {
		t.Fatal("expected error field populated")
	}
}

func TestGenerationFailureExitsZero(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of memory", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetIn(strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	cmd.SetArgs([]string{"--backend-url", srv.URL})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("generation failures are recoverable, got %v", err)
	}
	var resp types.CompletionResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("stdout not JSON: %v", err)
	}
	if resp.Error == "" || resp.Choices[0].FinishReason != types.FinishError {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}
