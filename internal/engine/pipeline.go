package engine

import (
	"context"

	"modelrun/pkg/types"
)

// GenOptions captures generation parameters passed to the pipeline.
type GenOptions struct {
	// MaxNewTokens is the number of new tokens requested, already capped.
	MaxNewTokens int
	// Temperature is forwarded only when Sample is true.
	Temperature float64
	// Sample selects the sampling path; false means deterministic decoding.
	Sample bool
}

// Pipeline maps a conversation to a single generated continuation.
// Implementations must resolve any structured output shape into plain text
// before returning; no ambiguous shape crosses this boundary.
type Pipeline interface {
	Generate(ctx context.Context, conversation []types.ChatMessage, opts GenOptions) (string, error)
}

// Tokenizer counts tokens for usage accounting.
type Tokenizer interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// Factory acquires a generation pipeline and a tokenizer for a model
// identifier. It is the boundary to the external generation provider; a
// factory error is a fatal condition for the process.
type Factory interface {
	NewPipeline(ctx context.Context, modelID string) (Pipeline, error)
	NewTokenizer(ctx context.Context, modelID string) (Tokenizer, error)
}
