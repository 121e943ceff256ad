// Package engine owns the single-request inference flow: a load-if-different
// gate over an external generation provider plus the mapping from a decoded
// request to an OpenAI-compatible response envelope.
package engine

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"modelrun/pkg/types"
)

// MaxNewTokensCeiling is the hard cap on requested new tokens, enforced
// regardless of what the request asks for.
const MaxNewTokensCeiling = 4096

// Engine holds the process-wide inference state: which model is loaded and
// the two handles acquired for it. Both handles are committed together, so a
// caller never observes a partial load.
type Engine struct {
	factory      Factory
	defaultModel string
	log          zerolog.Logger

	pipe    Pipeline
	tok     Tokenizer
	current string
}

// New returns an Engine with no model loaded. defaultModel is used when a
// request does not name one.
func New(factory Factory, defaultModel string, log zerolog.Logger) *Engine {
	return &Engine{factory: factory, defaultModel: defaultModel, log: log}
}

// CurrentModel returns the identifier last successfully loaded, or "".
func (e *Engine) CurrentModel() string { return e.current }

// EnsureLoaded loads modelID unless it is already the current model.
// At most one load happens per distinct identifier per process lifetime.
func (e *Engine) EnsureLoaded(ctx context.Context, modelID string) error {
	if modelID == "" || modelID == e.current {
		return nil
	}
	return e.load(ctx, modelID)
}

func (e *Engine) load(ctx context.Context, modelID string) error {
	e.log.Info().Str("model", modelID).Msg("loading model")
	pipe, err := e.factory.NewPipeline(ctx, modelID)
	if err != nil {
		return ErrLoad(modelID, err)
	}
	tok, err := e.factory.NewTokenizer(ctx, modelID)
	if err != nil {
		return ErrLoad(modelID, err)
	}
	// Commit both handles and the identifier only after a full success.
	e.pipe = pipe
	e.tok = tok
	e.current = modelID
	e.log.Info().Str("model", modelID).Msg("model loaded")
	return nil
}

// Generate produces one completion for req. A non-nil error is fatal (model
// load failed); generation and tokenizer failures are recoverable and are
// reported inside the returned envelope with finish_reason "error".
func (e *Engine) Generate(ctx context.Context, req types.CompletionRequest) (types.CompletionResponse, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = e.defaultModel
	}
	if modelID == "" && e.current == "" {
		return types.CompletionResponse{}, ErrInvalidRequest("no model named and none loaded")
	}
	if err := e.EnsureLoaded(ctx, modelID); err != nil {
		return types.CompletionResponse{}, err
	}

	conversation := filterConversation(req.Messages)

	opts := GenOptions{
		MaxNewTokens: req.MaxTokens,
		Temperature:  req.Temperature,
		Sample:       req.Temperature > 0,
	}
	if opts.MaxNewTokens > MaxNewTokensCeiling {
		opts.MaxNewTokens = MaxNewTokensCeiling
	}

	text, err := e.pipe.Generate(ctx, conversation, opts)
	if err != nil {
		e.log.Error().Err(err).Msg("generation failed")
		return types.ErrorResponse(err), nil
	}

	// Approximate accounting: join the unfiltered input contents with single
	// spaces and re-tokenize. This intentionally diverges from the backend's
	// true prompt formatting.
	promptTokens, err := e.tok.CountTokens(ctx, joinContents(req.Messages))
	if err != nil {
		e.log.Error().Err(err).Msg("prompt token count failed")
		return types.ErrorResponse(err), nil
	}
	completionTokens, err := e.tok.CountTokens(ctx, text)
	if err != nil {
		e.log.Error().Err(err).Msg("completion token count failed")
		return types.ErrorResponse(err), nil
	}

	return types.CompletionResponse{
		Choices: []types.Choice{{
			Message:      types.ChatMessage{Role: types.RoleAssistant, Content: text},
			FinishReason: types.FinishStop,
		}},
		Usage: &types.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}, nil
}

// filterConversation keeps system/user/assistant turns in order and drops
// anything else.
func filterConversation(msgs []types.ChatMessage) []types.ChatMessage {
	out := make([]types.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case types.RoleSystem, types.RoleUser, types.RoleAssistant:
			out = append(out, m)
		}
	}
	return out
}

func joinContents(msgs []types.ChatMessage) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, " ")
}
