package engine

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"modelrun/pkg/types"
)

// Defaults applied when the request document omits a field.
const (
	DefaultMaxTokens   = 8000
	DefaultTemperature = 1.0
)

// requestSchema validates field types without requiring any field; a request
// with no messages is legal and yields an empty conversation.
const requestSchema = `{
  "type": "object",
  "properties": {
    "messages": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "role": {"type": "string"},
          "content": {"type": "string"}
        },
        "required": ["role", "content"]
      }
    },
    "max_tokens": {"type": "integer", "minimum": 1},
    "temperature": {"type": "number", "minimum": 0},
    "model": {"type": "string"}
  }
}`

// rawRequest distinguishes absent fields from zero values during decode.
type rawRequest struct {
	Messages    []types.ChatMessage `json:"messages"`
	MaxTokens   *int                `json:"max_tokens"`
	Temperature *float64            `json:"temperature"`
	Model       string              `json:"model"`
}

// DecodeRequest validates and decodes a request document, applying defaults.
// Any failure here is a top-level parse error (fatal per the error taxonomy).
func DecodeRequest(doc []byte) (types.CompletionRequest, error) {
	var req types.CompletionRequest

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(requestSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return req, ErrInvalidRequest(err.Error())
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return req, ErrInvalidRequest(strings.Join(msgs, "; "))
	}

	var raw rawRequest
	if err := json.Unmarshal(doc, &raw); err != nil {
		return req, ErrInvalidRequest(err.Error())
	}

	req.Messages = raw.Messages
	req.Model = raw.Model
	req.MaxTokens = DefaultMaxTokens
	if raw.MaxTokens != nil {
		req.MaxTokens = *raw.MaxTokens
	}
	req.Temperature = DefaultTemperature
	if raw.Temperature != nil {
		req.Temperature = *raw.Temperature
	}
	return req, nil
}
