package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for talking to a generative model.
// Every prompt in the application goes through Generate.
type Provider interface {
	// Generate sends a prompt to the model. When req.Schema is set the
	// provider asks for JSON conforming to it and validates the result;
	// otherwise the response carries the raw completion text.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System is the system prompt.
	System string

	// Messages is the conversation. Every call site in this service is
	// single-turn, so this is normally one user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When nil, the response Content is the raw completion text.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	// Zero lets the provider pick its default where the API allows it.
	MaxTokens int

	// Temperature controls randomness. Zero leaves the provider default.
	Temperature float64

	// NoCache bypasses the response cache for this request.
	NoCache bool
}

// Message represents a single message in the conversation.
type Message struct {
	Role        Role
	Content     string
	Attachments []Attachment
}

// Attachment is binary content sent inline with a message, such as a
// recorded audio clip.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema. Kebab-case, e.g. "flashcard-deck".
	Name string

	// Description tells the model what the object represents.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model output.
type Response struct {
	// Content is the validated JSON object when a Schema was provided,
	// and the raw completion text otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Text returns the completion as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// finish applies the checks shared by every provider once the raw
// completion is in hand: truncated structured output is an error, and
// structured output must match its schema.
func finish(req Request, content json.RawMessage, usage Usage, model, stop string) (*Response, error) {
	if req.Schema != nil {
		if stop == "max_tokens" {
			return nil, &ErrMaxTokensExceeded{Content: content}
		}
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	}
	return &Response{
		Content:    content,
		Usage:      usage,
		Model:      model,
		StopReason: stop,
	}, nil
}

// resolveModel maps a friendly model name to a provider model ID.
// Unknown names pass through so direct model IDs work.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
