package provider

import "context"

// Provider abstracts a generateContent backend. It operates on encoded
// bodies so that the typed envelope layer stays independent of the
// transport.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini").
	Name() string

	// Capabilities returns what this provider supports.
	Capabilities() Capabilities

	// Generate sends an encoded GenerateContentRequest for model and
	// returns the raw response body.
	Generate(ctx context.Context, model string, body []byte) ([]byte, error)

	// Stream sends an encoded GenerateContentRequest for model and returns
	// a channel of raw response chunks. The channel is closed by the
	// provider when the stream completes, errors, or ctx is cancelled.
	Stream(ctx context.Context, model string, body []byte) (<-chan StreamChunk, error)

	// ListModels returns the models available to the caller.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}
