package provider

import "github.com/rhuss/gemini-go/pkg/api"

// Capabilities declares what features the backend supports.
// Used for early request validation.
type Capabilities struct {
	// Streaming indicates whether the provider supports streamGenerateContent.
	Streaming bool

	// InlineData indicates whether inline blob parts are accepted.
	InlineData bool

	// FileData indicates whether file URI parts are accepted.
	FileData bool

	// JSONSchema indicates whether responseJsonSchema is accepted in
	// addition to the OpenAPI responseSchema.
	JSONSchema bool
}

// StreamChunk is one raw event of a streamed response. Exactly one of
// Data and Err is set.
type StreamChunk struct {
	Data []byte
	Err  error
}

// StreamResult is one element of a typed stream.
type StreamResult[T any] struct {
	// Chunk is a decoded streaming event. Its text is always plain because
	// fragments of a structured T are not decodable on their own.
	Chunk *api.GenerateContentResponse[string]

	// Final is set on the last result of a stream that ended cleanly. Its
	// candidates carry the concatenated text of all chunks decoded into T.
	Final *api.GenerateContentResponse[T]

	// Err is set on the last result of a stream that failed.
	Err error
}

// ModelInfo holds information about a model served by the provider.
type ModelInfo struct {
	Name                       string   `json:"name"`
	BaseModelID                string   `json:"baseModelId,omitempty"`
	Version                    string   `json:"version,omitempty"`
	DisplayName                string   `json:"displayName,omitempty"`
	Description                string   `json:"description,omitempty"`
	InputTokenLimit            int32    `json:"inputTokenLimit,omitempty"`
	OutputTokenLimit           int32    `json:"outputTokenLimit,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}
