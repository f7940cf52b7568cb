package chat

import "github.com/rhuss/gemini-go/pkg/api"

// Config holds the per-session request settings.
type Config[T any] struct {
	// Model is the model name, with or without the "models/" prefix.
	Model string

	// GenerationConfig is attached to every request. It must carry a
	// response schema unless T is string.
	GenerationConfig *api.GenerationConfig[T]

	// SystemInstruction, when non-empty, is sent with every request.
	SystemInstruction []api.Part[string]

	// SafetySettings are sent with every request.
	SafetySettings []api.SafetySetting

	// MaxTurns caps how many of the most recent stored turns are sent as
	// context. Zero or negative sends the whole history. The stored
	// history itself is never truncated.
	MaxTurns int
}
