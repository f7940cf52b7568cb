package api

import (
	"slices"

	"google.golang.org/genai"
)

// GenerateContentRequest is the body of a generateContent call whose
// candidates carry text of type T.
//
// Request contents are always plain text: T only shapes the response, via
// the schema attached to GenerationConfig.
type GenerateContentRequest[T any] struct {
	Contents          []Content[string]    `json:"contents"`
	GenerationConfig  *GenerationConfig[T] `json:"generationConfig,omitempty"`
	SystemInstruction *Content[string]     `json:"systemInstruction,omitempty"`
	SafetySettings    []SafetySetting      `json:"safetySettings,omitempty"`
}

// NewRequest returns a request with the given contents and no generation
// config. A request without a config yields plain-text candidates, so T
// should be string unless a config is attached later.
func NewRequest[T any](contents ...Content[string]) GenerateContentRequest[T] {
	return GenerateContentRequest[T]{Contents: contents}
}

// WithGenerationConfig returns a copy of r using cfg.
func (r GenerateContentRequest[T]) WithGenerationConfig(cfg *GenerationConfig[T]) GenerateContentRequest[T] {
	r.GenerationConfig = cfg
	return r
}

// WithSystemInstruction returns a copy of r with a system instruction built
// from the given parts.
func (r GenerateContentRequest[T]) WithSystemInstruction(parts ...Part[string]) GenerateContentRequest[T] {
	r.SystemInstruction = &Content[string]{Parts: parts}
	return r
}

// WithSafetySettings returns a copy of r with settings appended.
func (r GenerateContentRequest[T]) WithSafetySettings(settings ...SafetySetting) GenerateContentRequest[T] {
	r.SafetySettings = append(slices.Clip(r.SafetySettings), settings...)
	return r
}

// AppendContents returns a copy of r with contents appended.
func (r GenerateContentRequest[T]) AppendContents(contents ...Content[string]) GenerateContentRequest[T] {
	r.Contents = append(slices.Clip(r.Contents), contents...)
	return r
}

// SafetySetting adjusts the blocking threshold for one harm category.
type SafetySetting struct {
	Category  genai.HarmCategory       `json:"category"`
	Threshold genai.HarmBlockThreshold `json:"threshold"`
}

// SafetyRating is the assessed probability of harm for one category.
type SafetyRating struct {
	Category    genai.HarmCategory    `json:"category"`
	Probability genai.HarmProbability `json:"probability"`
	Blocked     bool                  `json:"blocked,omitempty"`
}
