// Package api defines the typed request and response envelopes for the
// Gemini generateContent API.
//
// The envelopes are generic over T, the type carried in the text slot of
// response parts. With T = string the text is passed through unchanged. With
// any other T the model is asked for structured output and each candidate's
// text is decoded from JSON into a T while the response body is parsed:
//
//	b := api.NewGenerationConfigBuilder[string]().Temperature(0.2)
//	cfg, err := api.WithResponseJSONSchema[Person](b).Build()
//	...
//	resp, err := api.DecodeResponse[Person](body)
//	person, ok := resp.FirstText()
//
// Core types:
//   - [TextField]: the text slot, plain or JSON-embedded
//   - [Part] and [Content]: conversation content
//   - [GenerationConfigBuilder] and [GenerationConfig]: tuning knobs plus a response schema
//   - [GenerateContentRequest] and [GenerateContentResponse]: the envelopes
//   - [APIError]: typed errors matched with errors.Is against the Err* sentinels
//
// Values are immutable once built and safe to share between goroutines. The
// package performs no I/O.
package api
