package gemini

import (
	"net/http"
	"time"
)

// DefaultBaseURL is the public v1beta endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config holds configuration for the Gemini provider adapter.
type Config struct {
	// BaseURL is the API root including the version segment.
	// Defaults to DefaultBaseURL.
	BaseURL string

	// APIKey is sent in the x-goog-api-key header. Required.
	APIKey string

	// Timeout for non-streaming HTTP requests. Defaults to 120s.
	// Streams are bounded by their context only.
	Timeout time.Duration

	// Transport is the underlying round tripper. It is wrapped with
	// Prometheus instrumentation. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		Timeout: 120 * time.Second,
	}
}
