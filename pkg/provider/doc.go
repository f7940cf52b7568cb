// Package provider defines the transport-level interface to a
// generateContent backend and the typed helpers built on it. Adapters
// (e.g., gemini) move encoded request and response bodies; the helpers in
// this package own validation, encoding, decoding and metrics so every
// adapter behaves the same toward callers.
package provider
