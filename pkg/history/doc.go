// Package history defines the conversation history store used by chat
// sessions, together with the sentinel errors and tenant context helpers
// shared by its adapters (memory, postgres).
package history
