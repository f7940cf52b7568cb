package history

import (
	"context"
	"time"

	"github.com/rhuss/gemini-go/pkg/api"
)

// Turn is one stored exchange step. Content holds wire text: structured
// model output is kept in its encoded form so it can be replayed verbatim.
type Turn struct {
	Role      api.Role            `json:"role"`
	Content   api.Content[string] `json:"content"`
	CreatedAt time.Time           `json:"createdAt"`
}

// NewTurn returns a turn for c stamped with the current time. The turn role
// follows the content role.
func NewTurn(c api.Content[string]) Turn {
	return Turn{Role: c.Role, Content: c, CreatedAt: time.Now().UTC()}
}

// Store persists conversation turns by session. Every method is scoped to
// the tenant carried by the context (see SetTenant).
type Store interface {
	// Append adds turns to the end of a session, creating it if needed.
	Append(ctx context.Context, sessionID string, turns ...Turn) error

	// Load returns all turns of a session in insertion order. Returns
	// ErrNotFound when the session does not exist.
	Load(ctx context.Context, sessionID string) ([]Turn, error)

	// Delete removes a session. Returns ErrNotFound when it does not exist.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions, most recently updated first.
	List(ctx context.Context) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}

// Contents extracts the content blocks of turns, preserving order. The
// result is ready to be used as request contents.
func Contents(turns []Turn) []api.Content[string] {
	out := make([]api.Content[string], len(turns))
	for i, t := range turns {
		out[i] = t.Content
		if out[i].Role == "" {
			out[i].Role = t.Role
		}
	}
	return out
}
