package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/rhuss/gemini-go/pkg/api"
	"github.com/rhuss/gemini-go/pkg/debug"
	"github.com/rhuss/gemini-go/pkg/history"
	"github.com/rhuss/gemini-go/pkg/provider"
)

// Session is one conversation whose model answers are decoded into T.
// A Session is safe for concurrent use, but concurrent Sends on the same
// session interleave their turns in the store.
type Session[T any] struct {
	id       string
	provider provider.Provider
	store    history.Store
	cfg      Config[T]
}

// New creates a session bound to id. An empty id starts a new conversation
// with a generated ID. The provider and store must not be nil, and a typed T
// needs a GenerationConfig with a response schema.
func New[T any](p provider.Provider, store history.Store, id string, cfg Config[T]) (*Session[T], error) {
	if p == nil {
		return nil, fmt.Errorf("chat: provider must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("chat: history store must not be nil")
	}
	if cfg.Model == "" {
		return nil, api.NewInvalidRequestError("model", "model is required")
	}
	if !api.IsPlainText[T]() && (cfg.GenerationConfig == nil || cfg.GenerationConfig.Schema().IsZero()) {
		return nil, api.NewSchemaRequiredError()
	}
	if id == "" {
		id = api.NewSessionID()
	}
	return &Session[T]{id: id, provider: p, store: store, cfg: cfg}, nil
}

// ID returns the session identifier.
func (s *Session[T]) ID() string {
	return s.id
}

// History returns the stored turns. A session without turns yields an
// empty slice.
func (s *Session[T]) History(ctx context.Context) ([]history.Turn, error) {
	turns, err := s.store.Load(ctx, s.id)
	if errors.Is(err, history.ErrNotFound) {
		return []history.Turn{}, nil
	}
	return turns, err
}

// Reset deletes the stored conversation.
func (s *Session[T]) Reset(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.id); err != nil && !errors.Is(err, history.ErrNotFound) {
		return err
	}
	return nil
}

// Send sends parts as the next user turn and returns the typed response.
//
// The user turn and the first candidate's content are appended to the
// history only when the call succeeds and yields a candidate; a failed or
// blocked exchange leaves the history unchanged.
func (s *Session[T]) Send(ctx context.Context, parts ...api.Part[string]) (*api.GenerateContentResponse[T], error) {
	req, user, err := s.buildRequest(ctx, parts)
	if err != nil {
		return nil, err
	}

	resp, err := provider.GenerateContent(ctx, s.provider, s.cfg.Model, req)
	if err != nil {
		return nil, err
	}

	if err := s.record(ctx, user, resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// SendStream is the streaming counterpart of Send. Results are forwarded
// as they arrive; the exchange is recorded once the final aggregated
// response is available. A failure to record is delivered as a last result
// with Err set.
func (s *Session[T]) SendStream(ctx context.Context, parts ...api.Part[string]) (<-chan provider.StreamResult[T], error) {
	req, user, err := s.buildRequest(ctx, parts)
	if err != nil {
		return nil, err
	}

	in, err := provider.StreamGenerateContent(ctx, s.provider, s.cfg.Model, req)
	if err != nil {
		return nil, err
	}

	out := make(chan provider.StreamResult[T], cap(in))
	go func() {
		defer close(out)
		send := func(r provider.StreamResult[T]) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for r := range in {
			var recordErr error
			if r.Final != nil {
				recordErr = s.record(ctx, user, r.Final)
			}
			if !send(r) {
				return
			}
			if recordErr != nil {
				send(provider.StreamResult[T]{Err: recordErr})
			}
		}
	}()
	return out, nil
}

// buildRequest assembles the request from the stored history window and
// the new user turn.
func (s *Session[T]) buildRequest(ctx context.Context, parts []api.Part[string]) (*api.GenerateContentRequest[T], api.Content[string], error) {
	if len(parts) == 0 {
		return nil, api.Content[string]{}, api.NewInvalidRequestError("parts", "at least one part is required")
	}
	user := api.NewUserContent(parts...)

	turns, err := s.History(ctx)
	if err != nil {
		return nil, user, fmt.Errorf("loading history: %w", err)
	}
	window := contextWindow(turns, s.cfg.MaxTurns)

	debug.Log("history", "building request", "session", s.id, "stored_turns", len(turns), "sent_turns", len(window))

	req := api.NewRequest[T](append(history.Contents(window), user)...).
		WithGenerationConfig(s.cfg.GenerationConfig)
	if len(s.cfg.SystemInstruction) > 0 {
		req = req.WithSystemInstruction(s.cfg.SystemInstruction...)
	}
	if len(s.cfg.SafetySettings) > 0 {
		req = req.WithSafetySettings(s.cfg.SafetySettings...)
	}
	return &req, user, nil
}

// record appends the user turn and the model's answer.
func (s *Session[T]) record(ctx context.Context, user api.Content[string], resp *api.GenerateContentResponse[T]) error {
	cand := resp.FirstCandidate()
	if cand == nil || len(cand.Content.Parts) == 0 {
		debug.Log("history", "no candidate to record", "session", s.id, "blocked", resp.Blocked())
		return nil
	}

	model, err := api.ToPlain(cand.Content)
	if err != nil {
		return err
	}
	model.Role = api.RoleModel

	if err := s.store.Append(ctx, s.id, history.NewTurn(user), history.NewTurn(model)); err != nil {
		return fmt.Errorf("recording turns: %w", err)
	}
	return nil
}

// contextWindow returns the most recent maxTurns turns, dropping leading
// model turns so the window opens with a user turn.
func contextWindow(turns []history.Turn, maxTurns int) []history.Turn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		return turns
	}
	w := turns[len(turns)-maxTurns:]
	for len(w) > 0 && w[0].Role != api.RoleUser {
		w = w[1:]
	}
	return w
}
