package provider

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/rhuss/gemini-go/pkg/api"
	"github.com/rhuss/gemini-go/pkg/debug"
	"github.com/rhuss/gemini-go/pkg/observability"
)

// GenerateContent validates and encodes req, sends it through p and decodes
// the response into T. Every call is recorded in the gemini_requests_total
// and gemini_request_latency_seconds metrics.
func GenerateContent[T any](ctx context.Context, p Provider, model string, req *api.GenerateContentRequest[T]) (*api.GenerateContentResponse[T], error) {
	start := time.Now()
	resp, err := generateContent(ctx, p, model, req)
	observability.ObserveRequest(model, observability.ModeGenerate, start, err)
	if err != nil {
		return nil, err
	}
	observability.RecordUsage(model, resp.UsageMetadata)
	return resp, nil
}

func generateContent[T any](ctx context.Context, p Provider, model string, req *api.GenerateContentRequest[T]) (*api.GenerateContentResponse[T], error) {
	body, err := prepare(p, req, false)
	if err != nil {
		return nil, err
	}
	raw, err := p.Generate(ctx, model, body)
	if err != nil {
		return nil, err
	}
	return api.DecodeResponse[T](raw)
}

// prepare runs request and capability validation and encodes req.
func prepare[T any](p Provider, req *api.GenerateContentRequest[T], stream bool) ([]byte, error) {
	if apiErr := api.ValidateRequest(req, api.DefaultValidationConfig()); apiErr != nil {
		return nil, apiErr
	}
	if apiErr := ValidateCapabilities(p.Capabilities(), req, stream); apiErr != nil {
		return nil, apiErr
	}
	return api.EncodeRequest(req)
}

// StreamGenerateContent is the streaming counterpart of GenerateContent.
// Each raw chunk is decoded as plain text and delivered as it arrives; when
// the stream ends cleanly a last result carries the accumulated response
// decoded into T. A chunk that fails to decode, or a transport error, ends
// the stream with a result whose Err is set.
//
// The returned channel is closed when the stream ends. Callers that stop
// reading early must cancel ctx.
func StreamGenerateContent[T any](ctx context.Context, p Provider, model string, req *api.GenerateContentRequest[T]) (<-chan StreamResult[T], error) {
	start := time.Now()

	body, err := prepare(p, req, true)
	if err != nil {
		observability.ObserveRequest(model, observability.ModeStream, start, err)
		return nil, err
	}

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	chunks, err := p.Stream(ctx, model, body)
	if err != nil {
		cancel()
		observability.ObserveRequest(model, observability.ModeStream, start, err)
		return nil, err
	}

	out := make(chan StreamResult[T], 16)
	observability.StreamsActive.Inc()

	go func() {
		defer close(out)
		defer observability.StreamsActive.Dec()
		defer cancel()

		send := func(r StreamResult[T]) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}
		// finish delivers the terminal result. It must not watch ctx, which
		// is cancelled on the error path before the result is sent.
		finish := func(r StreamResult[T]) {
			select {
			case out <- r:
			case <-parent.Done():
			}
		}

		acc := newStreamAccumulator()
		var streamErr error
		for chunk := range chunks {
			if chunk.Err != nil {
				streamErr = chunk.Err
				break
			}
			resp, err := api.DecodeResponse[string](chunk.Data)
			if err != nil {
				streamErr = err
				break
			}
			observability.StreamChunksTotal.WithLabelValues(model).Inc()
			acc.add(resp)
			if !send(StreamResult[T]{Chunk: resp}) {
				streamErr = ctx.Err()
				break
			}
		}

		if streamErr == nil {
			streamErr = ctx.Err()
		}

		if streamErr != nil {
			cancel()
			// Let the provider goroutine observe cancellation and exit.
			for range chunks {
			}
			observability.ObserveRequest(model, observability.ModeStream, start, streamErr)
			finish(StreamResult[T]{Err: streamErr})
			return
		}

		final, err := finalize[T](acc)
		observability.ObserveRequest(model, observability.ModeStream, start, err)
		if err != nil {
			finish(StreamResult[T]{Err: err})
			return
		}
		observability.RecordUsage(model, final.UsageMetadata)
		debug.Log("stream", "stream complete", "model", model, "chunks", acc.chunks, "candidates", len(final.Candidates))
		finish(StreamResult[T]{Final: final})
	}()

	return out, nil
}

// candidateAccumulator merges the chunks of one candidate index. All text
// fragments collapse into a single text part at the position of the first
// fragment; other parts are kept in arrival order.
type candidateAccumulator struct {
	cand   api.Candidate[string]
	textAt int
	text   strings.Builder
}

type streamAccumulator struct {
	chunks     int
	candidates map[int32]*candidateAccumulator
	meta       api.GenerateContentResponse[string]
}

func newStreamAccumulator() *streamAccumulator {
	return &streamAccumulator{candidates: make(map[int32]*candidateAccumulator)}
}

func (a *streamAccumulator) add(resp *api.GenerateContentResponse[string]) {
	a.chunks++
	if resp.PromptFeedback != nil {
		a.meta.PromptFeedback = resp.PromptFeedback
	}
	if resp.UsageMetadata != nil {
		a.meta.UsageMetadata = resp.UsageMetadata
	}
	if resp.ModelVersion != "" {
		a.meta.ModelVersion = resp.ModelVersion
	}
	if resp.ResponseID != "" {
		a.meta.ResponseID = resp.ResponseID
	}

	for _, c := range resp.Candidates {
		ca, ok := a.candidates[c.Index]
		if !ok {
			ca = &candidateAccumulator{textAt: -1}
			ca.cand.Index = c.Index
			a.candidates[c.Index] = ca
		}
		if c.Content.Role != "" {
			ca.cand.Content.Role = c.Content.Role
		}
		if c.FinishReason != "" {
			ca.cand.FinishReason = c.FinishReason
		}
		if c.FinishMessage != "" {
			ca.cand.FinishMessage = c.FinishMessage
		}
		if c.SafetyRatings != nil {
			ca.cand.SafetyRatings = c.SafetyRatings
		}
		for _, p := range c.Content.Parts {
			if text, ok := p.TextValue(); ok {
				if ca.textAt < 0 {
					ca.textAt = len(ca.cand.Content.Parts)
					ca.cand.Content.Parts = append(ca.cand.Content.Parts, api.Part[string]{})
				}
				ca.text.WriteString(text)
				continue
			}
			ca.cand.Content.Parts = append(ca.cand.Content.Parts, p)
		}
	}
}

// finalize builds the typed response from everything accumulated so far.
func finalize[T any](a *streamAccumulator) (*api.GenerateContentResponse[T], error) {
	resp := &api.GenerateContentResponse[T]{
		PromptFeedback: a.meta.PromptFeedback,
		UsageMetadata:  a.meta.UsageMetadata,
		ModelVersion:   a.meta.ModelVersion,
		ResponseID:     a.meta.ResponseID,
	}

	for _, idx := range slices.Sorted(maps.Keys(a.candidates)) {
		ca := a.candidates[idx]
		cand := api.Candidate[T]{
			Content:       api.Content[T]{Role: ca.cand.Content.Role},
			FinishReason:  ca.cand.FinishReason,
			FinishMessage: ca.cand.FinishMessage,
			SafetyRatings: ca.cand.SafetyRatings,
			Index:         ca.cand.Index,
		}
		for i, p := range ca.cand.Content.Parts {
			if i == ca.textAt {
				v, err := api.DecodeText[T](ca.text.String())
				if err != nil {
					return nil, err
				}
				cand.Content.Parts = append(cand.Content.Parts, api.NewTextPart(v))
				continue
			}
			cand.Content.Parts = append(cand.Content.Parts, retype[T](p))
		}
		resp.Candidates = append(resp.Candidates, cand)
	}
	return resp, nil
}

// retype converts a part without text to any other text type.
func retype[T any](p api.Part[string]) api.Part[T] {
	return api.Part[T]{
		InlineData:          p.InlineData,
		FunctionCall:        p.FunctionCall,
		FunctionResponse:    p.FunctionResponse,
		FileData:            p.FileData,
		ExecutableCode:      p.ExecutableCode,
		CodeExecutionResult: p.CodeExecutionResult,
		VideoMetadata:       p.VideoMetadata,
	}
}
