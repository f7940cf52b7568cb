package api

import (
	"encoding/json"

	"google.golang.org/genai"
)

// GenerateContentResponse is the decoded body of a generateContent call, or
// one chunk of a streamed call. Decoding fails as a whole if any candidate's
// text cannot be decoded into T.
type GenerateContentResponse[T any] struct {
	Candidates     []Candidate[T]  `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
	ResponseID     string          `json:"responseId,omitempty"`
}

// Candidate is one generated alternative.
type Candidate[T any] struct {
	Content       Content[T]         `json:"content"`
	FinishReason  genai.FinishReason `json:"finishReason,omitempty"`
	FinishMessage string             `json:"finishMessage,omitempty"`
	SafetyRatings []SafetyRating     `json:"safetyRatings"`
	Index         int32              `json:"index,omitempty"`
}

type candidateWire[T any] Candidate[T]

// MarshalJSON implements json.Marshaler. safetyRatings is always emitted,
// as an empty array when there are none.
func (c Candidate[T]) MarshalJSON() ([]byte, error) {
	if c.SafetyRatings == nil {
		c.SafetyRatings = []SafetyRating{}
	}
	return json.Marshal(candidateWire[T](c))
}

// PromptFeedback reports content filtering applied to the prompt.
type PromptFeedback struct {
	BlockReason   genai.BlockedReason `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating      `json:"safetyRatings,omitempty"`
}

// UsageMetadata holds token counts for the call.
type UsageMetadata struct {
	PromptTokenCount        *int32 `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount    *int32 `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount         *int32 `json:"totalTokenCount,omitempty"`
	CachedContentTokenCount *int32 `json:"cachedContentTokenCount,omitempty"`
	ThoughtsTokenCount      *int32 `json:"thoughtsTokenCount,omitempty"`
}

// FirstCandidate returns the first candidate, or nil.
func (r *GenerateContentResponse[T]) FirstCandidate() *Candidate[T] {
	if len(r.Candidates) == 0 {
		return nil
	}
	return &r.Candidates[0]
}

// FirstContent returns the first candidate's content, or nil.
func (r *GenerateContentResponse[T]) FirstContent() *Content[T] {
	if c := r.FirstCandidate(); c != nil {
		return &c.Content
	}
	return nil
}

// FirstText returns the first candidate's first text value.
func (r *GenerateContentResponse[T]) FirstText() (T, bool) {
	if c := r.FirstContent(); c != nil {
		return c.FirstText()
	}
	var zero T
	return zero, false
}

// Blocked reports whether the prompt was rejected by content filtering.
func (r *GenerateContentResponse[T]) Blocked() bool {
	return r.PromptFeedback != nil && r.PromptFeedback.BlockReason != ""
}

// Tokens returns the prompt, candidate and total counts, reading absent
// counts (or a nil receiver) as zero.
func (u *UsageMetadata) Tokens() (prompt, candidates, total int32) {
	if u == nil {
		return 0, 0, 0
	}
	return deref(u.PromptTokenCount), deref(u.CandidatesTokenCount), deref(u.TotalTokenCount)
}

func deref(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}
