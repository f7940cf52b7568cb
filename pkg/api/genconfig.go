package api

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"

	"github.com/rhuss/gemini-go/pkg/schema"
)

// ---------------------------------------------------------------------------
// GenerationConfig
// ---------------------------------------------------------------------------

// GenerationParams holds the tuning knobs of a generation config. Nil and
// empty fields are omitted on the wire.
type GenerationParams struct {
	StopSequences              []string              `json:"stopSequences,omitempty"`
	ResponseMimeType           ResponseMimeType      `json:"responseMimeType,omitempty"`
	ResponseModalities         []genai.Modality      `json:"responseModalities,omitempty"`
	CandidateCount             *int32                `json:"candidateCount,omitempty"`
	MaxOutputTokens            *int32                `json:"maxOutputTokens,omitempty"`
	Temperature                *float32              `json:"temperature,omitempty"`
	TopP                       *float32              `json:"topP,omitempty"`
	TopK                       *int32                `json:"topK,omitempty"`
	Seed                       *int32                `json:"seed,omitempty"`
	PresencePenalty            *float32              `json:"presencePenalty,omitempty"`
	FrequencyPenalty           *float32              `json:"frequencyPenalty,omitempty"`
	ResponseLogprobs           *bool                 `json:"responseLogprobs,omitempty"`
	Logprobs                   *int32                `json:"logprobs,omitempty"`
	EnableEnhancedCivicAnswers *bool                 `json:"enableEnhancedCivicAnswers,omitempty"`
	SpeechConfig               *genai.SpeechConfig   `json:"speechConfig,omitempty"`
	ThinkingConfig             *genai.ThinkingConfig `json:"thinkingConfig,omitempty"`
	ImageConfig                json.RawMessage       `json:"imageConfig,omitempty"`
	MediaResolution            genai.MediaResolution `json:"mediaResolution,omitempty"`
}

func (p GenerationParams) clone() GenerationParams {
	p.StopSequences = slices.Clone(p.StopSequences)
	p.ResponseModalities = slices.Clone(p.ResponseModalities)
	p.ImageConfig = slices.Clone(p.ImageConfig)
	return p
}

// GenerationConfig is a finalized generation config whose responses carry
// text of type T. Obtain one from GenerationConfigBuilder.Build. It cannot
// be modified; use ToBuilder to derive a changed copy.
type GenerationConfig[T any] struct {
	params GenerationParams
	schema schema.Descriptor
	_      [0]T
}

// Params returns a copy of the tuning knobs.
func (c *GenerationConfig[T]) Params() GenerationParams {
	return c.params.clone()
}

// Schema returns the attached response schema descriptor.
func (c *GenerationConfig[T]) Schema() schema.Descriptor {
	return c.schema
}

// ResponseSchema returns the API-native response schema, or nil.
func (c *GenerationConfig[T]) ResponseSchema() *genai.Schema {
	return c.schema.OpenAPISchema()
}

// ResponseJSONSchema returns the JSON Schema response schema, or nil.
func (c *GenerationConfig[T]) ResponseJSONSchema() *jsonschema.Schema {
	return c.schema.JSONSchemaDocument()
}

// ToBuilder returns a builder initialized from c.
func (c *GenerationConfig[T]) ToBuilder() GenerationConfigBuilder[T] {
	return GenerationConfigBuilder[T]{params: c.params.clone(), schema: c.schema}
}

type generationConfigWire struct {
	GenerationParams
	ResponseSchema     *genai.Schema      `json:"responseSchema,omitempty"`
	ResponseJSONSchema *jsonschema.Schema `json:"responseJsonSchema,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c GenerationConfig[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(generationConfigWire{
		GenerationParams:   c.params,
		ResponseSchema:     c.schema.OpenAPISchema(),
		ResponseJSONSchema: c.schema.JSONSchemaDocument(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. If a document carries both
// schema fields, responseJsonSchema wins. As with Build, a typed T requires
// a schema in the document.
func (c *GenerationConfig[T]) UnmarshalJSON(data []byte) error {
	var w generationConfigWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var d schema.Descriptor
	switch {
	case w.ResponseJSONSchema != nil:
		d = schema.JSONSchema(w.ResponseJSONSchema)
	case w.ResponseSchema != nil:
		d = schema.OpenAPI(w.ResponseSchema)
	}
	if !IsPlainText[T]() && d.IsZero() {
		return NewSchemaRequiredError()
	}
	c.params = w.GenerationParams
	c.schema = d
	return nil
}

// ---------------------------------------------------------------------------
// GenerationConfigBuilder
// ---------------------------------------------------------------------------

// GenerationConfigBuilder assembles a GenerationConfig[T]. It is a value:
// every method returns an updated copy and leaves the receiver untouched, so
// a partially configured builder can be branched freely.
//
// Attaching a schema changes the response type and is done with the
// top-level functions WithResponseSchema and WithResponseJSONSchema:
//
//	b := api.NewGenerationConfigBuilder[string]().Temperature(0.2)
//	cfg, err := api.WithResponseJSONSchema[Person](b).Build()
type GenerationConfigBuilder[T any] struct {
	params GenerationParams
	schema schema.Descriptor
	// err records a failure from the most recent schema attachment.
	err error
}

// NewGenerationConfigBuilder returns an empty builder for responses of type T.
func NewGenerationConfigBuilder[T any]() GenerationConfigBuilder[T] {
	return GenerationConfigBuilder[T]{}
}

// Params returns a copy of the knobs set so far.
func (b GenerationConfigBuilder[T]) Params() GenerationParams {
	return b.params.clone()
}

// Schema returns the attached schema descriptor.
func (b GenerationConfigBuilder[T]) Schema() schema.Descriptor {
	return b.schema
}

// StopSequences replaces the stop sequences.
func (b GenerationConfigBuilder[T]) StopSequences(seqs ...string) GenerationConfigBuilder[T] {
	b.params.StopSequences = slices.Clone(seqs)
	return b
}

// AddStopSequence appends one stop sequence.
func (b GenerationConfigBuilder[T]) AddStopSequence(seq string) GenerationConfigBuilder[T] {
	b.params.StopSequences = append(slices.Clip(b.params.StopSequences), seq)
	return b
}

// ResponseModalities replaces the requested output modalities.
func (b GenerationConfigBuilder[T]) ResponseModalities(mods ...genai.Modality) GenerationConfigBuilder[T] {
	b.params.ResponseModalities = slices.Clone(mods)
	return b
}

// AddResponseModality appends one output modality.
func (b GenerationConfigBuilder[T]) AddResponseModality(mod genai.Modality) GenerationConfigBuilder[T] {
	b.params.ResponseModalities = append(slices.Clip(b.params.ResponseModalities), mod)
	return b
}

func (b GenerationConfigBuilder[T]) CandidateCount(n int32) GenerationConfigBuilder[T] {
	b.params.CandidateCount = &n
	return b
}

func (b GenerationConfigBuilder[T]) MaxOutputTokens(n int32) GenerationConfigBuilder[T] {
	b.params.MaxOutputTokens = &n
	return b
}

// Temperature sets the sampling temperature, in [0, 2].
func (b GenerationConfigBuilder[T]) Temperature(v float32) GenerationConfigBuilder[T] {
	b.params.Temperature = &v
	return b
}

func (b GenerationConfigBuilder[T]) TopP(v float32) GenerationConfigBuilder[T] {
	b.params.TopP = &v
	return b
}

func (b GenerationConfigBuilder[T]) TopK(k int32) GenerationConfigBuilder[T] {
	b.params.TopK = &k
	return b
}

func (b GenerationConfigBuilder[T]) Seed(seed int32) GenerationConfigBuilder[T] {
	b.params.Seed = &seed
	return b
}

func (b GenerationConfigBuilder[T]) PresencePenalty(v float32) GenerationConfigBuilder[T] {
	b.params.PresencePenalty = &v
	return b
}

func (b GenerationConfigBuilder[T]) FrequencyPenalty(v float32) GenerationConfigBuilder[T] {
	b.params.FrequencyPenalty = &v
	return b
}

func (b GenerationConfigBuilder[T]) ResponseLogprobs(enabled bool) GenerationConfigBuilder[T] {
	b.params.ResponseLogprobs = &enabled
	return b
}

// Logprobs sets the number of top candidate log probabilities to return, in [0, 20].
// It requires ResponseLogprobs(true).
func (b GenerationConfigBuilder[T]) Logprobs(n int32) GenerationConfigBuilder[T] {
	b.params.Logprobs = &n
	return b
}

func (b GenerationConfigBuilder[T]) EnableEnhancedCivicAnswers(enabled bool) GenerationConfigBuilder[T] {
	b.params.EnableEnhancedCivicAnswers = &enabled
	return b
}

func (b GenerationConfigBuilder[T]) SpeechConfig(cfg *genai.SpeechConfig) GenerationConfigBuilder[T] {
	b.params.SpeechConfig = cfg
	return b
}

func (b GenerationConfigBuilder[T]) ThinkingConfig(cfg *genai.ThinkingConfig) GenerationConfigBuilder[T] {
	b.params.ThinkingConfig = cfg
	return b
}

// ImageConfig sets the image generation options as a raw JSON object.
func (b GenerationConfigBuilder[T]) ImageConfig(raw json.RawMessage) GenerationConfigBuilder[T] {
	b.params.ImageConfig = slices.Clone(raw)
	return b
}

func (b GenerationConfigBuilder[T]) MediaResolution(res genai.MediaResolution) GenerationConfigBuilder[T] {
	b.params.MediaResolution = res
	return b
}

// TextResponse requests text/plain output.
func (b GenerationConfigBuilder[T]) TextResponse() GenerationConfigBuilder[T] {
	b.params.ResponseMimeType = ResponseMimeTypeTextPlain
	return b
}

// EnumResponse requests text/x.enum output.
func (b GenerationConfigBuilder[T]) EnumResponse() GenerationConfigBuilder[T] {
	b.params.ResponseMimeType = ResponseMimeTypeEnum
	return b
}

// Build validates the builder and returns the finalized config. A typed
// (non-string) T requires an attached schema.
func (b GenerationConfigBuilder[T]) Build() (*GenerationConfig[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	if !IsPlainText[T]() && b.schema.IsZero() {
		return nil, NewSchemaRequiredError()
	}
	return &GenerationConfig[T]{params: b.params.clone(), schema: b.schema}, nil
}

// ---------------------------------------------------------------------------
// Schema attachment
// ---------------------------------------------------------------------------

// WithResponseSchema derives the API-native schema for R, attaches it in
// place of any previous schema, and returns a builder for responses of type R.
// All knobs carry over and the response MIME type becomes application/json.
// A derivation failure is reported by Build.
func WithResponseSchema[R, T any](b GenerationConfigBuilder[T]) GenerationConfigBuilder[R] {
	s, err := schema.OpenAPISchemaFor[R]()
	if err != nil {
		return retarget[R](b, schema.Descriptor{}, NewSchemaGenerationError(schema.TypeName[R](), err))
	}
	return retarget[R](b, schema.OpenAPI(s), nil)
}

// WithResponseJSONSchema is WithResponseSchema for the JSON Schema format.
func WithResponseJSONSchema[R, T any](b GenerationConfigBuilder[T]) GenerationConfigBuilder[R] {
	s, err := schema.JSONSchemaFor[R]()
	if err != nil {
		return retarget[R](b, schema.Descriptor{}, NewSchemaGenerationError(schema.TypeName[R](), err))
	}
	return retarget[R](b, schema.JSONSchema(s), nil)
}

// WithOpenAPISchemaDocument attaches a hand-written API-native schema
// describing R.
func WithOpenAPISchemaDocument[R, T any](b GenerationConfigBuilder[T], s *genai.Schema) GenerationConfigBuilder[R] {
	if s == nil {
		return retarget[R](b, schema.Descriptor{}, NewSchemaGenerationError(schema.TypeName[R](), errNilSchema))
	}
	return retarget[R](b, schema.OpenAPI(s), nil)
}

// WithJSONSchemaDocument attaches a hand-written JSON Schema describing R.
func WithJSONSchemaDocument[R, T any](b GenerationConfigBuilder[T], s *jsonschema.Schema) GenerationConfigBuilder[R] {
	if s == nil {
		return retarget[R](b, schema.Descriptor{}, NewSchemaGenerationError(schema.TypeName[R](), errNilSchema))
	}
	return retarget[R](b, schema.JSONSchema(s), nil)
}

var errNilSchema = errors.New("nil schema document")

func retarget[R, T any](b GenerationConfigBuilder[T], d schema.Descriptor, err error) GenerationConfigBuilder[R] {
	out := GenerationConfigBuilder[R]{params: b.params, schema: d, err: err}
	out.params.ResponseMimeType = ResponseMimeTypeJSON
	return out
}
