package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"

	"github.com/rhuss/gemini-go/pkg/schema"
)

type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

type badSchema struct {
	Fn func() `json:"fn"`
}

func TestBuild_PlainTextNeedsNoSchema(t *testing.T) {
	cfg, err := NewGenerationConfigBuilder[string]().
		Temperature(0.5).
		MaxOutputTokens(256).
		AddStopSequence("END").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !cfg.Schema().IsZero() {
		t.Errorf("Schema() = %v, want none", cfg.Schema().Format())
	}
	if got := cfg.Params().ResponseMimeType; got != "" {
		t.Errorf("ResponseMimeType = %q, want unset", got)
	}
}

func TestBuild_TypedWithoutSchemaFails(t *testing.T) {
	tests := []struct {
		name  string
		build func() error
	}{
		{"struct", func() error { _, err := NewGenerationConfigBuilder[person]().Build(); return err }},
		{"int", func() error { _, err := NewGenerationConfigBuilder[int]().Temperature(1).Build(); return err }},
		{"slice", func() error { _, err := NewGenerationConfigBuilder[[]string]().Build(); return err }},
		{"named string", func() error { _, err := NewGenerationConfigBuilder[label]().Build(); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			if !errors.Is(err, ErrSchemaRequiredForTypedResponse) {
				t.Fatalf("err = %v, want ErrSchemaRequiredForTypedResponse", err)
			}
			apiErr, ok := AsAPIError(err)
			if !ok || apiErr.Message == "" {
				t.Errorf("expected descriptive *APIError, got %#v", err)
			}
		})
	}
}

func TestBuild_TypedWithEitherSchemaSucceeds(t *testing.T) {
	base := NewGenerationConfigBuilder[string]()

	openapi, err := WithResponseSchema[person](base).Build()
	if err != nil {
		t.Fatalf("WithResponseSchema Build: %v", err)
	}
	if openapi.ResponseSchema() == nil || openapi.ResponseJSONSchema() != nil {
		t.Errorf("openapi config slots = %v / %v", openapi.ResponseSchema(), openapi.ResponseJSONSchema())
	}
	if got := openapi.Params().ResponseMimeType; got != ResponseMimeTypeJSON {
		t.Errorf("ResponseMimeType = %q, want application/json", got)
	}

	js, err := WithResponseJSONSchema[person](base).Build()
	if err != nil {
		t.Fatalf("WithResponseJSONSchema Build: %v", err)
	}
	if js.ResponseJSONSchema() == nil || js.ResponseSchema() != nil {
		t.Errorf("json schema config slots = %v / %v", js.ResponseSchema(), js.ResponseJSONSchema())
	}
	if got := js.Params().ResponseMimeType; got != ResponseMimeTypeJSON {
		t.Errorf("ResponseMimeType = %q, want application/json", got)
	}
}

func TestSchemaMutualExclusivity(t *testing.T) {
	base := NewGenerationConfigBuilder[string]().TextResponse()

	t.Run("json schema after openapi", func(t *testing.T) {
		b := WithResponseJSONSchema[person](WithResponseSchema[person](base))
		if b.Schema().Format() != schema.FormatJSONSchema {
			t.Fatalf("Format = %v, want jsonschema", b.Schema().Format())
		}
		if b.Schema().OpenAPISchema() != nil {
			t.Error("openapi slot should be cleared")
		}
		if b.Params().ResponseMimeType != ResponseMimeTypeJSON {
			t.Errorf("ResponseMimeType = %q, want application/json", b.Params().ResponseMimeType)
		}
	})

	t.Run("openapi after json schema", func(t *testing.T) {
		b := WithResponseSchema[person](WithResponseJSONSchema[person](base))
		if b.Schema().Format() != schema.FormatOpenAPI {
			t.Fatalf("Format = %v, want openapi", b.Schema().Format())
		}
		if b.Schema().JSONSchemaDocument() != nil {
			t.Error("json schema slot should be cleared")
		}
		if b.Params().ResponseMimeType != ResponseMimeTypeJSON {
			t.Errorf("ResponseMimeType = %q, want application/json", b.Params().ResponseMimeType)
		}
	})

	t.Run("wire carries one schema", func(t *testing.T) {
		cfg, err := WithResponseSchema[person](WithResponseJSONSchema[person](base)).Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		data, err := json.Marshal(cfg)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !gjson.GetBytes(data, "responseSchema").Exists() {
			t.Errorf("responseSchema missing: %s", data)
		}
		if gjson.GetBytes(data, "responseJsonSchema").Exists() {
			t.Errorf("responseJsonSchema should be absent: %s", data)
		}
	})
}

func TestSchemaTransitionCarriesKnobs(t *testing.T) {
	b := NewGenerationConfigBuilder[string]().
		StopSequences("a", "b").
		AddResponseModality(genai.ModalityText).
		CandidateCount(2).
		MaxOutputTokens(100).
		Temperature(0.7).
		TopP(0.9).
		TopK(40).
		Seed(7).
		PresencePenalty(0.1).
		FrequencyPenalty(0.2).
		ResponseLogprobs(true).
		Logprobs(3).
		EnableEnhancedCivicAnswers(true).
		ThinkingConfig(&genai.ThinkingConfig{IncludeThoughts: true}).
		MediaResolution(genai.MediaResolutionLow)

	typed := WithResponseJSONSchema[person](b)

	want := b.Params()
	want.ResponseMimeType = ResponseMimeTypeJSON
	if diff := cmp.Diff(want, typed.Params()); diff != "" {
		t.Errorf("knobs not carried over (-want +got):\n%s", diff)
	}
}

func TestBuilderIsValueTyped(t *testing.T) {
	base := NewGenerationConfigBuilder[string]().AddStopSequence("x")
	left := base.AddStopSequence("left")
	right := base.AddStopSequence("right")

	if diff := cmp.Diff([]string{"x"}, base.Params().StopSequences); diff != "" {
		t.Errorf("base changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x", "left"}, left.Params().StopSequences); diff != "" {
		t.Errorf("left branch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x", "right"}, right.Params().StopSequences); diff != "" {
		t.Errorf("right branch (-want +got):\n%s", diff)
	}

	_ = base.Temperature(1.5)
	if base.Params().Temperature != nil {
		t.Error("setter mutated the receiver")
	}
}

func TestBuild_SnapshotIsIndependent(t *testing.T) {
	seqs := []string{"a"}
	b := NewGenerationConfigBuilder[string]().StopSequences(seqs...)
	seqs[0] = "mutated"

	cfg, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cfg.Params().StopSequences[0] = "changed"
	if got := b.Params().StopSequences[0]; got != "a" {
		t.Errorf("builder stop sequence = %q, want a", got)
	}
	if got := cfg.Params().StopSequences[0]; got != "a" {
		t.Errorf("config stop sequence = %q, want a", got)
	}
}

func TestGenerationConfig_ParamsIsCopy(t *testing.T) {
	cfg, err := WithResponseSchema[person](NewGenerationConfigBuilder[string]().Temperature(0.3)).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p := cfg.Params()
	p.ResponseMimeType = ResponseMimeTypeTextPlain
	p.Temperature = nil

	got := cfg.Params()
	if got.ResponseMimeType != ResponseMimeTypeJSON {
		t.Errorf("ResponseMimeType = %q, want application/json", got.ResponseMimeType)
	}
	if got.Temperature == nil || *got.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", got.Temperature)
	}
}

func TestSchemaGenerationFailureSurfacesAtBuild(t *testing.T) {
	b := WithResponseSchema[badSchema](NewGenerationConfigBuilder[string]())
	_, err := b.Build()
	if !errors.Is(err, ErrSchemaGeneration) {
		t.Fatalf("err = %v, want ErrSchemaGeneration", err)
	}

	_, err = WithResponseJSONSchema[badSchema](NewGenerationConfigBuilder[string]()).Build()
	if !errors.Is(err, ErrSchemaGeneration) {
		t.Fatalf("err = %v, want ErrSchemaGeneration", err)
	}

	// A later successful attachment replaces the failed one.
	fixed := WithResponseJSONSchema[person](b)
	if _, err := fixed.Build(); err != nil {
		t.Errorf("Build after replacing schema: %v", err)
	}
}

func TestSchemaDocuments(t *testing.T) {
	base := NewGenerationConfigBuilder[string]()

	cfg, err := WithOpenAPISchemaDocument[[]string](base, &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.ResponseSchema().Type != genai.TypeArray {
		t.Errorf("ResponseSchema().Type = %q", cfg.ResponseSchema().Type)
	}

	cfg2, err := WithJSONSchemaDocument[[]string](base, &jsonschema.Schema{Type: "array"}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg2.ResponseJSONSchema().Type != "array" {
		t.Errorf("ResponseJSONSchema().Type = %q", cfg2.ResponseJSONSchema().Type)
	}

	if _, err := WithJSONSchemaDocument[person](base, nil).Build(); !errors.Is(err, ErrSchemaGeneration) {
		t.Errorf("nil document err = %v, want ErrSchemaGeneration", err)
	}
}

func TestMimeTypeShortcuts(t *testing.T) {
	b := NewGenerationConfigBuilder[string]()
	if got := b.TextResponse().Params().ResponseMimeType; got != ResponseMimeTypeTextPlain {
		t.Errorf("TextResponse = %q", got)
	}
	if got := b.EnumResponse().Params().ResponseMimeType; got != ResponseMimeTypeEnum {
		t.Errorf("EnumResponse = %q", got)
	}
}

func TestGenerationConfigWire(t *testing.T) {
	cfg, err := WithResponseJSONSchema[person](
		NewGenerationConfigBuilder[string]().
			StopSequences("STOP").
			Temperature(0.5).
			TopK(3).
			ResponseModalities(genai.ModalityText).
			ImageConfig(json.RawMessage(`{"aspectRatio":"16:9"}`)),
	).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	checks := []struct{ path, want string }{
		{"stopSequences.0", "STOP"},
		{"responseMimeType", "application/json"},
		{"responseModalities.0", "TEXT"},
		{"temperature", "0.5"},
		{"topK", "3"},
		{"imageConfig.aspectRatio", "16:9"},
		{"responseJsonSchema.type", "object"},
		{"responseJsonSchema.properties.age.type", "integer"},
	}
	for _, c := range checks {
		if got := gjson.GetBytes(data, c.path).String(); got != c.want {
			t.Errorf("%s = %q, want %q\n%s", c.path, got, c.want, data)
		}
	}
	for _, absent := range []string{"topP", "seed", "candidateCount", "responseSchema", "speechConfig", "mediaResolution"} {
		if gjson.GetBytes(data, absent).Exists() {
			t.Errorf("%s should be omitted: %s", absent, data)
		}
	}

	var back GenerationConfig[person]
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Schema().Format() != schema.FormatJSONSchema {
		t.Errorf("decoded schema format = %v, want jsonschema", back.Schema().Format())
	}
	if temp := back.Params().Temperature; temp == nil || *temp != 0.5 {
		t.Errorf("decoded temperature = %v", temp)
	}
}

func TestGenerationConfig_UnmarshalOpenAPI(t *testing.T) {
	var cfg GenerationConfig[person]
	err := json.Unmarshal([]byte(`{"responseMimeType":"application/json","responseSchema":{"type":"OBJECT"}}`), &cfg)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.ResponseSchema() == nil || cfg.ResponseSchema().Type != genai.TypeObject {
		t.Errorf("ResponseSchema() = %+v", cfg.ResponseSchema())
	}
}

func TestGenerationConfig_UnmarshalTypedRequiresSchema(t *testing.T) {
	var typed GenerationConfig[person]
	err := json.Unmarshal([]byte(`{"responseMimeType":"application/json","temperature":0.2}`), &typed)
	if !errors.Is(err, ErrSchemaRequiredForTypedResponse) {
		t.Errorf("typed err = %v, want ErrSchemaRequiredForTypedResponse", err)
	}

	var plain GenerationConfig[string]
	if err := json.Unmarshal([]byte(`{"temperature":0.2}`), &plain); err != nil {
		t.Errorf("plain Unmarshal: %v", err)
	}
}

func TestToBuilder(t *testing.T) {
	cfg, err := WithResponseSchema[person](NewGenerationConfigBuilder[string]().Seed(1)).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	again, err := cfg.ToBuilder().Seed(2).Build()
	if err != nil {
		t.Fatalf("Build from ToBuilder: %v", err)
	}
	if *again.Params().Seed != 2 || *cfg.Params().Seed != 1 {
		t.Errorf("seeds = %d / %d, want 2 / 1", *again.Params().Seed, *cfg.Params().Seed)
	}
	if again.Schema().Format() != schema.FormatOpenAPI {
		t.Errorf("schema not carried by ToBuilder")
	}
}
