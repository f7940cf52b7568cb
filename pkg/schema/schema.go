// Package schema derives response schemas from Go types.
//
// Two formats are supported and a configuration carries at most one of them:
//
//   - JSON Schema (the responseJsonSchema wire field), derived with
//     github.com/google/jsonschema-go.
//   - The API-native OpenAPI subset (the responseSchema wire field),
//     represented as *genai.Schema and produced by converting the JSON Schema.
//
// A type can bypass reflection by implementing JSONSchemaProvider or
// OpenAPISchemaProvider on its value receiver.
//
// Struct fields without omitempty or omitzero are required. The jsonschema
// struct tag supplies the field description:
//
//	type Person struct {
//	    Name string `json:"name" jsonschema:"the person's full name"`
//	    Age  int    `json:"age"`
//	}
package schema

import (
	"fmt"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"

	"github.com/rhuss/gemini-go/pkg/debug"
)

// Format identifies which schema document a Descriptor carries.
type Format int

const (
	FormatNone Format = iota
	FormatOpenAPI
	FormatJSONSchema
)

func (f Format) String() string {
	switch f {
	case FormatOpenAPI:
		return "openapi"
	case FormatJSONSchema:
		return "jsonschema"
	default:
		return "none"
	}
}

// Descriptor holds exactly one schema document, or none.
// The zero value is FormatNone.
type Descriptor struct {
	format  Format
	openAPI *genai.Schema
	json    *jsonschema.Schema
}

// OpenAPI returns a descriptor carrying an API-native schema.
// A nil schema yields the empty descriptor.
func OpenAPI(s *genai.Schema) Descriptor {
	if s == nil {
		return Descriptor{}
	}
	return Descriptor{format: FormatOpenAPI, openAPI: s}
}

// JSONSchema returns a descriptor carrying a JSON Schema document.
// A nil schema yields the empty descriptor.
func JSONSchema(s *jsonschema.Schema) Descriptor {
	if s == nil {
		return Descriptor{}
	}
	return Descriptor{format: FormatJSONSchema, json: s}
}

// Format reports which document is present.
func (d Descriptor) Format() Format { return d.format }

// IsZero reports whether no document is present.
func (d Descriptor) IsZero() bool { return d.format == FormatNone }

// OpenAPISchema returns the API-native document, or nil.
func (d Descriptor) OpenAPISchema() *genai.Schema { return d.openAPI }

// JSONSchemaDocument returns the JSON Schema document, or nil.
func (d Descriptor) JSONSchemaDocument() *jsonschema.Schema { return d.json }

// JSONSchemaProvider is implemented by types that supply their own JSON Schema.
type JSONSchemaProvider interface {
	JSONSchema() *jsonschema.Schema
}

// OpenAPISchemaProvider is implemented by types that supply their own
// API-native schema.
type OpenAPISchemaProvider interface {
	OpenAPISchema() *genai.Schema
}

// JSONSchemaFor returns the JSON Schema for R.
func JSONSchemaFor[R any]() (*jsonschema.Schema, error) {
	var zero R
	if p, ok := any(zero).(JSONSchemaProvider); ok {
		if s := p.JSONSchema(); s != nil {
			return s, nil
		}
	}
	s, err := jsonschema.For[R](nil)
	if err != nil {
		return nil, fmt.Errorf("json schema for %s: %w", TypeName[R](), err)
	}
	debug.Log("schema", "derived json schema", "type", TypeName[R]())
	return s, nil
}

// OpenAPISchemaFor returns the API-native schema for R.
func OpenAPISchemaFor[R any]() (*genai.Schema, error) {
	var zero R
	if p, ok := any(zero).(OpenAPISchemaProvider); ok {
		if s := p.OpenAPISchema(); s != nil {
			return s, nil
		}
	}
	js, err := JSONSchemaFor[R]()
	if err != nil {
		return nil, err
	}
	s, err := FromJSONSchema(js)
	if err != nil {
		return nil, fmt.Errorf("openapi schema for %s: %w", TypeName[R](), err)
	}
	applyPropertyOrdering(s, reflect.TypeFor[R]())
	debug.Log("schema", "derived openapi schema", "type", TypeName[R]())
	return s, nil
}

// TypeName returns a printable name for R.
func TypeName[R any]() string {
	return reflect.TypeFor[R]().String()
}
