package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// maxDepth bounds recursion through $ref chains.
const maxDepth = 32

// FromJSONSchema converts a JSON Schema document into the OpenAPI subset the
// API accepts for responseSchema. Keywords outside that subset are dropped.
func FromJSONSchema(js *jsonschema.Schema) (*genai.Schema, error) {
	if js == nil {
		return nil, fmt.Errorf("nil schema")
	}
	c := converter{root: js}
	return c.convert(js, 0)
}

type converter struct {
	root *jsonschema.Schema
}

func (c converter) convert(js *jsonschema.Schema, depth int) (*genai.Schema, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("schema nesting exceeds %d levels", maxDepth)
	}
	if js.Ref != "" {
		target, err := c.resolve(js.Ref)
		if err != nil {
			return nil, err
		}
		return c.convert(target, depth+1)
	}

	out := &genai.Schema{
		Title:       js.Title,
		Description: js.Description,
		Format:      js.Format,
		Pattern:     js.Pattern,
		Minimum:     js.Minimum,
		Maximum:     js.Maximum,
		MinLength:   int64Ptr(js.MinLength),
		MaxLength:   int64Ptr(js.MaxLength),
		MinItems:    int64Ptr(js.MinItems),
		MaxItems:    int64Ptr(js.MaxItems),
		Required:    js.Required,
	}

	typ, nullable, err := primaryType(js)
	if err != nil {
		return nil, err
	}
	out.Type = typ
	if nullable {
		out.Nullable = genai.Ptr(true)
	}

	if len(js.Enum) > 0 {
		out.Enum = make([]string, len(js.Enum))
		for i, v := range js.Enum {
			out.Enum[i] = fmt.Sprint(v)
		}
		if out.Type == "" {
			out.Type = genai.TypeString
		}
	}

	if len(js.Default) > 0 {
		var def any
		if err := json.Unmarshal(js.Default, &def); err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		out.Default = def
	}

	if js.Items != nil {
		items, err := c.convert(js.Items, depth+1)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		out.Items = items
	}

	if len(js.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(js.Properties))
		for name, prop := range js.Properties {
			ps, err := c.convert(prop, depth+1)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			out.Properties[name] = ps
		}
	}

	for _, alt := range append(append([]*jsonschema.Schema(nil), js.AnyOf...), js.OneOf...) {
		as, err := c.convert(alt, depth+1)
		if err != nil {
			return nil, fmt.Errorf("anyOf: %w", err)
		}
		out.AnyOf = append(out.AnyOf, as)
	}

	return out, nil
}

func (c converter) resolve(ref string) (*jsonschema.Schema, error) {
	name, ok := strings.CutPrefix(ref, "#/$defs/")
	if !ok {
		name, ok = strings.CutPrefix(ref, "#/definitions/")
	}
	if !ok {
		return nil, fmt.Errorf("unsupported $ref %q", ref)
	}
	defs := c.root.Defs
	if defs == nil {
		defs = c.root.Definitions
	}
	target, found := defs[name]
	if !found {
		return nil, fmt.Errorf("unresolved $ref %q", ref)
	}
	return target, nil
}

// primaryType picks the single API type for js. A "null" entry in a type
// list becomes the nullable flag. An untyped schema yields "".
func primaryType(js *jsonschema.Schema) (genai.Type, bool, error) {
	types := js.Types
	if js.Type != "" {
		types = []string{js.Type}
	}
	var (
		picked   genai.Type
		nullable bool
	)
	for _, t := range types {
		if t == "null" {
			nullable = true
			continue
		}
		gt, err := apiType(t)
		if err != nil {
			return "", false, err
		}
		if picked != "" && picked != gt {
			return "", false, fmt.Errorf("multiple non-null types %v are not representable", types)
		}
		picked = gt
	}
	if picked == "" {
		if nullable {
			return genai.TypeNULL, false, nil
		}
		return "", false, nil
	}
	return picked, nullable, nil
}

func apiType(t string) (genai.Type, error) {
	switch t {
	case "string":
		return genai.TypeString, nil
	case "integer":
		return genai.TypeInteger, nil
	case "number":
		return genai.TypeNumber, nil
	case "boolean":
		return genai.TypeBoolean, nil
	case "array":
		return genai.TypeArray, nil
	case "object":
		return genai.TypeObject, nil
	default:
		return "", fmt.Errorf("unknown type %q", t)
	}
}

func int64Ptr(p *int) *int64 {
	if p == nil {
		return nil
	}
	v := int64(*p)
	return &v
}

// applyPropertyOrdering sets propertyOrdering on object schemas from the
// declaration order of the corresponding struct fields.
func applyPropertyOrdering(s *genai.Schema, t reflect.Type) {
	if s == nil || t == nil {
		return
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		applyPropertyOrdering(s.Items, t.Elem())
	case reflect.Struct:
		fields := jsonFields(t)
		for _, f := range fields {
			if _, ok := s.Properties[f.name]; ok {
				s.PropertyOrdering = append(s.PropertyOrdering, f.name)
				applyPropertyOrdering(s.Properties[f.name], f.typ)
			}
		}
	}
}

type jsonField struct {
	name string
	typ  reflect.Type
}

// jsonFields lists exported fields by their JSON names, flattening embedded
// structs without a tag the way encoding/json does.
func jsonFields(t reflect.Type) []jsonField {
	var out []jsonField
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				out = append(out, jsonFields(ft)...)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out = append(out, jsonField{name: name, typ: f.Type})
	}
	return out
}
