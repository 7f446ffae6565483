// Package schema provides typed, JSON-Schema backed validation for use-case
// attributes, client action arguments and results.
package schema

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSON Schema primitive types.
const (
	TypeObject  = "object"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
)

// Validatable is implemented by anything able to check a raw payload and
// either return the accepted value or a *ValidationError.
type Validatable interface {
	Validate(raw map[string]any) (map[string]any, error)
}

// Describer exposes the JSON document behind a Validatable.
type Describer interface {
	Document() *JSONSchema
}

// JSONSchema represents an object schema.
type JSONSchema struct {
	Type                 string               `json:"type"`
	Title                string               `json:"title,omitempty"`
	Description          string               `json:"description,omitempty"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	AdditionalProperties *bool                `json:"additionalProperties,omitempty"`
}

// Property represents a JSON Schema property.
type Property struct {
	Type                 string               `json:"type,omitempty"`
	Description          string               `json:"description,omitempty"`
	Enum                 []any                `json:"enum,omitempty"`
	Default              any                  `json:"default,omitempty"`
	Format               string               `json:"format,omitempty"`
	MinLength            *int                 `json:"minLength,omitempty"`
	MaxLength            *int                 `json:"maxLength,omitempty"`
	Minimum              *float64             `json:"minimum,omitempty"`
	Pattern              string               `json:"pattern,omitempty"`
	Items                *Property            `json:"items,omitempty"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	AdditionalProperties *Property            `json:"additionalProperties,omitempty"`

	// Nullable also accepts an explicit null.
	Nullable bool `json:"-"`
}

// MarshalJSON renders a nullable property as a type union with "null".
func (p *Property) MarshalJSON() ([]byte, error) {
	type plain Property

	if !p.Nullable || p.Type == "" {
		return json.Marshal((*plain)(p))
	}

	var enum []any
	if len(p.Enum) > 0 {
		enum = append(append(enum, p.Enum...), nil)
	}

	return json.Marshal(struct {
		*plain
		Type []string `json:"type"`
		Enum []any    `json:"enum,omitempty"`
	}{
		plain: (*plain)(p),
		Type:  []string{p.Type, "null"},
		Enum:  enum,
	})
}

// Schema is a compiled JSONSchema.
type Schema struct {
	doc      *JSONSchema
	compiled *gojsonschema.Schema
}

// Field declares one property of an object schema.
type Field struct {
	Name     string
	Property *Property
	Optional bool
}

// Required declares a mandatory field.
func Required(name string, p *Property) Field {
	return Field{Name: name, Property: p}
}

// Optional declares a field that may be omitted or set to null.
func Optional(name string, p *Property) Field {
	nullable := *p
	nullable.Nullable = true

	return Field{Name: name, Property: &nullable, Optional: true}
}

func String() *Property  { return &Property{Type: TypeString} }
func Integer() *Property { return &Property{Type: TypeInteger} }
func Number() *Property  { return &Property{Type: TypeNumber} }
func Boolean() *Property { return &Property{Type: TypeBoolean} }

// ArrayOf describes a list whose items match p.
func ArrayOf(p *Property) *Property {
	return &Property{Type: TypeArray, Items: p}
}

// MapOf describes an object with arbitrary keys whose values match p.
func MapOf(p *Property) *Property {
	return &Property{Type: TypeObject, AdditionalProperties: p}
}

// Enum describes a string restricted to values.
func Enum(values ...string) *Property {
	enum := make([]any, 0, len(values))
	for _, v := range values {
		enum = append(enum, v)
	}

	return &Property{Type: TypeString, Enum: enum}
}

// ObjectOf describes a nested object built from fields.
func ObjectOf(fields ...Field) *Property {
	p := &Property{Type: TypeObject, Properties: make(map[string]*Property, len(fields))}
	for _, f := range fields {
		p.Properties[f.Name] = f.Property
		if !f.Optional {
			p.Required = append(p.Required, f.Name)
		}
	}

	return p
}

// Object builds a schema that tolerates unknown keys.
func Object(fields ...Field) (*Schema, error) {
	return New(document(false, fields))
}

// Strict builds a schema that rejects unknown keys.
func Strict(fields ...Field) (*Schema, error) {
	return New(document(true, fields))
}

// MustObject is like Object but panics on a malformed declaration.
func MustObject(fields ...Field) *Schema {
	s, err := Object(fields...)
	if err != nil {
		panic(err)
	}

	return s
}

// MustStrict is like Strict but panics on a malformed declaration.
func MustStrict(fields ...Field) *Schema {
	s, err := Strict(fields...)
	if err != nil {
		panic(err)
	}

	return s
}

// Empty accepts any object.
func Empty() *Schema {
	return MustObject()
}

func document(strict bool, fields []Field) *JSONSchema {
	doc := &JSONSchema{
		Type:       TypeObject,
		Properties: make(map[string]*Property, len(fields)),
	}
	for _, f := range fields {
		doc.Properties[f.Name] = f.Property
		if !f.Optional {
			doc.Required = append(doc.Required, f.Name)
		}
	}

	if strict {
		additional := false
		doc.AdditionalProperties = &additional
	}

	return doc
}

// New compiles doc.
func New(doc *JSONSchema) (*Schema, error) {
	if doc == nil {
		return nil, fmt.Errorf("schema document is nil")
	}

	if doc.Type != TypeObject {
		return nil, fmt.Errorf("schema type must be %q, got %q", TypeObject, doc.Type)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return &Schema{doc: doc, compiled: compiled}, nil
}

// Document returns the schema document.
func (s *Schema) Document() *JSONSchema {
	return s.doc
}

// Names returns the declared property names in sorted order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.doc.Properties))
	for name := range s.doc.Properties {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Validate checks raw against the schema. A nil raw is treated as an empty
// object. Every offending field is reported.
func (s *Schema) Validate(raw map[string]any) (map[string]any, error) {
	if raw == nil {
		raw = map[string]any{}
	}

	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, &ValidationError{Fields: []FieldError{{
			Field:   "(root)",
			Kind:    KindInvalidValue,
			Message: err.Error(),
		}}}
	}

	if result.Valid() {
		return maps.Clone(raw), nil
	}

	fields := make([]FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		fields = append(fields, fieldError(desc))
	}

	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })

	return nil, &ValidationError{Fields: fields}
}

func fieldError(desc gojsonschema.ResultError) FieldError {
	switch desc.Type() {
	case "required":
		return FieldError{
			Field:   join(desc.Field(), desc.Details()["property"]),
			Kind:    KindMissing,
			Message: "field required",
		}
	case "additional_property_not_allowed":
		return FieldError{
			Field:   join(desc.Field(), desc.Details()["property"]),
			Kind:    KindUnknown,
			Message: "field not declared",
		}
	case "invalid_type":
		return FieldError{
			Field:   desc.Field(),
			Kind:    KindInvalidType,
			Message: desc.Description(),
		}
	default:
		return FieldError{
			Field:   desc.Field(),
			Kind:    KindInvalidValue,
			Message: desc.Description(),
		}
	}
}

func join(parent string, property any) string {
	name, _ := property.(string)
	if parent == "" || parent == gojsonschema.STRING_CONTEXT_ROOT {
		return name
	}

	return strings.Join([]string{parent, name}, ".")
}

// Decode converts a validated payload into T.
func Decode[T any](payload map[string]any) (T, error) {
	var out T

	data, err := json.Marshal(payload)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}

	return out, nil
}

// Encode converts v into a payload map.
func Encode(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	return out, nil
}
