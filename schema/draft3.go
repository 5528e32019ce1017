package schema

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"slices"

	"github.com/erpc/rpccheck/common"
	"github.com/erpc/rpccheck/nested"
	"github.com/getkin/kin-openapi/openapi3"
)

const maxSchemaDepth = 256

const (
	formatExtension = "x-draft3-format"
	tupleExtension  = "x-draft3-tuple-items"
)

var simpleTypes = map[string]bool{
	openapi3.TypeString:  true,
	openapi3.TypeNumber:  true,
	openapi3.TypeInteger: true,
	openapi3.TypeBoolean: true,
	openapi3.TypeObject:  true,
	openapi3.TypeArray:   true,
}

// Compile translates a draft-3 JSON schema document into an equivalent
// openapi3 schema that can validate decoded data.
//
// Supported keywords: type (names, "any", "null" and embedded schemas),
// properties with per-property "required", items (schema or tuple),
// additionalProperties, enum, minimum/maximum with exclusive flags,
// divisibleBy, minLength, maxLength, pattern, minItems, maxItems,
// uniqueItems, format, extends, disallow, title, description and default.
// Other keywords are ignored. format is kept as an annotation and never
// enforced. Positional items are only checked by VisitJSON, not by the
// schema's own VisitJSON method.
func Compile(doc any) (*openapi3.Schema, error) {
	s, err := translate(doc, "#", 0)
	if err != nil {
		return nil, err
	}
	if err := usable(s); err != nil {
		return nil, err
	}
	return s, nil
}

func usable(s *openapi3.Schema) error {
	err := s.Validate(
		context.Background(),
		openapi3.DisableSchemaDefaultsValidation(),
		openapi3.DisableExamplesValidation(),
		openapi3.DisableSchemaFormatValidation(),
	)
	if err != nil {
		return common.NewErrInvalidSchema("translated schema is not usable", err)
	}
	return nil
}

func invalid(ptr, format string, args ...any) error {
	return common.NewErrInvalidSchema(fmt.Sprintf("%s: %s", ptr, fmt.Sprintf(format, args...)), nil)
}

func ref(s *openapi3.Schema) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("", s)
}

func translate(doc any, ptr string, depth int) (*openapi3.Schema, error) {
	if depth > maxSchemaDepth {
		return nil, invalid(ptr, "schema nesting exceeds %d levels", maxSchemaDepth)
	}
	if nested.KindOf(doc) != nested.KindMapping {
		return nil, invalid(ptr, "schema must be an object, got %s", nested.KindOf(doc))
	}

	s := &openapi3.Schema{}
	// untyped schemas accept null like any other value
	nullOK, nullOnly := true, false
	for kw, raw := range nested.Entries(doc) {
		at := ptr + "/" + kw
		var err error
		switch kw {
		case "type":
			nullOK, nullOnly, err = applyType(s, raw, at, depth)
		case "properties":
			err = applyProperties(s, raw, at, depth)
		case "items":
			err = applyItems(s, raw, at, depth)
		case "additionalProperties":
			err = applyAdditionalProperties(s, raw, at, depth)
		case "enum":
			if nested.KindOf(raw) != nested.KindSequence {
				return nil, invalid(at, "enum must be an array")
			}
			for _, v := range nested.Elements(raw) {
				s.Enum = append(s.Enum, nested.ToPlain(v))
			}
		case "minimum":
			s.Min, err = number(raw, at)
		case "maximum":
			s.Max, err = number(raw, at)
		case "exclusiveMinimum":
			s.ExclusiveMin, err = boolean(raw, at)
		case "exclusiveMaximum":
			s.ExclusiveMax, err = boolean(raw, at)
		case "divisibleBy":
			s.MultipleOf, err = number(raw, at)
			if err == nil && *s.MultipleOf <= 0 {
				err = invalid(at, "divisibleBy must be greater than zero")
			}
		case "minLength":
			s.MinLength, err = count(raw, at)
		case "maxLength":
			s.MaxLength, err = countPtr(raw, at)
		case "minItems":
			s.MinItems, err = count(raw, at)
		case "maxItems":
			s.MaxItems, err = countPtr(raw, at)
		case "uniqueItems":
			s.UniqueItems, err = boolean(raw, at)
		case "pattern":
			s.Pattern, err = text(raw, at)
			if err == nil {
				if _, rerr := regexp.Compile(s.Pattern); rerr != nil {
					err = common.NewErrInvalidSchema(at+": invalid pattern", rerr)
				}
			}
		case "format":
			// advisory only, kept as an annotation
			var format string
			if format, err = text(raw, at); err == nil {
				annotate(s, formatExtension, format)
			}
		case "title":
			s.Title, err = text(raw, at)
		case "description":
			s.Description, err = text(raw, at)
		case "default":
			s.Default = nested.ToPlain(raw)
		case "extends":
			err = applyExtends(s, raw, at, depth)
		case "disallow":
			not := &openapi3.Schema{}
			var notNull, notNullOnly bool
			if notNull, notNullOnly, err = applyType(not, raw, at, depth); err == nil {
				finish(not, notNull, notNullOnly)
				s.Not = ref(not)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if s.Type.Includes(openapi3.TypeArray) && s.Items == nil {
		s.Items = ref(anyValue())
	}
	finish(s, nullOK, nullOnly)
	return s, nil
}

// finish settles how s treats null. openapi3 accepts null up front when a
// schema is nullable, so Nullable is only set when every other keyword of s
// would accept null as well.
func finish(s *openapi3.Schema, nullOK, nullOnly bool) {
	if nullOnly {
		restrictToNull(s)
	}
	s.Nullable = nullOK && acceptsNull(s)
	if s.Nullable || (len(s.AnyOf) == 0 && len(s.AllOf) == 0) {
		return
	}
	// a null that satisfies anyOf/allOf skips the remaining checks, reject it first
	if s.Not == nil {
		s.Not = ref(nullValue())
	} else if !s.Not.Value.PermitsNull() {
		s.Not = ref(&openapi3.Schema{AnyOf: openapi3.SchemaRefs{s.Not, ref(nullValue())}, Nullable: true})
	}
}

func acceptsNull(s *openapi3.Schema) bool {
	if len(s.Enum) > 0 && !slices.ContainsFunc(s.Enum, isNull) {
		return false
	}
	if s.Not != nil && s.Not.Value.PermitsNull() {
		return false
	}
	for _, r := range s.AllOf {
		if !r.Value.PermitsNull() {
			return false
		}
	}
	if len(s.AnyOf) > 0 {
		return slices.ContainsFunc(s.AnyOf, func(r *openapi3.SchemaRef) bool { return r.Value.PermitsNull() })
	}
	return true
}

func isNull(v any) bool { return v == nil }

// restrictToNull narrows the enum of a "null" typed schema to null.
func restrictToNull(s *openapi3.Schema) {
	if len(s.Enum) == 0 {
		s.Enum = []any{nil}
		return
	}
	if slices.ContainsFunc(s.Enum, isNull) {
		s.Enum = []any{nil}
		return
	}
	// nothing left to accept
	s.AllOf = append(s.AllOf, ref(&openapi3.Schema{Not: ref(anyValue())}))
}

// anyValue accepts everything, null included.
func anyValue() *openapi3.Schema {
	return &openapi3.Schema{Nullable: true}
}

// nullValue accepts null and nothing else.
func nullValue() *openapi3.Schema {
	return &openapi3.Schema{Nullable: true, Enum: []any{nil}}
}

func annotate(s *openapi3.Schema, key string, v any) {
	if s.Extensions == nil {
		s.Extensions = map[string]any{}
	}
	s.Extensions[key] = v
}

// applyType handles both "type" and "disallow": a type name, "any", "null",
// an embedded schema, or a list of those. It reports whether null is one of
// the allowed types and whether it is the only one.
func applyType(s *openapi3.Schema, raw any, ptr string, depth int) (nullOK, nullOnly bool, err error) {
	var entries []any
	switch nested.KindOf(raw) {
	case nested.KindSequence:
		entries = nested.Elements(raw)
		if len(entries) == 0 {
			return false, false, invalid(ptr, "type union must not be empty")
		}
	case nested.KindScalar, nested.KindMapping:
		entries = []any{raw}
	default:
		return false, false, invalid(ptr, "type must be a string, schema or array")
	}

	var (
		names    []string
		embedded []*openapi3.Schema
		null     bool
		anyType  bool
	)
	for i, e := range entries {
		at := fmt.Sprintf("%s/%d", ptr, i)
		if nested.KindOf(e) == nested.KindMapping {
			sub, err := translate(e, at, depth+1)
			if err != nil {
				return false, false, err
			}
			embedded = append(embedded, sub)
			continue
		}
		name, ok := e.(string)
		if !ok {
			return false, false, invalid(at, "type entries must be strings or schemas")
		}
		switch {
		case name == "any":
			anyType = true
		case name == openapi3.TypeNull:
			null = true
		case simpleTypes[name]:
			names = append(names, name)
		default:
			return false, false, invalid(at, "unknown type %q", name)
		}
	}

	switch {
	case anyType:
		return true, false, nil
	case len(embedded) == 0 && len(names) == 0:
		return true, true, nil
	case len(embedded) == 0:
		t := openapi3.Types(names)
		s.Type = &t
		if slices.Contains(names, openapi3.TypeArray) && s.Items == nil {
			s.Items = ref(anyValue())
		}
		return null, false, nil
	}

	alternatives := make(openapi3.SchemaRefs, 0, len(names)+len(embedded)+1)
	for _, name := range names {
		alternatives = append(alternatives, ref(typeOnly(name)))
	}
	if null {
		alternatives = append(alternatives, ref(nullValue()))
	}
	for _, sub := range embedded {
		alternatives = append(alternatives, ref(sub))
	}
	s.AnyOf = alternatives
	return true, false, nil
}

func typeOnly(name string) *openapi3.Schema {
	s := &openapi3.Schema{Type: &openapi3.Types{name}}
	if name == openapi3.TypeArray {
		s.Items = ref(anyValue())
	}
	return s
}

func applyProperties(s *openapi3.Schema, raw any, ptr string, depth int) error {
	if nested.KindOf(raw) != nested.KindMapping {
		return invalid(ptr, "properties must be an object")
	}
	s.Properties = openapi3.Schemas{}
	for name, propDoc := range nested.Entries(raw) {
		at := ptr + "/" + name
		prop, err := translate(propDoc, at, depth+1)
		if err != nil {
			return err
		}
		s.Properties[name] = ref(prop)

		if req, ok := nested.Lookup(propDoc, "required"); ok {
			required, err := boolean(req, at+"/required")
			if err != nil {
				return err
			}
			if required {
				s.Required = append(s.Required, name)
			}
		}
	}
	return nil
}

func applyItems(s *openapi3.Schema, raw any, ptr string, depth int) error {
	switch nested.KindOf(raw) {
	case nested.KindMapping:
		items, err := translate(raw, ptr, depth+1)
		if err != nil {
			return err
		}
		s.Items = ref(items)
	case nested.KindSequence:
		positions := nested.Elements(raw)
		tuple := make([]*openapi3.Schema, 0, len(positions))
		for i, p := range positions {
			sub, err := translate(p, fmt.Sprintf("%s/%d", ptr, i), depth+1)
			if err != nil {
				return err
			}
			if err := usable(sub); err != nil {
				return err
			}
			tuple = append(tuple, sub)
		}
		// openapi3 has no positional items, checkTuples validates them
		annotate(s, tupleExtension, tuple)
		s.Items = ref(anyValue())
	default:
		return invalid(ptr, "items must be a schema or an array of schemas")
	}
	return nil
}

func applyAdditionalProperties(s *openapi3.Schema, raw any, ptr string, depth int) error {
	if allowed, ok := raw.(bool); ok {
		s.AdditionalProperties.Has = &allowed
		return nil
	}
	sub, err := translate(raw, ptr, depth+1)
	if err != nil {
		return err
	}
	s.AdditionalProperties.Schema = ref(sub)
	return nil
}

func applyExtends(s *openapi3.Schema, raw any, ptr string, depth int) error {
	parents := []any{raw}
	if nested.KindOf(raw) == nested.KindSequence {
		parents = nested.Elements(raw)
	}
	for i, p := range parents {
		sub, err := translate(p, fmt.Sprintf("%s/%d", ptr, i), depth+1)
		if err != nil {
			return err
		}
		s.AllOf = append(s.AllOf, ref(sub))
	}
	return nil
}

func number(raw any, ptr string) (*float64, error) {
	f, ok := nested.ToPlain(raw).(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, invalid(ptr, "expected a number")
	}
	return &f, nil
}

func count(raw any, ptr string) (uint64, error) {
	f, ok := nested.ToPlain(raw).(float64)
	if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return 0, invalid(ptr, "expected a non-negative integer")
	}
	return uint64(f), nil
}

func countPtr(raw any, ptr string) (*uint64, error) {
	n, err := count(raw, ptr)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func boolean(raw any, ptr string) (bool, error) {
	b, ok := raw.(bool)
	if !ok {
		return false, invalid(ptr, "expected a boolean")
	}
	return b, nil
}

func text(raw any, ptr string) (string, error) {
	str, ok := raw.(string)
	if !ok {
		return "", invalid(ptr, "expected a string")
	}
	return str, nil
}
