// Package schema validates decoded RPC responses against per-method draft-3
// JSON schemas and narrows failing data down to the offending entry.
package schema

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/erpc/rpccheck/common"
	"github.com/erpc/rpccheck/nested"
	"github.com/erpc/rpccheck/softassert"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog/log"
)

// Outcome is the result of validating one dataset.
type Outcome struct {
	Passed bool
	// Narrowed is the smallest part of the input that explains the failure: a
	// one-element sequence, a single-entry mapping, or the input itself when
	// nothing narrower could be located. It is the input itself on success.
	Narrowed any
	Err      error
}

// Validate checks data against a draft-3 schema document. data is never
// modified. An empty sequence always fails.
func Validate(data, doc any) Outcome {
	if nested.KindOf(data) == nested.KindSequence && nested.Len(data) == 0 {
		return Outcome{Narrowed: data, Err: common.NewErrEmptyDataset()}
	}
	s, err := Compile(doc)
	if err != nil {
		return Outcome{Narrowed: data, Err: err}
	}
	return validateCompiled(s, data)
}

func validateCompiled(s *openapi3.Schema, data any) Outcome {
	verr := VisitJSON(s, nested.ToPlain(data))
	if verr == nil {
		return Outcome{Passed: true, Narrowed: data}
	}

	var (
		path  []string
		value any
		pe    *positionError
		se    *openapi3.SchemaError
	)
	switch {
	case errors.As(verr, &pe):
		path, value = pe.path, pe.value
	case errors.As(verr, &se):
		path, value = se.JSONPointer(), se.Value
	}
	return Outcome{
		Narrowed: narrow(data, path, value),
		Err:      common.NewErrValidationMismatch(path, value, verr),
	}
}

// VisitJSON validates a plain value (see nested.ToPlain) against a compiled
// schema, positional items included.
func VisitJSON(s *openapi3.Schema, value any) error {
	if err := s.VisitJSON(value); err != nil {
		return err
	}
	return checkTuples(s, value, nil)
}

// positionError reports an array element that does not match the schema of
// its position.
type positionError struct {
	path  []string
	value any
	cause error
}

func (e *positionError) Error() string {
	return fmt.Sprintf("Error at %q: item does not match the schema of its position: %v", "/"+strings.Join(e.path, "/"), e.cause)
}

func (e *positionError) Unwrap() error {
	return e.cause
}

func checkTuples(s *openapi3.Schema, value any, path []string) error {
	if s == nil {
		return nil
	}
	for _, r := range s.AllOf {
		if err := checkTuples(r.Value, value, path); err != nil {
			return err
		}
	}

	switch v := value.(type) {
	case []any:
		tuple, _ := s.Extensions[tupleExtension].([]*openapi3.Schema)
		for i, item := range v {
			at := append(slices.Clone(path), strconv.Itoa(i))
			var sub *openapi3.Schema
			switch {
			case tuple != nil && i < len(tuple):
				sub = tuple[i]
				if err := sub.VisitJSON(item); err != nil {
					pe := &positionError{path: at, value: item, cause: err}
					var se *openapi3.SchemaError
					if errors.As(err, &se) {
						pe.path = append(at, se.JSONPointer()...)
						pe.value = se.Value
					}
					return pe
				}
			case tuple == nil && s.Items != nil:
				sub = s.Items.Value
			}
			if err := checkTuples(sub, item, at); err != nil {
				return err
			}
		}
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(v)) {
			var sub *openapi3.Schema
			if p, ok := s.Properties[k]; ok {
				sub = p.Value
			} else if ap := s.AdditionalProperties.Schema; ap != nil {
				sub = ap.Value
			}
			if err := checkTuples(sub, v[k], append(slices.Clone(path), k)); err != nil {
				return err
			}
		}
	}
	return nil
}

// narrow picks the culprit out of data given the failing path and value.
func narrow(data any, path []string, value any) any {
	if len(path) == 0 {
		return data
	}
	field := path[len(path)-1]

	switch nested.KindOf(data) {
	case nested.KindSequence:
		items := nested.Elements(data)
		for _, item := range items {
			if v, ok := nested.Lookup(item, field); ok && nested.Equal(v, value) {
				return []any{item}
			}
		}
		if idx, err := strconv.Atoi(path[0]); err == nil && idx >= 0 && idx < len(items) {
			return []any{items[idx]}
		}
	case nested.KindMapping:
		v, err := nested.First(field, data)
		if err != nil {
			return data
		}
		m := nested.NewMapping()
		m.Set(field, v)
		return m
	}
	return data
}

// SoftAssertType validates data and records a failure, with the narrowed
// dataset attached, into l. l may be nil, in which case the error is only
// printed. It returns whether validation passed.
func SoftAssertType(l *softassert.Ledger, data, doc any) bool {
	out := Validate(data, doc)
	if out.Passed {
		return true
	}
	if l != nil {
		l.ExpectAt(softassert.Caller(1), softassert.That(false), out.Err.Error(), out.Narrowed)
	} else {
		fmt.Fprintln(os.Stdout, out.Err)
	}
	log.Debug().Err(out.Err).Str("narrowed", nested.MustString(out.Narrowed)).Msg("schema validation failed")
	return false
}
