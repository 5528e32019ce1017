// Package nested models JSON-shaped data (mappings, sequences, scalars, null)
// and provides an order-aware recursive key finder over it.
package nested

import (
	"encoding/json"
	"iter"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/erpc/rpccheck/common"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	return []string{"null", "scalar", "mapping", "sequence"}[k]
}

// Mapping is a string-keyed mapping that remembers insertion order.
type Mapping = orderedmap.OrderedMap[string, any]

func NewMapping() *Mapping {
	return orderedmap.New[string, any]()
}

// KindOf classifies v. Plain Go maps with string keys count as mappings and
// slices (other than []byte) count as sequences.
func KindOf(v any) Kind {
	switch t := v.(type) {
	case nil:
		return KindNull
	case *Mapping:
		if t == nil {
			return KindNull
		}
		return KindMapping
	case map[string]any:
		if t == nil {
			return KindNull
		}
		return KindMapping
	case []any:
		if t == nil {
			return KindNull
		}
		return KindSequence
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return KindScalar
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return KindNull
		}
		if rv.Type().Key().Kind() == reflect.String {
			return KindMapping
		}
	case reflect.Slice:
		if rv.IsNil() {
			return KindNull
		}
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return KindSequence
		}
	case reflect.Array:
		return KindSequence
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return KindNull
		}
	}
	return KindScalar
}

// eachEntry calls fn for every entry of a mapping until fn returns false.
// Ordered mappings are visited in insertion order, plain maps in key order.
func eachEntry(v any, fn func(key string, value any) bool) bool {
	switch t := v.(type) {
	case *Mapping:
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			if !fn(pair.Key, pair.Value) {
				return false
			}
		}
		return true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !fn(k, t[k]) {
				return false
			}
		}
		return true
	}

	rv := reflect.ValueOf(v)
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, k := range keys {
		if !fn(k.String(), rv.MapIndex(k).Interface()) {
			return false
		}
	}
	return true
}

// Entries iterates over the entries of a mapping value in the same order the
// key finder uses. Non-mapping values yield nothing.
func Entries(v any) iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if KindOf(v) != KindMapping {
			return
		}
		eachEntry(v, yield)
	}
}

// Elements returns the items of a sequence value, or nil for anything else.
func Elements(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	if KindOf(v) != KindSequence {
		return nil
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// Lookup returns the direct child of a mapping under key.
func Lookup(v any, key string) (any, bool) {
	switch t := v.(type) {
	case *Mapping:
		if t == nil {
			return nil, false
		}
		return t.Get(key)
	case map[string]any:
		val, ok := t[key]
		return val, ok
	}
	if KindOf(v) != KindMapping {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	val := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !val.IsValid() {
		return nil, false
	}
	return val.Interface(), true
}

// Len returns the number of entries of a mapping or items of a sequence.
func Len(v any) int {
	switch KindOf(v) {
	case KindMapping:
		if m, ok := v.(*Mapping); ok {
			return m.Len()
		}
		return reflect.ValueOf(v).Len()
	case KindSequence:
		return len(Elements(v))
	}
	return 0
}

// ToPlain converts v to the shapes produced by encoding/json: map[string]any,
// []any and float64 numbers.
func ToPlain(v any) any {
	switch KindOf(v) {
	case KindNull:
		return nil
	case KindMapping:
		out := make(map[string]any, Len(v))
		eachEntry(v, func(k string, val any) bool {
			out[k] = ToPlain(val)
			return true
		})
		return out
	case KindSequence:
		items := Elements(v)
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = ToPlain(item)
		}
		return out
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toInteger splits an integral value into sign and magnitude.
func toInteger(v any) (neg bool, mag uint64, ok bool) {
	signed := func(n int64) (bool, uint64, bool) {
		if n < 0 {
			return true, uint64(-(n + 1)) + 1, true
		}
		return false, uint64(n), true
	}
	switch n := v.(type) {
	case int:
		return signed(int64(n))
	case int8:
		return signed(int64(n))
	case int16:
		return signed(int64(n))
	case int32:
		return signed(int64(n))
	case int64:
		return signed(n)
	case uint:
		return false, uint64(n), true
	case uint8:
		return false, uint64(n), true
	case uint16:
		return false, uint64(n), true
	case uint32:
		return false, uint64(n), true
	case uint64:
		return false, n, true
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return signed(i)
		}
		if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
			return false, u, true
		}
	}
	return false, 0, false
}

// Equal compares two values structurally. Numbers compare by value whatever
// their Go type and mapping comparison ignores key order.
func Equal(a, b any) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindNull:
		return true
	case KindMapping:
		if Len(a) != Len(b) {
			return false
		}
		return eachEntry(a, func(k string, va any) bool {
			vb, ok := Lookup(b, k)
			return ok && Equal(va, vb)
		})
	case KindSequence:
		ea, eb := Elements(a), Elements(b)
		if len(ea) != len(eb) {
			return false
		}
		for i := range ea {
			if !Equal(ea[i], eb[i]) {
				return false
			}
		}
		return true
	}
	// integers beyond 2^53 collapse as float64
	if na, ma, ok := toInteger(a); ok {
		if nb, mb, ok := toInteger(b); ok {
			return na == nb && ma == mb
		}
	}
	fa, oka := toFloat(a)
	fb, okb := toFloat(b)
	if oka || okb {
		return oka && okb && (fa == fb || (math.IsNaN(fa) && math.IsNaN(fb)))
	}
	return reflect.DeepEqual(a, b)
}

// Marshal renders v as compact JSON, keeping mapping keys in insertion order.
func Marshal(v any) ([]byte, error) {
	return common.SonicCfg.Marshal(v)
}

// MustString renders v for human-readable reports; it never fails.
func MustString(v any) string {
	b, err := Marshal(v)
	if err != nil {
		return "<unprintable: " + err.Error() + ">"
	}
	return string(b)
}
