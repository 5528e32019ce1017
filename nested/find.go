package nested

import (
	"iter"

	"github.com/erpc/rpccheck/common"
)

// Values returns every value stored under key anywhere inside data.
//
// Mapping entries are checked in order; a matching entry's value is yielded and
// not searched further. Other mapping and sequence values are descended into.
// Scalars inside sequences are skipped. A top-level string equal to key is
// yielded once. The returned sequence can be ranged over more than once.
func Values(key string, data any) (iter.Seq[any], error) {
	if KindOf(data) == KindNull {
		return nil, common.NewErrInvalidInputKind(key)
	}
	return func(yield func(any) bool) {
		if s, ok := data.(string); ok {
			if s == key {
				yield(s)
			}
			return
		}
		walk(key, data, yield)
	}, nil
}

func walk(key string, data any, yield func(any) bool) bool {
	switch KindOf(data) {
	case KindMapping:
		return eachEntry(data, func(k string, v any) bool {
			if k == key {
				return yield(v)
			}
			return walk(key, v, yield)
		})
	case KindSequence:
		for _, item := range Elements(data) {
			if !walk(key, item, yield) {
				return false
			}
		}
	}
	return true
}

// First returns the first value Values would produce for key.
func First(key string, data any) (any, error) {
	seq, err := Values(key, data)
	if err != nil {
		return nil, err
	}
	for v := range seq {
		return v, nil
	}
	return nil, common.NewErrKeyNotFound(key)
}

// FirstOr is like First but returns def when nothing matches.
func FirstOr(key string, data, def any) (any, error) {
	v, err := First(key, data)
	if err != nil {
		if common.HasErrorCode(err, common.ErrCodeKeyNotFound) {
			return def, nil
		}
		return nil, err
	}
	return v, nil
}
