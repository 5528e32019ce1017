package nested

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
	"github.com/erpc/rpccheck/common"
	"gopkg.in/yaml.v3"
)

// Decode parses JSON into NestedData. Objects become *Mapping with keys in
// document order, integers become int64 and other numbers float64.
func Decode(data []byte) (any, error) {
	return DecodeString(string(data))
}

func DecodeString(data string) (any, error) {
	if !sonic.ValidString(data) {
		return nil, common.NewErrInvalidDocument("json", fmt.Errorf("malformed json input (%d bytes)", len(data)))
	}
	b := &builder{}
	if err := ast.Preorder(data, b, nil); err != nil {
		return nil, common.NewErrInvalidDocument("json", err)
	}
	return b.root, nil
}

type frame struct {
	mapping *Mapping
	seq     []any
	key     string
}

// builder assembles values from the sonic preorder traversal.
type builder struct {
	stack []*frame
	root  any
}

func (b *builder) add(v any) error {
	if len(b.stack) == 0 {
		b.root = v
		return nil
	}
	top := b.stack[len(b.stack)-1]
	if top.mapping != nil {
		top.mapping.Set(top.key, v)
	} else {
		top.seq = append(top.seq, v)
	}
	return nil
}

func (b *builder) pop() any {
	top := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	if top.mapping != nil {
		return top.mapping
	}
	return top.seq
}

func (b *builder) OnNull() error                            { return b.add(nil) }
func (b *builder) OnBool(v bool) error                      { return b.add(v) }
func (b *builder) OnString(v string) error                  { return b.add(v) }
func (b *builder) OnInt64(v int64, _ json.Number) error     { return b.add(v) }
func (b *builder) OnFloat64(v float64, _ json.Number) error { return b.add(v) }

func (b *builder) OnObjectBegin(capacity int) error {
	b.stack = append(b.stack, &frame{mapping: NewMapping()})
	return nil
}

func (b *builder) OnObjectKey(key string) error {
	b.stack[len(b.stack)-1].key = key
	return nil
}

func (b *builder) OnObjectEnd() error {
	return b.add(b.pop())
}

func (b *builder) OnArrayBegin(capacity int) error {
	b.stack = append(b.stack, &frame{seq: make([]any, 0, capacity)})
	return nil
}

func (b *builder) OnArrayEnd() error {
	return b.add(b.pop())
}

// DecodeYAML parses a single YAML document into NestedData, keeping mapping
// key order. Aliases are resolved; non-string keys are rendered as strings.
func DecodeYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, common.NewErrInvalidDocument("yaml", err)
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	return fromYAML(&doc, 0)
}

const maxYAMLDepth = 512

func fromYAML(n *yaml.Node, depth int) (any, error) {
	if depth > maxYAMLDepth {
		return nil, common.NewErrInvalidDocument("yaml", fmt.Errorf("nesting deeper than %d levels at line %d", maxYAMLDepth, n.Line))
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAML(n.Content[0], depth+1)
	case yaml.AliasNode:
		return fromYAML(n.Alias, depth+1)
	case yaml.MappingNode:
		m := NewMapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Tag == "!!merge" {
				if err := mergeYAML(m, v, depth); err != nil {
					return nil, err
				}
				continue
			}
			val, err := fromYAML(v, depth+1)
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, val)
		}
		return m, nil
	case yaml.SequenceNode:
		seq := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := fromYAML(c, depth+1)
			if err != nil {
				return nil, err
			}
			seq = append(seq, val)
		}
		return seq, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return nil, common.NewErrInvalidDocument("yaml", fmt.Errorf("unsupported node kind %d at line %d", n.Kind, n.Line))
}

func mergeYAML(into *Mapping, n *yaml.Node, depth int) error {
	src, err := fromYAML(n, depth+1)
	if err != nil {
		return err
	}
	var sources []any
	if KindOf(src) == KindSequence {
		sources = Elements(src)
	} else {
		sources = []any{src}
	}
	for _, s := range sources {
		m, ok := s.(*Mapping)
		if !ok {
			return common.NewErrInvalidDocument("yaml", fmt.Errorf("merge key expects a mapping at line %d", n.Line))
		}
		for pair := m.Oldest(); pair != nil; pair = pair.Next() {
			if _, exists := into.Get(pair.Key); !exists {
				into.Set(pair.Key, pair.Value)
			}
		}
	}
	return nil
}

func yamlScalar(n *yaml.Node) (any, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, common.NewErrInvalidDocument("yaml", err)
	}
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case uint64:
		if t <= math.MaxInt64 {
			return int64(t), nil
		}
		return float64(t), nil
	}
	return v, nil
}
