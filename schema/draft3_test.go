package schema

import (
	"testing"

	"github.com/erpc/rpccheck/common"
	"github.com/erpc/rpccheck/nested"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, s string) any {
	t.Helper()
	v, err := nested.DecodeString(s)
	require.NoError(t, err, s)
	return v
}

func TestCompile_Keywords(t *testing.T) {
	cases := []struct {
		name   string
		schema string
		pass   []string
		fail   []string
	}{
		{
			name:   "required property",
			schema: `{"type":"object","properties":{"id":{"type":"integer","required":true}}}`,
			pass:   []string{`{"id":1}`, `{"id":1,"extra":true}`},
			fail:   []string{`{}`, `{"id":1.5}`, `{"id":"1"}`, `[{"id":1}]`},
		},
		{
			name:   "optional property",
			schema: `{"type":"object","properties":{"id":{"type":"integer"}}}`,
			pass:   []string{`{}`, `{"id":2}`},
			fail:   []string{`{"id":"2"}`},
		},
		{
			name:   "explicitly optional property",
			schema: `{"type":"object","properties":{"id":{"type":"integer","required":false}}}`,
			pass:   []string{`{}`},
		},
		{
			name:   "nullable union",
			schema: `{"type":["string","null"]}`,
			pass:   []string{`null`, `"0x1"`},
			fail:   []string{`1`, `{}`},
		},
		{
			name:   "null only",
			schema: `{"type":"null"}`,
			pass:   []string{`null`},
			fail:   []string{`"x"`, `0`},
		},
		{
			name:   "any",
			schema: `{"type":"any"}`,
			pass:   []string{`null`, `1`, `"x"`, `{"a":[1]}`},
		},
		{
			name:   "any with null in union",
			schema: `{"type":["any","null"]}`,
			pass:   []string{`null`, `true`},
		},
		{
			name:   "any inside union",
			schema: `{"type":["string","any"]}`,
			pass:   []string{`1`, `false`},
		},
		{
			name:   "embedded schema in union",
			schema: `{"type":["integer",{"type":"object","properties":{"a":{"type":"string","required":true}}}]}`,
			pass:   []string{`1`, `{"a":"x"}`},
			fail:   []string{`{}`, `"s"`},
		},
		{
			name:   "array without items",
			schema: `{"type":"array"}`,
			pass:   []string{`[1,"a"]`},
			fail:   []string{`{}`},
		},
		{
			name:   "tuple items",
			schema: `{"type":"array","items":[{"type":"string"},{"type":"integer"}]}`,
			pass:   []string{`["a",1]`, `["a"]`, `["a",1,true]`},
			fail:   []string{`[true]`, `[1,"a"]`, `["a","b"]`},
		},
		{
			name:   "tuple items in a property",
			schema: `{"type":"object","properties":{"pair":{"type":"array","items":[{"type":"string"},{"type":"integer"}]}}}`,
			pass:   []string{`{"pair":["a",1]}`, `{}`},
			fail:   []string{`{"pair":[1,"a"]}`},
		},
		{
			name:   "tuple items in array items",
			schema: `{"type":"array","items":{"type":"array","items":[{"type":"integer"},{"type":["string","null"]}]}}`,
			pass:   []string{`[[1,"a"],[2,null]]`},
			fail:   []string{`[[1,"a"],[2,3]]`},
		},
		{
			name:   "array items accept null by default",
			schema: `{"type":"array"}`,
			pass:   []string{`[null]`},
		},
		{
			name:   "nullable items",
			schema: `{"type":"array","items":{"type":["string","null"]}}`,
			pass:   []string{`["a",null]`},
			fail:   []string{`["a",1]`},
		},
		{
			name:   "nullable property",
			schema: `{"type":"object","properties":{"to":{"type":["string","null"],"required":true}}}`,
			pass:   []string{`{"to":null}`, `{"to":"0x1"}`},
			fail:   []string{`{"to":1}`, `{}`},
		},
		{
			name:   "enum listing null",
			schema: `{"properties":{"to":{"enum":[null,"a"]}}}`,
			pass:   []string{`{"to":null}`, `{"to":"a"}`},
			fail:   []string{`{"to":"b"}`},
		},
		{
			name:   "enum without null",
			schema: `{"type":["string","null"],"enum":["a"]}`,
			pass:   []string{`"a"`},
			fail:   []string{`null`, `"b"`},
		},
		{
			name:   "null type narrowed by enum",
			schema: `{"type":"null","enum":["a"]}`,
			fail:   []string{`null`, `"a"`},
		},
		{
			name:   "untyped schema accepts null",
			schema: `{"description":"anything"}`,
			pass:   []string{`null`, `1`, `"x"`, `[null]`},
		},
		{
			name:   "empty schema accepts null",
			schema: `{}`,
			pass:   []string{`null`, `{"a":null}`},
		},
		{
			name:   "embedded schema and null in union",
			schema: `{"type":[{"type":"integer"},"null"]}`,
			pass:   []string{`null`, `1`},
			fail:   []string{`"x"`},
		},
		{
			name:   "extends a nullable schema",
			schema: `{"extends":{"type":["integer","null"]}}`,
			pass:   []string{`null`, `1`},
			fail:   []string{`"x"`},
		},
		{
			name:   "extends a non nullable schema",
			schema: `{"extends":{"type":"integer"}}`,
			pass:   []string{`1`},
			fail:   []string{`null`},
		},
		{
			name:   "disallow null",
			schema: `{"disallow":"null"}`,
			pass:   []string{`1`, `"x"`},
			fail:   []string{`null`},
		},
		{
			name:   "disallow any",
			schema: `{"disallow":"any"}`,
			fail:   []string{`null`, `1`},
		},
		{
			name:   "format is advisory",
			schema: `{"type":"object","properties":{"t":{"type":"string","format":"date-time"},"d":{"format":"date"}}}`,
			pass:   []string{`{"t":"nope","d":"soon"}`},
			fail:   []string{`{"t":1}`},
		},
		{
			name:   "closed object",
			schema: `{"type":"object","properties":{"a":{}},"additionalProperties":false}`,
			pass:   []string{`{"a":1}`},
			fail:   []string{`{"b":1}`},
		},
		{
			name:   "additional properties schema",
			schema: `{"type":"object","additionalProperties":{"type":"string"}}`,
			pass:   []string{`{"x":"y"}`},
			fail:   []string{`{"x":1}`},
		},
		{
			name:   "enum",
			schema: `{"enum":["ok",1]}`,
			pass:   []string{`"ok"`, `1`, `1.0`},
			fail:   []string{`"no"`, `2`},
		},
		{
			name:   "bounds",
			schema: `{"type":"number","minimum":1,"maximum":5,"exclusiveMaximum":true}`,
			pass:   []string{`1`, `4.5`},
			fail:   []string{`0`, `5`},
		},
		{
			name:   "exclusive minimum",
			schema: `{"type":"number","minimum":1,"exclusiveMinimum":true}`,
			pass:   []string{`1.1`},
			fail:   []string{`1`},
		},
		{
			name:   "divisibleBy",
			schema: `{"type":"integer","divisibleBy":3}`,
			pass:   []string{`9`},
			fail:   []string{`10`},
		},
		{
			name:   "string constraints",
			schema: `{"type":"string","minLength":2,"maxLength":4,"pattern":"^0x"}`,
			pass:   []string{`"0x1"`},
			fail:   []string{`"0"`, `"0x1234"`, `"ab"`},
		},
		{
			name:   "array constraints",
			schema: `{"type":"array","minItems":1,"maxItems":2,"uniqueItems":true}`,
			pass:   []string{`[1]`, `[1,2]`},
			fail:   []string{`[1,1]`, `[1,2,3]`},
		},
		{
			name:   "extends",
			schema: `{"extends":{"type":"object","properties":{"a":{"required":true}}},"properties":{"b":{"type":"string"}}}`,
			pass:   []string{`{"a":1,"b":"x"}`},
			fail:   []string{`{"b":"x"}`, `{"a":1,"b":2}`},
		},
		{
			name:   "disallow",
			schema: `{"disallow":["string","null"]}`,
			pass:   []string{`1`, `{}`},
			fail:   []string{`"x"`, `null`},
		},
		{
			name:   "unknown keywords are ignored",
			schema: `{"type":"string","$schema":"http://json-schema.org/draft-03/schema#","dependencies":{"a":"b"},"format":"hex"}`,
			pass:   []string{`"0x0"`},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Compile(mustDecode(t, tc.schema))
			require.NoError(t, err)
			for _, in := range tc.pass {
				assert.NoError(t, VisitJSON(s, nested.ToPlain(mustDecode(t, in))), "expected %s to pass", in)
			}
			for _, in := range tc.fail {
				assert.Error(t, VisitJSON(s, nested.ToPlain(mustDecode(t, in))), "expected %s to fail", in)
			}
		})
	}
}

func TestCompile_FormatIsKeptAsAnnotation(t *testing.T) {
	s, err := Compile(mustDecode(t, `{"type":"string","format":"date-time"}`))
	require.NoError(t, err)
	assert.Empty(t, s.Format)
	assert.Equal(t, "date-time", s.Extensions[formatExtension])
}

func TestCompile_RequiredFollowsPropertyOrder(t *testing.T) {
	s, err := Compile(mustDecode(t, `{"properties":{"z":{"required":true},"a":{"required":true},"m":{}}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, s.Required)
}

func TestCompile_InvalidDocuments(t *testing.T) {
	docs := []string{
		`[]`,
		`"string"`,
		`{"type":"bogus"}`,
		`{"type":[]}`,
		`{"type":1}`,
		`{"pattern":"("}`,
		`{"minLength":-1}`,
		`{"maxItems":1.5}`,
		`{"divisibleBy":0}`,
		`{"properties":{"a":{"required":"yes"}}}`,
		`{"properties":[]}`,
		`{"items":"string"}`,
		`{"enum":"a"}`,
		`{"exclusiveMinimum":"no"}`,
	}
	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			_, err := Compile(mustDecode(t, doc))
			require.Error(t, err)
			assert.True(t, common.HasErrorCode(err, common.ErrCodeInvalidSchema), err.Error())
		})
	}
}

func TestCompile_AcceptsPlainMaps(t *testing.T) {
	s, err := Compile(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"n": map[string]any{"type": "integer", "required": true},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, s.VisitJSON(map[string]any{"n": float64(3)}))
	assert.Error(t, s.VisitJSON(map[string]any{}))
}

func mustString(t *testing.T, v any) string {
	t.Helper()
	out, err := nested.Marshal(v)
	require.NoError(t, err)
	return string(out)
}
