package query

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery_PlainKeys(t *testing.T) {
	values, err := ParseQuery("price=10&name=foo+bar&price=20")
	require.NoError(t, err)

	assert.Equal(t, []string{"price", "name"}, values.Keys())

	price, ok := values.String("price")
	require.True(t, ok)
	assert.Equal(t, "20", price, "last plain key wins")

	name, _ := values.String("name")
	assert.Equal(t, "foo bar", name)
}

func TestParseQuery_Lists(t *testing.T) {
	values, err := ParseQuery("price[]=10&price[]=20&price%5B%5D=30")
	require.NoError(t, err)

	v, ok := values.Get("price")
	require.True(t, ok)
	assert.Equal(t, []string{"10", "20", "30"}, v)
}

func TestParseQuery_NestedKeepsOrder(t *testing.T) {
	values, err := ParseQuery("order[name]=asc&order[price]=desc&order[relatedDummy.name]=asc")
	require.NoError(t, err)

	v, ok := values.Get("order")
	require.True(t, ok)
	order, ok := v.(*Values)
	require.True(t, ok)

	assert.Equal(t, []string{"name", "price", "relatedDummy.name"}, order.Keys())
	dir, _ := order.String("price")
	assert.Equal(t, "desc", dir)
}

func TestParseQuery_RangeOperators(t *testing.T) {
	values, err := ParseQuery("price[between]=10..20&price[gte]=5")
	require.NoError(t, err)

	v, _ := values.Get("price")
	ops := v.(*Values)
	assert.Equal(t, []string{"between", "gte"}, ops.Keys())

	between, _ := ops.String("between")
	assert.Equal(t, "10..20", between)
}

func TestParseQuery_DeepNesting(t *testing.T) {
	values, err := ParseQuery("a[b][c]=1&a[b][]=2&a[][x]=3")
	require.NoError(t, err)

	a := values.m["a"].(*Values)
	b := a.m["b"].(*Values)
	c, _ := b.String("c")
	assert.Equal(t, "1", c)
	appended, _ := b.String("1")
	assert.Equal(t, "2", appended, "empty bracket on nested values appends an index")

	indexed := a.m["1"].(*Values)
	x, _ := indexed.String("x")
	assert.Equal(t, "3", x)
}

func TestParseQuery_EdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		keys  []string
		check func(t *testing.T, v *Values)
	}{
		{
			name: "empty",
			raw:  "",
			keys: []string{},
		},
		{
			name: "stray separators",
			raw:  "&&price=1&",
			keys: []string{"price"},
		},
		{
			name: "key without value",
			raw:  "exists",
			keys: []string{"exists"},
			check: func(t *testing.T, v *Values) {
				s, ok := v.String("exists")
				assert.True(t, ok)
				assert.Empty(t, s)
			},
		},
		{
			name: "unbalanced bracket kept whole",
			raw:  "order[name=asc",
			keys: []string{"order[name"},
		},
		{
			name: "leading bracket kept whole",
			raw:  "[name]=asc",
			keys: []string{"[name]"},
		},
		{
			name: "bracket value replaces scalar",
			raw:  "order=name&order[name]=asc",
			keys: []string{"order"},
			check: func(t *testing.T, v *Values) {
				_, ok := v.m["order"].(*Values)
				assert.True(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := ParseQuery(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.keys, values.Keys())
			if tt.check != nil {
				tt.check(t, values)
			}
		})
	}
}

func TestParseQuery_InvalidEscape(t *testing.T) {
	_, err := ParseQuery("price=%zz")
	assert.Error(t, err)

	_, err = ParseQuery("%zz=1")
	assert.Error(t, err)
}

func TestParseRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/dummies?order[name]=desc&price=3", nil)

	values, err := ParseRequest(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"order", "price"}, values.Keys())

	empty, err := ParseRequest(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestValues(t *testing.T) {
	v := NewValues().
		Set("b", "1").
		Set("a", []string{"x", "y"}).
		Set("order", NewValues().Set("name", "asc"))

	v.Set("b", "2")
	assert.Equal(t, []string{"b", "a", "order"}, v.Keys(), "overwrite keeps position")
	assert.True(t, v.Has("order"))

	clone := v.Clone()
	v.Delete("a")
	assert.Equal(t, []string{"b", "order"}, v.Keys())
	assert.Equal(t, 3, clone.Len())

	encoded, err := json.Marshal(clone)
	require.NoError(t, err)
	assert.Equal(t, `{"b":"2","a":["x","y"],"order":{"name":"asc"}}`, string(encoded))

	assert.Equal(t, "b=2&a[]=x&a[]=y&order[name]=asc", clone.Encode())
	assert.Equal(t, map[string]interface{}{
		"b":     "2",
		"a":     []string{"x", "y"},
		"order": map[string]interface{}{"name": "asc"},
	}, clone.Map())

	var visited []string
	clone.Range(func(key string, _ interface{}) bool {
		visited = append(visited, key)
		return key != "a"
	})
	assert.Equal(t, []string{"b", "a"}, visited)
}

func TestEncodeRoundTrip(t *testing.T) {
	raw := "order[name]=asc&order[price]=desc&price[]=1&price[]=2&q=a+b"

	values, err := ParseQuery(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, values.Encode())
}
