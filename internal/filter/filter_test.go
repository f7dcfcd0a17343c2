package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/conduit-lang/filterkit/internal/filter/naming"
	"github.com/conduit-lang/filterkit/internal/orm/schema"
	"github.com/conduit-lang/filterkit/internal/orm/schema/schematest"
	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

func newBase(t *testing.T, props Properties, logger *zap.Logger) *Base {
	t.Helper()

	registry, serialization := schematest.Load()
	b, err := NewBase(Config{
		Metadata:      registry,
		Serialization: serialization,
		Properties:    props,
		Logger:        logger,
	})
	require.NoError(t, err)
	return b
}

func TestNewBase(t *testing.T) {
	_, err := NewBase(Config{})
	assert.Error(t, err, "metadata factory is required")

	_, err = NewBase(Config{
		Metadata:   schematest.Registry(),
		Properties: Properties{"price": {NullsComparison: "nulls_sideways"}},
	})
	assert.Error(t, err)

	b, err := NewBase(Config{Metadata: schematest.Registry()})
	require.NoError(t, err)
	assert.NotNil(t, b.Logger)
}

func TestIsPropertyEnabled(t *testing.T) {
	t.Run("no allow-list", func(t *testing.T) {
		b := newBase(t, nil, nil)

		assert.True(t, b.IsPropertyEnabled("price", "Dummy"))
		assert.True(t, b.IsPropertyEnabled("dimensions.width", "Dummy"))
		assert.False(t, b.IsPropertyEnabled("relatedDummy.name", "Dummy"))
	})

	t.Run("allow-list", func(t *testing.T) {
		b := newBase(t, Properties{"relatedDummy.name": nil, "name": nil}, nil)

		assert.True(t, b.IsPropertyEnabled("relatedDummy.name", "Dummy"))
		assert.True(t, b.IsPropertyEnabled("name", "Dummy"))
		assert.False(t, b.IsPropertyEnabled("price", "Dummy"))
	})

	t.Run("empty allow-list", func(t *testing.T) {
		b := newBase(t, Properties{}, nil)
		assert.False(t, b.IsPropertyEnabled("price", "Dummy"))
	})
}

func TestCheckProperty(t *testing.T) {
	b := newBase(t, nil, nil)

	assert.NoError(t, b.CheckProperty("price", "Dummy", false))
	assert.ErrorIs(t, b.CheckProperty("relatedDummy.name", "Dummy", false), ErrPropertyNotEnabled)
	assert.ErrorIs(t, b.CheckProperty("nope", "Dummy", false), ErrPropertyNotMapped)
	assert.ErrorIs(t, b.CheckProperty("relatedDummy", "Dummy", false), ErrPropertyNotMapped)
	assert.NoError(t, b.CheckProperty("relatedDummy", "Dummy", true))
}

func TestEach(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	registry, serialization := schematest.Load()
	b, err := NewBase(Config{
		Metadata:      registry,
		Serialization: serialization,
		NameConverter: naming.CamelCaseToSnakeCase{},
		Logger:        zap.New(core),
	})
	require.NoError(t, err)

	filters := webquery.NewValues().
		Set("dummy_price", "1").
		Set("nope", "2").
		Set("price", "x")

	var seen []string
	b.Each(filters, "Dummy", func(property string, value interface{}) error {
		seen = append(seen, property)
		switch property {
		case "nope":
			return ErrPropertyNotMapped
		case "price":
			return errors.New("bad value")
		}
		return nil
	})

	assert.Equal(t, []string{"dummyPrice", "nope", "price"}, seen)

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "filter parameter skipped", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "invalid filter ignored", entries[1].Message)
	assert.Equal(t, "price", entries[1].ContextMap()["parameter"])
}

func TestDescribedProperties(t *testing.T) {
	b := newBase(t, nil, nil)
	assert.Equal(t,
		[]string{"createdAt", "description", "dummyPrice", "id", "name", "price", "quantity", "views"},
		b.DescribedProperties("Dummy"))
	assert.Empty(t, b.DescribedProperties("Unknown"))

	b = newBase(t, Properties{"price": nil, "name": nil}, nil)
	assert.Equal(t, []string{"name", "price"}, b.DescribedProperties("Dummy"))
}

func TestNullsDirection(t *testing.T) {
	tests := []struct {
		policy string
		asc    string
		desc   string
	}{
		{NullsSmallest, "ASC", "DESC"},
		{NullsLargest, "DESC", "ASC"},
		{NullsAlwaysFirst, "ASC", "ASC"},
		{NullsAlwaysLast, "DESC", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			d, err := NullsDirection(tt.policy, "ASC")
			require.NoError(t, err)
			assert.Equal(t, tt.asc, d)

			d, err = NullsDirection(tt.policy, "DESC")
			require.NoError(t, err)
			assert.Equal(t, tt.desc, d)
		})
	}

	_, err := NullsDirection("nulls_sideways", "ASC")
	assert.Error(t, err)
}

func TestParseProperties(t *testing.T) {
	props, err := ParseProperties(map[string]interface{}{
		"id":    nil,
		"name":  "desc",
		"price": map[string]interface{}{"default_direction": "asc", "nulls_comparison": NullsLargest},
	})
	require.NoError(t, err)

	assert.Nil(t, props["id"])
	assert.Equal(t, &PropertyOptions{DefaultDirection: "desc"}, props["name"])
	assert.Equal(t, &PropertyOptions{DefaultDirection: "asc", NullsComparison: NullsLargest}, props.Options("price"))
	assert.Nil(t, props.Options("missing"))

	props, err = ParseProperties(nil)
	require.NoError(t, err)
	assert.Nil(t, props)

	_, err = ParseProperties(map[string]interface{}{"price": 3})
	assert.Error(t, err)
}

func TestNewContext(t *testing.T) {
	filters := webquery.NewValues().Set("price", "1")
	ctx := NewContext(filters, "get_collection")

	filters.Set("price", "2")
	v, _ := ctx.Filters.String("price")
	assert.Equal(t, "1", v)

	assert.Equal(t, 0, NewContext(nil, "").Filters.Len())
}

func TestBuiltinType(t *testing.T) {
	assert.Equal(t, "int", BuiltinType(&schema.TypeSpec{BaseType: schema.TypeBigInt}))
	assert.Equal(t, "float", BuiltinType(&schema.TypeSpec{BaseType: schema.TypeFloat}))
	assert.Equal(t, "string", BuiltinType(&schema.TypeSpec{BaseType: schema.TypeDecimal}))
	assert.Equal(t, "bool", BuiltinType(&schema.TypeSpec{BaseType: schema.TypeBool}))
	assert.Equal(t, "string", BuiltinType(nil))
}
