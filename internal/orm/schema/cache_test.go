package schema_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/filterkit/internal/orm/schema"
	"github.com/conduit-lang/filterkit/internal/orm/schema/schematest"
)

func TestCachedFactory(t *testing.T) {
	t.Run("loads once", func(t *testing.T) {
		var calls int32
		loader := schema.DefinitionLoader(schematest.Definitions())
		counting := func(resource string) (*schema.ResourceSchema, error) {
			atomic.AddInt32(&calls, 1)
			return loader(resource)
		}

		factory, err := schema.NewCachedFactory(counting, 0)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				meta, err := factory.Metadata("Dummy")
				assert.NoError(t, err)
				assert.Equal(t, "dummies", meta.TableName)
			}()
		}
		wg.Wait()

		first, _ := factory.Metadata("Dummy")
		second, _ := factory.Metadata("Dummy")
		assert.Same(t, first, second)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		assert.Equal(t, 1, factory.Len())
	})

	t.Run("failures are not cached", func(t *testing.T) {
		factory, err := schema.NewCachedFactory(schema.DefinitionLoader(schematest.Definitions()), 4)
		require.NoError(t, err)

		_, err = factory.Metadata("Unknown")
		assert.True(t, errors.Is(err, schema.ErrResourceNotFound))
		assert.Equal(t, 0, factory.Len())
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		factory, err := schema.NewCachedFactory(schema.DefinitionLoader(schematest.Definitions()), 2)
		require.NoError(t, err)

		for _, name := range []string{"Dummy", "RelatedDummy", "ThirdLevel"} {
			_, err := factory.Metadata(name)
			require.NoError(t, err)
		}
		assert.Equal(t, 2, factory.Len())

		factory.Purge()
		assert.Equal(t, 0, factory.Len())
	})

	t.Run("loader required", func(t *testing.T) {
		_, err := schema.NewCachedFactory(nil, 1)
		assert.Error(t, err)
	})
}

func TestLoadDefinitions(t *testing.T) {
	registry, serialization := schematest.Load()

	assert.Equal(t, []string{"Dimensions", "Dummy", "FourthLevel", "RelatedDummy", "ThirdLevel"}, registry.List())
	assert.True(t, serialization.HasMetadataFor("Dummy"))

	defs := schematest.Definitions()
	defs[0].Relationships = append(defs[0].Relationships, schema.RelationshipDefinition{
		Name: "owner", Kind: "belongs_to", Resource: "Owner",
	})
	_, _, err := schema.LoadDefinitions(defs)
	assert.Error(t, err)
}
