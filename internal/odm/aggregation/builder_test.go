package aggregation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/conduit-lang/filterkit/internal/orm/schema/schematest"
)

func newDummyBuilder(t *testing.T, coll *mongo.Collection) *Builder {
	t.Helper()

	registry := schematest.Registry()
	dummy, err := registry.Metadata("Dummy")
	require.NoError(t, err)

	return NewBuilder(dummy, registry, coll)
}

func TestPipeline(t *testing.T) {
	b := newDummyBuilder(t, nil)

	cs := b.Changeset()
	cs.Lookup("related_dummies", "relatedDummy", "_id", "relatedDummy_lkup")
	cs.Lookup("related_dummies", "relatedDummy", "_id", "relatedDummy_lkup")
	cs.Match("relatedDummy_lkup.age", bson.M{"$gte": int64(18)})
	cs.Sort("price", "DESC")
	require.NoError(t, b.Apply(cs))

	cs = b.Changeset()
	assert.Equal(t, "relatedDummy_lkup", cs.Lookup("related_dummies", "relatedDummy", "_id", "relatedDummy_lkup"))
	assert.Empty(t, cs.Lookups(), "applied lookup is reused")
	cs.Sort("name", "asc")
	require.NoError(t, b.Apply(cs))

	b.Limit(10)

	expected := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "related_dummies"},
			{Key: "localField", Value: "relatedDummy"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "relatedDummy_lkup"},
		}}},
		{{Key: "$unwind", Value: "$relatedDummy_lkup"}},
		{{Key: "$match", Value: bson.D{{Key: "relatedDummy_lkup.age", Value: bson.M{"$gte": int64(18)}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "price", Value: -1}, {Key: "name", Value: 1}}}},
		{{Key: "$limit", Value: int64(10)}},
	}
	assert.Equal(t, expected, b.Pipeline())
	assert.Len(t, b.Lookups(), 1)
	assert.Len(t, b.Matches(), 1)
	assert.Equal(t, "DESC", b.Sort()[0].Direction())
}

func TestApplyValidation(t *testing.T) {
	b := newDummyBuilder(t, nil)

	cs := b.Changeset()
	cs.Match("", 1)
	assert.Error(t, b.Apply(cs))
	assert.Empty(t, b.Pipeline())

	other := newDummyBuilder(t, nil)
	assert.Error(t, b.Apply(other.Changeset()))

	assert.True(t, b.Changeset().IsEmpty())
}

func TestExecuteWithoutCollection(t *testing.T) {
	_, err := newDummyBuilder(t, nil).Execute(context.Background())
	assert.Error(t, err)
}

func TestExecute(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes documents", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "filterkit.dummies", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: 1}, {Key: "name", Value: "foo"}},
			bson.D{{Key: "_id", Value: 2}, {Key: "name", Value: "bar"}},
		))

		b := newDummyBuilder(mt.T, mt.Coll)
		cs := b.Changeset()
		cs.Match("price", 10.0)
		require.NoError(mt, b.Apply(cs))

		docs, err := b.Execute(context.Background())
		require.NoError(mt, err)
		require.Len(mt, docs, 2)
		assert.Equal(mt, "bar", docs[1]["name"])
	})

	mt.Run("surfaces command errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad pipeline",
			Name:    "BadValue",
		}))

		_, err := newDummyBuilder(mt.T, mt.Coll).Execute(context.Background())
		assert.Error(mt, err)
	})
}
