package router

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/conduit-lang/filterkit/internal/cli/config"
	"github.com/conduit-lang/filterkit/internal/engine"
	"github.com/conduit-lang/filterkit/internal/orm/schema/schematest"
	"github.com/conduit-lang/filterkit/internal/web/cache"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()

	e, err := engine.New(&config.Config{
		Resources: schematest.Definitions(),
		Filters: []config.FilterConfig{
			{Name: "numeric", Kind: config.KindNumeric, Resource: "Dummy"},
			{Name: "order", Kind: config.KindOrder, Resource: "Dummy", Properties: []interface{}{"name", "price"}},
			{Name: "range", Kind: config.KindRange, Resource: "Dummy"},
		},
	}, nil)
	require.NoError(t, err)
	return e
}

func newRouter(t *testing.T, db *sql.DB, mongoDB *mongo.Database) *Router {
	t.Helper()

	rt, err := NewRouter(Options{
		Engine:       newEngine(t),
		DB:           db,
		Mongo:        mongoDB,
		DefaultLimit: 10,
		MaxLimit:     50,
	})
	require.NoError(t, err)
	return rt
}

func get(t *testing.T, rt *Router, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewRouterRequiresEngine(t *testing.T) {
	_, err := NewRouter(Options{})
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	rt := newRouter(t, nil, nil)

	routes := rt.Routes()
	assert.Contains(t, routes, RouteInfo{Method: http.MethodGet, Pattern: "/health"})
	assert.Contains(t, routes, RouteInfo{Method: http.MethodGet, Pattern: "/resources/"})
	assert.Contains(t, routes, RouteInfo{Method: http.MethodGet, Pattern: "/resources/{resource}/explain"})
	assert.Contains(t, routes, RouteInfo{Method: http.MethodGet, Pattern: "/resources/{resource}/documents"})
}

func TestListResources(t *testing.T) {
	rec := get(t, newRouter(t, nil, nil), "/resources/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"resources":["Dummy","FourthLevel","RelatedDummy","ThirdLevel"]}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := get(t, newRouter(t, nil, nil), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sql":false,"mongo":false}`, rec.Body.String())
}

func TestDescribe(t *testing.T) {
	rt := newRouter(t, nil, nil)

	rec := get(t, rt, "/resources/Dummy/filters")
	require.Equal(t, http.StatusOK, rec.Code)

	var description map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &description))
	assert.Contains(t, description, "order[price]")
	assert.Contains(t, description, "quantity[]")
	assert.Equal(t, "int", description["quantity"]["type"])

	rec = get(t, rt, "/resources/Nope/filters")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestProperties(t *testing.T) {
	rec := get(t, newRouter(t, nil, nil), "/resources/Dummy/properties")
	require.Equal(t, http.StatusOK, rec.Code)

	var types map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &types))
	assert.Equal(t, "int", types["quantity"][0]["builtin"])
	assert.Equal(t, "RelatedDummy", types["relatedDummy"][0]["class"])
}

func TestExplain(t *testing.T) {
	rec := get(t, newRouter(t, nil, nil), "/resources/Dummy/explain?price[between]=1..5&order[name]=desc")
	require.Equal(t, http.StatusOK, rec.Code)

	var explanation engine.Explanation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &explanation))
	assert.Equal(t, "SELECT o.* FROM dummies o WHERE o.price BETWEEN $1 AND $2 ORDER BY o.name DESC", explanation.SQL)
	assert.Equal(t, []interface{}{float64(1), float64(5)}, explanation.Args)
}

func TestExplainCache(t *testing.T) {
	store := cache.NewMemoryCache(cache.DefaultConfig())
	defer store.Close()

	rt, err := NewRouter(Options{Engine: newEngine(t), Cache: store, CacheTTL: time.Minute})
	require.NoError(t, err)

	first := get(t, rt, "/resources/Dummy/explain?quantity=2")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get(cache.CacheHeader))

	second := get(t, rt, "/resources/Dummy/explain?quantity=2")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get(cache.CacheHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	missing := get(t, rt, "/resources/Nope/explain")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	missing = get(t, rt, "/resources/Nope/explain")
	assert.Equal(t, "MISS", missing.Header().Get(cache.CacheHeader))

	health := get(t, rt, "/health")
	assert.Empty(t, health.Header().Get(cache.CacheHeader))
}

func TestPipeline(t *testing.T) {
	rec := get(t, newRouter(t, nil, nil), "/resources/Dummy/pipeline?quantity=4")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"resource":"Dummy","collection":"dummies","filters":{"quantity":"4"},"pipeline":[{"$match":{"quantity":4}}]}`,
		rec.Body.String())
}

func TestItems(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	rt := newRouter(t, db, nil)

	mock.ExpectQuery("SELECT o.* FROM dummies o WHERE o.quantity = $1 LIMIT $2").
		WithArgs(int64(3), 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(6, []byte("six")))

	rec := get(t, rt, "/resources/Dummy/items?quantity=3&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"data":[{"id":6,"name":"six"}],"meta":{"limit":5,"count":1}}`,
		rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemsErrors(t *testing.T) {
	rec := get(t, newRouter(t, nil, nil), "/resources/Dummy/items")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec = get(t, newRouter(t, db, nil), "/resources/Dummy/items?limit=two")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"BAD_REQUEST"`)
}

func TestDocuments(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("runs the filtered pipeline", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "filterkit.dummies", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: 7}, {Key: "quantity", Value: 4}},
		))

		rt := newRouter(mt.T, nil, mt.DB)
		rec := get(mt.T, rt, "/resources/Dummy/documents?quantity=4")

		require.Equal(mt, http.StatusOK, rec.Code)
		assert.JSONEq(mt, `{"data":[{"_id":7,"quantity":4}],"meta":{"limit":10,"count":1}}`, rec.Body.String())
	})
}

func TestNotFoundRoute(t *testing.T) {
	rec := get(t, newRouter(t, nil, nil), "/nowhere")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestExtractLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"price=3", 10},
		{"limit=5&price=3", 5},
		{"limit=500&price=3", 100},
		{"limit=0&price=3", 10},
		{"limit=&price=3", 10},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			values, err := ExtractFilters(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil))
			require.NoError(t, err)

			limit, err := ExtractLimit(values, 10, 100)
			require.NoError(t, err)
			assert.Equal(t, tt.want, limit)
			assert.Equal(t, []string{"price"}, values.Keys())
		})
	}

	values, err := ExtractFilters(httptest.NewRequest(http.MethodGet, "/?limit=many", nil))
	require.NoError(t, err)
	_, err = ExtractLimit(values, 10, 100)
	assert.Error(t, err)
}
