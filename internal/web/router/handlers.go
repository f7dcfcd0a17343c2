package router

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

// ListResponse wraps the rows returned by the query routes
type ListResponse struct {
	Data interface{} `json:"data"`
	Meta ListMeta    `json:"meta"`
}

// ListMeta reports the row cap applied and the rows returned
type ListMeta struct {
	Limit int `json:"limit"`
	Count int `json:"count"`
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"sql":    rt.db != nil,
		"mongo":  rt.mongo != nil,
	})
}

func (rt *Router) listResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resources": rt.engine.Resources(),
	})
}

func (rt *Router) describe(w http.ResponseWriter, r *http.Request) {
	description, err := rt.engine.Describe(ResourceParam(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, description)
}

func (rt *Router) properties(w http.ResponseWriter, r *http.Request) {
	types, err := rt.engine.PropertyTypes(ResourceParam(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (rt *Router) explain(w http.ResponseWriter, r *http.Request) {
	filters, err := ExtractFilters(r)
	if err != nil {
		rt.writeError(w, r, badRequest(err))
		return
	}

	explanation, err := rt.engine.Explain(ResourceParam(r), filters)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, explanation)
}

func (rt *Router) pipeline(w http.ResponseWriter, r *http.Request) {
	filters, err := ExtractFilters(r)
	if err != nil {
		rt.writeError(w, r, badRequest(err))
		return
	}

	explanation, err := rt.engine.ExplainPipeline(ResourceParam(r), filters)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, explanation)
}

func (rt *Router) items(w http.ResponseWriter, r *http.Request) {
	if rt.db == nil {
		rt.writeError(w, r, ErrBackendUnavailable)
		return
	}

	filters, limit, err := rt.listParams(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	qb, err := rt.engine.QueryBuilder(ResourceParam(r), filters, rt.db)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	rows, err := qb.Limit(limit).All(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []map[string]interface{}{}
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Data: rows,
		Meta: ListMeta{Limit: limit, Count: len(rows)},
	})
}

func (rt *Router) documents(w http.ResponseWriter, r *http.Request) {
	if rt.mongo == nil {
		rt.writeError(w, r, ErrBackendUnavailable)
		return
	}

	filters, limit, err := rt.listParams(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	meta, err := rt.engine.Metadata(ResourceParam(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	b, err := rt.engine.Pipeline(meta.Name, filters, rt.mongo.Collection(meta.TableName))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	docs, err := b.Limit(int64(limit)).Execute(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []bson.M{}
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Data: docs,
		Meta: ListMeta{Limit: limit, Count: len(docs)},
	})
}

func (rt *Router) listParams(r *http.Request) (*webquery.Values, int, error) {
	filters, err := ExtractFilters(r)
	if err != nil {
		return nil, 0, badRequest(err)
	}

	limit, err := ExtractLimit(filters, rt.defaultLimit, rt.maxLimit)
	if err != nil {
		return nil, 0, badRequest(err)
	}
	return filters, limit, nil
}
