package engine

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

// Explanation is the SQL produced by the ORM filters for one request
type Explanation struct {
	Resource   string           `json:"resource"`
	Filters    *webquery.Values `json:"filters"`
	DQL        string           `json:"dql"`
	SQL        string           `json:"sql"`
	Args       []interface{}    `json:"args"`
	Parameters []Parameter      `json:"parameters"`
}

// Parameter is one named binding. Type is empty for untyped bindings.
type Parameter struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
	Type  string      `json:"type,omitempty"`
}

// Explain renders the query the ORM filters build for filters
func (e *Engine) Explain(resource string, filters *webquery.Values) (*Explanation, error) {
	qb, err := e.QueryBuilder(resource, filters, nil)
	if err != nil {
		return nil, err
	}

	sqlStr, args, err := qb.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to render %s query: %w", resource, err)
	}

	params := make([]Parameter, 0, len(qb.Parameters()))
	for _, p := range qb.Parameters() {
		param := Parameter{Name: p.Name, Value: p.Value}
		if p.Type != nil {
			param.Type = p.Type.String()
		}
		params = append(params, param)
	}

	return &Explanation{
		Resource:   resource,
		Filters:    filters,
		DQL:        qb.DQL(),
		SQL:        sqlStr,
		Args:       args,
		Parameters: params,
	}, nil
}

// PipelineExplanation is the aggregation pipeline produced by the ODM
// filters for one request. Stages are relaxed extended JSON.
type PipelineExplanation struct {
	Resource   string            `json:"resource"`
	Collection string            `json:"collection"`
	Filters    *webquery.Values  `json:"filters"`
	Pipeline   []json.RawMessage `json:"pipeline"`
}

// ExplainPipeline renders the pipeline the ODM filters build for filters
func (e *Engine) ExplainPipeline(resource string, filters *webquery.Values) (*PipelineExplanation, error) {
	b, err := e.Pipeline(resource, filters, nil)
	if err != nil {
		return nil, err
	}

	pipeline := b.Pipeline()
	stages := make([]json.RawMessage, 0, len(pipeline))
	for _, stage := range pipeline {
		data, err := bson.MarshalExtJSON(stage, false, false)
		if err != nil {
			return nil, fmt.Errorf("failed to encode pipeline stage: %w", err)
		}
		stages = append(stages, json.RawMessage(data))
	}

	return &PipelineExplanation{
		Resource:   resource,
		Collection: b.Resource().TableName,
		Filters:    filters,
		Pipeline:   stages,
	}, nil
}
