// Package aggregation builds MongoDB aggregation pipelines for one resource
// and runs them against a collection.
package aggregation

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/conduit-lang/filterkit/internal/orm/schema"
)

// Lookup joins the documents of another collection under As, followed by an
// $unwind of As
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
}

// Stages returns the $lookup and $unwind stages
func (l *Lookup) Stages() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: l.From},
			{Key: "localField", Value: l.LocalField},
			{Key: "foreignField", Value: l.ForeignField},
			{Key: "as", Value: l.As},
		}}},
		{{Key: "$unwind", Value: "$" + l.As}},
	}
}

// Match filters documents on one field
type Match struct {
	Field     string
	Condition interface{}
}

// Stage returns the $match stage
func (m *Match) Stage() bson.D {
	return bson.D{{Key: "$match", Value: bson.D{{Key: m.Field, Value: m.Condition}}}}
}

// SortField is one key of the final $sort stage
type SortField struct {
	Field string
	Order int
}

// Direction returns ASC or DESC
func (s SortField) Direction() string {
	if s.Order < 0 {
		return "DESC"
	}
	return "ASC"
}

// stage is either a lookup or a match, kept in application order
type stage struct {
	lookup *Lookup
	match  *Match
}

// Builder accumulates the pipeline for one request
type Builder struct {
	resource   *schema.ResourceSchema
	factory    schema.MetadataFactory
	collection *mongo.Collection

	stages []stage
	sort   []SortField
	limit  *int64
}

// NewBuilder creates a pipeline builder for resource. collection may be nil
// when the pipeline is only rendered.
func NewBuilder(resource *schema.ResourceSchema, factory schema.MetadataFactory, collection *mongo.Collection) *Builder {
	return &Builder{
		resource:   resource,
		factory:    factory,
		collection: collection,
		stages:     make([]stage, 0),
		sort:       make([]SortField, 0),
	}
}

// Resource returns the queried resource
func (b *Builder) Resource() *schema.ResourceSchema { return b.resource }

// Lookups returns the applied lookups in order
func (b *Builder) Lookups() []*Lookup {
	lookups := make([]*Lookup, 0)
	for _, s := range b.stages {
		if s.lookup != nil {
			lookups = append(lookups, s.lookup)
		}
	}
	return lookups
}

// Matches returns the applied matches in order
func (b *Builder) Matches() []*Match {
	matches := make([]*Match, 0)
	for _, s := range b.stages {
		if s.match != nil {
			matches = append(matches, s.match)
		}
	}
	return matches
}

// Sort returns the accumulated sort keys in order
func (b *Builder) Sort() []SortField { return b.sort }

func (b *Builder) hasLookup(as string) bool {
	for _, s := range b.stages {
		if s.lookup != nil && s.lookup.As == as {
			return true
		}
	}
	return false
}

// Apply validates a changeset and appends its content. Nothing is applied
// when validation fails.
func (b *Builder) Apply(cs *Changeset) error {
	if err := cs.validate(b); err != nil {
		return fmt.Errorf("failed to apply changeset: %w", err)
	}

	b.stages = append(b.stages, cs.stages...)
	b.sort = append(b.sort, cs.sort...)
	return nil
}

// Limit sets the $limit stage
func (b *Builder) Limit(n int64) *Builder {
	b.limit = &n
	return b
}

// Pipeline returns lookups and matches in application order, then a single
// $sort stage, then $limit
func (b *Builder) Pipeline() mongo.Pipeline {
	pipeline := mongo.Pipeline{}

	for _, s := range b.stages {
		if s.lookup != nil {
			pipeline = append(pipeline, s.lookup.Stages()...)
			continue
		}
		pipeline = append(pipeline, s.match.Stage())
	}

	if len(b.sort) > 0 {
		sortDoc := bson.D{}
		for _, f := range b.sort {
			sortDoc = append(sortDoc, bson.E{Key: f.Field, Value: f.Order})
		}
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sortDoc}})
	}

	if b.limit != nil {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: *b.limit}})
	}

	return pipeline
}

// Execute runs the pipeline and decodes every document
func (b *Builder) Execute(ctx context.Context) ([]bson.M, error) {
	if b.collection == nil {
		return nil, fmt.Errorf("no collection configured")
	}

	cursor, err := b.collection.Aggregate(ctx, b.Pipeline())
	if err != nil {
		return nil, fmt.Errorf("failed to run aggregation: %w", err)
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	return results, nil
}
