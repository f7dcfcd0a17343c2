// Package engine wires configured resources and filters into ready to use
// ORM and ODM filter extensions, and explains the queries they produce.
package engine

import (
	"database/sql"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/conduit-lang/filterkit/internal/cli/config"
	"github.com/conduit-lang/filterkit/internal/filter"
	"github.com/conduit-lang/filterkit/internal/filter/naming"
	"github.com/conduit-lang/filterkit/internal/filter/odm"
	"github.com/conduit-lang/filterkit/internal/filter/orm"
	"github.com/conduit-lang/filterkit/internal/odm/aggregation"
	"github.com/conduit-lang/filterkit/internal/orm/query"
	"github.com/conduit-lang/filterkit/internal/orm/schema"
	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

// Engine holds the metadata and filters of one configuration. It is safe for
// concurrent use; builders are created per request.
type Engine struct {
	metadata      *schema.CachedFactory
	registry      *schema.Registry
	serialization *schema.SerializationRegistry
	orm           *orm.FilterExtension
	odm           *odm.FilterExtension
	logger        *zap.Logger
}

// New validates the resource definitions and builds every configured filter
func New(cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	registry, serialization, err := schema.LoadDefinitions(cfg.Resources)
	if err != nil {
		return nil, fmt.Errorf("invalid resources: %w", err)
	}

	metadata, err := schema.NewCachedFactory(schema.DefinitionLoader(cfg.Resources), cfg.Metadata.CacheSize)
	if err != nil {
		return nil, err
	}

	converter, ok := naming.ConverterByName(cfg.NameConverter)
	if !ok {
		return nil, fmt.Errorf("unknown name_converter %q", cfg.NameConverter)
	}

	e := &Engine{
		metadata:      metadata,
		registry:      registry,
		serialization: serialization,
		orm:           orm.NewFilterExtension(),
		odm:           odm.NewFilterExtension(),
		logger:        logger,
	}

	for _, fc := range cfg.Filters {
		if err := e.register(fc, converter); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func (e *Engine) register(fc config.FilterConfig, converter naming.NameConverter) error {
	if !e.registry.Exists(fc.Resource) {
		return fmt.Errorf("filter %s: %w", fc.Name, &schema.ResourceNotFoundError{Resource: fc.Resource})
	}

	props, err := fc.FilterProperties()
	if err != nil {
		return err
	}

	cfg := filter.Config{
		Metadata:      e.metadata,
		Serialization: e.serialization,
		NameConverter: converter,
		Properties:    props,
		Logger:        e.logger.With(zap.String("filter", fc.Name)),
	}

	if fc.UsesBackend(config.BackendORM) {
		f, err := newORMFilter(fc, cfg)
		if err != nil {
			return fmt.Errorf("filter %s: %w", fc.Name, err)
		}
		e.orm.Register(fc.Resource, f)
	}

	if fc.UsesBackend(config.BackendODM) {
		f, err := newODMFilter(fc, cfg)
		if err != nil {
			return fmt.Errorf("filter %s: %w", fc.Name, err)
		}
		e.odm.Register(fc.Resource, f)
	}

	e.logger.Debug("filter registered",
		zap.String("filter", fc.Name),
		zap.String("kind", fc.Kind),
		zap.String("resource", fc.Resource))
	return nil
}

func newORMFilter(fc config.FilterConfig, cfg filter.Config) (orm.Filter, error) {
	switch fc.Kind {
	case config.KindNumeric:
		return orm.NewNumericFilter(cfg)
	case config.KindOrder:
		return orm.NewOrderFilter(cfg, fc.ParameterName)
	case config.KindRange:
		return orm.NewRangeFilter(cfg)
	default:
		return nil, fmt.Errorf("unknown kind %q", fc.Kind)
	}
}

func newODMFilter(fc config.FilterConfig, cfg filter.Config) (odm.Filter, error) {
	switch fc.Kind {
	case config.KindNumeric:
		return odm.NewNumericFilter(cfg)
	case config.KindOrder:
		return odm.NewOrderFilter(cfg, fc.ParameterName)
	case config.KindRange:
		return odm.NewRangeFilter(cfg)
	default:
		return nil, fmt.Errorf("unknown kind %q", fc.Kind)
	}
}

// Resources returns the names of every non-embeddable resource
func (e *Engine) Resources() []string {
	names := make([]string, 0)
	for _, name := range e.registry.List() {
		if meta, ok := e.registry.Get(name); ok && !meta.Embeddable {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Metadata returns the metadata of resource
func (e *Engine) Metadata(resource string) (*schema.ResourceSchema, error) {
	return e.metadata.Metadata(resource)
}

// QueryBuilder filters resource with the ORM filters. db may be nil when the
// query is only rendered.
func (e *Engine) QueryBuilder(resource string, filters *webquery.Values, db *sql.DB) (*query.QueryBuilder, error) {
	meta, err := e.Metadata(resource)
	if err != nil {
		return nil, err
	}

	qb := query.NewQueryBuilder(meta, e.metadata, db)
	e.orm.ApplyToCollection(qb, filter.NewContext(filters, filter.OperationGetCollection))
	return qb, nil
}

// Pipeline filters resource with the ODM filters. coll may be nil when the
// pipeline is only rendered.
func (e *Engine) Pipeline(resource string, filters *webquery.Values, coll *mongo.Collection) (*aggregation.Builder, error) {
	meta, err := e.Metadata(resource)
	if err != nil {
		return nil, err
	}

	b := aggregation.NewBuilder(meta, e.metadata, coll)
	e.odm.ApplyToCollection(b, filter.NewContext(filters, filter.OperationGetCollection))
	return b, nil
}

// Describe merges the descriptions of the ORM and ODM filters of resource
func (e *Engine) Describe(resource string) (map[string]filter.Description, error) {
	if _, err := e.Metadata(resource); err != nil {
		return nil, err
	}

	description := e.odm.Description(resource)
	for key, d := range e.orm.Description(resource) {
		description[key] = d
	}
	return description, nil
}

// PropertyTypes returns the value types of every property of resource
func (e *Engine) PropertyTypes(resource string) (map[string][]*schema.PropertyType, error) {
	if _, err := e.Metadata(resource); err != nil {
		return nil, err
	}

	extractor := schema.NewExtractor(e.metadata)
	types := make(map[string][]*schema.PropertyType)
	for _, property := range extractor.Properties(resource) {
		types[property] = extractor.Types(resource, property)
	}
	return types, nil
}
