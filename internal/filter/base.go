package filter

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/conduit-lang/filterkit/internal/filter/naming"
	"github.com/conduit-lang/filterkit/internal/filter/property"
	"github.com/conduit-lang/filterkit/internal/orm/schema"
	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

// Config holds the collaborators and options every filter is built from
type Config struct {
	Metadata      schema.MetadataFactory
	Serialization schema.SerializationFactory
	NameConverter naming.NameConverter
	Properties    Properties
	Logger        *zap.Logger
}

// Base carries the capabilities shared by all filter kinds
type Base struct {
	Normalizer *naming.Normalizer
	Resolver   *property.Resolver
	Properties Properties
	Logger     *zap.Logger
}

// NewBase validates cfg and builds the shared capabilities
func NewBase(cfg Config) (*Base, error) {
	if cfg.Metadata == nil {
		return nil, fmt.Errorf("filter requires a metadata factory")
	}
	if err := cfg.Properties.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Base{
		Normalizer: naming.NewNormalizer(cfg.Metadata, cfg.Serialization, cfg.NameConverter),
		Resolver:   property.NewResolver(cfg.Metadata),
		Properties: cfg.Properties,
		Logger:     logger,
	}, nil
}

// IsPropertyEnabled applies the allow-list. Without one, nested properties
// must be enabled explicitly.
func (b *Base) IsPropertyEnabled(property, resource string) bool {
	if b.Properties == nil {
		return !b.Resolver.IsPropertyNested(property, resource)
	}
	_, ok := b.Properties[property]
	return ok
}

// CheckProperty returns an error unless property is enabled and mapped
func (b *Base) CheckProperty(property, resource string, allowAssociation bool) error {
	if !b.IsPropertyEnabled(property, resource) {
		return fmt.Errorf("%w: %s", ErrPropertyNotEnabled, property)
	}
	if !b.Resolver.IsPropertyMapped(property, resource, allowAssociation) {
		return fmt.Errorf("%w: %s on %s", ErrPropertyNotMapped, property, resource)
	}
	return nil
}

// Each denormalizes every key of filters and calls fn with the internal
// property name. Errors from fn are logged and never stop the loop.
func (b *Base) Each(filters *webquery.Values, resource string, fn func(property string, value interface{}) error) {
	filters.Range(func(key string, value interface{}) bool {
		property := b.Normalizer.Denormalize(key, resource)

		if err := fn(property, value); err != nil {
			b.logSkip(key, resource, err)
		}
		return true
	})
}

func (b *Base) logSkip(key, resource string, err error) {
	fields := []zap.Field{
		zap.String("parameter", key),
		zap.String("resource", resource),
		zap.Error(err),
	}

	if errors.Is(err, ErrPropertyNotEnabled) || errors.Is(err, ErrPropertyNotMapped) {
		b.Logger.Debug("filter parameter skipped", fields...)
		return
	}
	b.Logger.Info("invalid filter ignored", fields...)
}

// DescribedProperties returns the properties to describe for resource: the
// allow-list when set, otherwise every field of the resource
func (b *Base) DescribedProperties(resource string) []string {
	if b.Properties != nil {
		return b.Properties.Names()
	}

	meta, err := b.Resolver.Metadata(resource)
	if err != nil {
		return []string{}
	}

	names := make([]string, 0, len(meta.Fields))
	for name := range meta.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinType returns the scalar type name used in descriptions
func BuiltinType(ft *schema.TypeSpec) string {
	switch {
	case ft == nil:
		return "string"
	case ft.IsInteger():
		return "int"
	case ft.BaseType == schema.TypeFloat:
		return "float"
	case ft.BaseType == schema.TypeBool:
		return "bool"
	default:
		return "string"
	}
}
