package schema

import (
	"sort"
)

// Builtin value kinds reported by the Extractor
const (
	BuiltinInt      = "int"
	BuiltinFloat    = "float"
	BuiltinString   = "string"
	BuiltinBool     = "bool"
	BuiltinObject   = "object"
	BuiltinArray    = "array"
	BuiltinResource = "resource"
)

// PropertyType describes the value carried by a property
type PropertyType struct {
	Builtin    string        `json:"builtin"`
	Nullable   bool          `json:"nullable"`
	Class      string        `json:"class,omitempty"`
	Collection bool          `json:"collection,omitempty"`
	KeyType    *PropertyType `json:"key_type,omitempty"`
	ValueType  *PropertyType `json:"value_type,omitempty"`
}

// Extractor lists the properties of a resource and their value types
type Extractor struct {
	factory MetadataFactory
}

// NewExtractor creates an extractor reading from factory
func NewExtractor(factory MetadataFactory) *Extractor {
	return &Extractor{factory: factory}
}

// Properties returns fields, associations and embeddables of resource, sorted.
// It returns nil when the resource is unknown.
func (e *Extractor) Properties(resource string) []string {
	meta, err := e.factory.Metadata(resource)
	if err != nil {
		return nil
	}

	props := make([]string, 0, len(meta.Fields)+len(meta.Relationships)+len(meta.Embedded))
	for name := range meta.Fields {
		props = append(props, name)
	}
	for name := range meta.Relationships {
		props = append(props, name)
	}
	for name := range meta.Embedded {
		props = append(props, name)
	}
	sort.Strings(props)
	return props
}

// Types returns the value types of a property, or nil if it cannot be determined
func (e *Extractor) Types(resource, property string) []*PropertyType {
	meta, err := e.factory.Metadata(resource)
	if err != nil {
		return nil
	}

	if rel, ok := meta.Relationships[property]; ok {
		if rel.IsSingleValued() {
			return []*PropertyType{{Builtin: BuiltinObject, Nullable: rel.Nullable, Class: rel.TargetResource}}
		}
		return []*PropertyType{{
			Builtin:    BuiltinObject,
			Class:      "collection",
			Collection: true,
			KeyType:    &PropertyType{Builtin: BuiltinInt},
			ValueType:  &PropertyType{Builtin: BuiltinObject, Class: rel.TargetResource},
		}}
	}

	if emb, ok := meta.Embedded[property]; ok {
		return []*PropertyType{{Builtin: BuiltinObject, Class: emb.TargetResource}}
	}

	field, ok := meta.Fields[property]
	if !ok || field.Type == nil {
		return nil
	}

	nullable := field.Type.Nullable
	switch field.Type.BaseType {
	case TypeTimestamp, TypeDate, TypeTime:
		return []*PropertyType{{Builtin: BuiltinObject, Nullable: nullable, Class: "time.Time"}}
	case TypeHash, TypeJSON:
		return []*PropertyType{{Builtin: BuiltinArray, Nullable: nullable, Collection: true}}
	case TypeCollection:
		return []*PropertyType{{
			Builtin:    BuiltinArray,
			Nullable:   nullable,
			Collection: true,
			KeyType:    &PropertyType{Builtin: BuiltinInt},
			ValueType:  &PropertyType{Builtin: BuiltinString},
		}}
	}

	builtin := builtinFor(field.Type.BaseType)
	if builtin == "" {
		return nil
	}
	return []*PropertyType{{Builtin: builtin, Nullable: nullable}}
}

func builtinFor(t PrimitiveType) string {
	switch t {
	case TypeSmallInt, TypeInt:
		return BuiltinInt
	case TypeFloat:
		return BuiltinFloat
	case TypeBigInt, TypeDecimal, TypeString, TypeText, TypeUUID, TypeObjectID:
		// bigint and decimal can exceed the native numeric range
		return BuiltinString
	case TypeBool:
		return BuiltinBool
	case TypeBinary:
		return BuiltinResource
	}
	return ""
}
