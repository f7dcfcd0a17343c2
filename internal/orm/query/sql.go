package query

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/filterkit/internal/orm/schema"
)

// renderer turns a builder into PostgreSQL with $n placeholders. Property
// names are mapped to columns through resource metadata.
type renderer struct {
	qb           *QueryBuilder
	aliases      map[string]*schema.ResourceSchema
	params       map[string]*Parameter
	paramCounter int
	args         []interface{}
}

func newRenderer(qb *QueryBuilder) *renderer {
	params := make(map[string]*Parameter, len(qb.params))
	for _, p := range qb.params {
		params[p.Name] = p
	}

	return &renderer{
		qb:           qb,
		aliases:      map[string]*schema.ResourceSchema{qb.rootAlias: qb.resource},
		params:       params,
		paramCounter: 1,
		args:         make([]interface{}, 0),
	}
}

func (r *renderer) render(count bool) (string, []interface{}, error) {
	var sql strings.Builder
	qb := r.qb

	if err := checkIdentifier(qb.rootAlias); err != nil {
		return "", nil, err
	}
	if err := checkIdentifier(qb.resource.TableName); err != nil {
		return "", nil, err
	}

	if count {
		sql.WriteString("SELECT COUNT(*)")
	} else {
		sql.WriteString(fmt.Sprintf("SELECT %s.*", qb.rootAlias))
	}
	sql.WriteString(fmt.Sprintf(" FROM %s %s", qb.resource.TableName, qb.rootAlias))

	// JOINs
	for _, join := range qb.joins {
		joinSQL, err := r.join(join)
		if err != nil {
			return "", nil, fmt.Errorf("failed to build join %s: %w", join.Alias, err)
		}
		sql.WriteString(" ")
		sql.WriteString(joinSQL)
	}

	// WHERE clauses
	if len(qb.wheres) > 0 {
		sql.WriteString(" WHERE ")
		for i, pred := range qb.wheres {
			if i > 0 {
				sql.WriteString(" AND ")
			}
			column, err := r.column(pred.Alias, pred.Field)
			if err != nil {
				return "", nil, fmt.Errorf("failed to build condition %s: %w", pred, err)
			}
			condSQL, err := predicateToSQL(column, pred, r.params, &r.paramCounter, &r.args)
			if err != nil {
				return "", nil, fmt.Errorf("failed to build condition %s: %w", pred, err)
			}
			sql.WriteString(condSQL)
		}
	}

	if count {
		return sql.String(), r.args, nil
	}

	// ORDER BY
	if len(qb.orderBys) > 0 {
		parts := make([]string, len(qb.orderBys))
		for i, o := range qb.orderBys {
			part, err := r.orderBy(o)
			if err != nil {
				return "", nil, fmt.Errorf("failed to build order by %s: %w", o, err)
			}
			parts[i] = part
		}
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(parts, ", "))
	}

	// LIMIT
	if qb.limit != nil {
		sql.WriteString(fmt.Sprintf(" LIMIT $%d", r.paramCounter))
		r.args = append(r.args, *qb.limit)
		r.paramCounter++
	}

	return sql.String(), r.args, nil
}

// join renders one join and records the resource behind its alias
func (r *renderer) join(join *Join) (string, error) {
	parent, ok := r.aliases[join.ParentAlias]
	if !ok {
		return "", fmt.Errorf("unknown alias %s", join.ParentAlias)
	}

	rel, ok := parent.Relationships[join.Association]
	if !ok {
		return "", fmt.Errorf("%s has no association %s", parent.Name, join.Association)
	}

	target, err := r.metadata(rel.TargetResource)
	if err != nil {
		return "", err
	}
	r.aliases[join.Alias] = target

	for _, ident := range []string{join.Alias, target.TableName, rel.ForeignKey} {
		if err := checkIdentifier(ident); err != nil {
			return "", err
		}
	}

	switch rel.Type {
	case schema.RelationshipBelongsTo:
		pk, err := target.GetPrimaryKey()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s JOIN %s %s ON %s.%s = %s.%s",
			join.Type, target.TableName, join.Alias,
			join.Alias, pk.ColumnName(), join.ParentAlias, rel.ForeignKey), nil

	case schema.RelationshipHasMany, schema.RelationshipHasOne:
		pk, err := parent.GetPrimaryKey()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s JOIN %s %s ON %s.%s = %s.%s",
			join.Type, target.TableName, join.Alias,
			join.Alias, rel.ForeignKey, join.ParentAlias, pk.ColumnName()), nil

	case schema.RelationshipHasManyThrough:
		parentPK, err := parent.GetPrimaryKey()
		if err != nil {
			return "", err
		}
		targetPK, err := target.GetPrimaryKey()
		if err != nil {
			return "", err
		}
		for _, ident := range []string{rel.JoinTable, rel.AssociationKey} {
			if err := checkIdentifier(ident); err != nil {
				return "", err
			}
		}
		link := join.Alias + "_jt"
		return fmt.Sprintf("%s JOIN %s %s ON %s.%s = %s.%s %s JOIN %s %s ON %s.%s = %s.%s",
			join.Type, rel.JoinTable, link,
			link, rel.ForeignKey, join.ParentAlias, parentPK.ColumnName(),
			join.Type, target.TableName, join.Alias,
			join.Alias, targetPK.ColumnName(), link, rel.AssociationKey), nil

	default:
		return "", fmt.Errorf("unsupported relationship type %s", rel.Type)
	}
}

// column maps alias.property to alias.column. Dotted properties walk
// embeddables and accumulate their column prefixes. A belongs_to association
// maps to its foreign key.
func (r *renderer) column(alias, property string) (string, error) {
	resource, ok := r.aliases[alias]
	if !ok {
		return "", fmt.Errorf("unknown alias %s", alias)
	}

	prefix := ""
	parts := strings.Split(property, ".")
	for _, part := range parts[:len(parts)-1] {
		emb, ok := resource.Embedded[part]
		if !ok {
			return "", fmt.Errorf("%s has no embedded %s", resource.Name, part)
		}
		target, err := r.metadata(emb.TargetResource)
		if err != nil {
			return "", err
		}
		prefix += emb.Prefix()
		resource = target
	}

	last := parts[len(parts)-1]
	var column string
	if field, ok := resource.Fields[last]; ok {
		column = prefix + field.ColumnName()
	} else if rel, ok := resource.Relationships[last]; ok && rel.IsOwningSide() {
		column = prefix + rel.ForeignKey
	} else {
		return "", fmt.Errorf("%s has no field %s", resource.Name, last)
	}

	if err := checkIdentifier(column); err != nil {
		return "", err
	}
	return alias + "." + column, nil
}

// orderBy renders one ORDER BY entry. Computed columns are inlined.
func (r *renderer) orderBy(o *OrderBy) (string, error) {
	if o.Direction != "ASC" && o.Direction != "DESC" {
		return "", fmt.Errorf("invalid direction %q", o.Direction)
	}

	if o.Select != "" {
		for _, sel := range r.qb.selects {
			if sel.Name != o.Select {
				continue
			}
			column, err := r.column(sel.Alias, sel.Field)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("CASE WHEN %s IS NULL THEN 0 ELSE 1 END %s", column, o.Direction), nil
		}
		return "", fmt.Errorf("unknown select %s", o.Select)
	}

	column, err := r.column(o.Alias, o.Field)
	if err != nil {
		return "", err
	}
	return column + " " + o.Direction, nil
}

func (r *renderer) metadata(resource string) (*schema.ResourceSchema, error) {
	if r.qb.factory == nil {
		return nil, fmt.Errorf("no metadata factory to resolve %s", resource)
	}
	return r.qb.factory.Metadata(resource)
}

// checkIdentifier validates that an identifier only contains safe characters
// (letters, digits and underscore)
func checkIdentifier(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("empty identifier")
	}
	for _, char := range identifier {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return fmt.Errorf("invalid identifier: %s (contains invalid character: %c)", identifier, char)
		}
	}
	return nil
}
