// Package sqlbuilder translates declarative criteria into parameterized SQL
// fragments. All builders are pure: they return the clause text, the
// positional parameters, and the next free placeholder index so that
// multiple fragments compose into a single parameter list.
package sqlbuilder

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// Criteria maps a column name to a filter value. A value may be a scalar
// (equality), a slice (IN), or a Condition (range/pattern operators).
type Criteria map[string]any

// Condition expresses comparison, pattern, and range predicates for a
// single column. Set fields are ANDed together; zero fields are ignored.
type Condition struct {
	Lt      any
	Lte     any
	Gt      any
	Gte     any
	Like    string
	Between []any
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdent reports whether s is a safe SQL identifier (optionally
// schema- or alias-qualified). Criteria keys failing the check are skipped.
func ValidIdent(s string) bool {
	return identPattern.MatchString(s)
}

// BuildWhere renders criteria into a WHERE clause. Placeholders are
// numbered from startIndex. With no usable criteria the clause degenerates
// to `WHERE 1=1` so callers can always concatenate further fragments. An
// empty slice value renders FALSE: it must match zero rows rather than
// produce invalid SQL.
func BuildWhere(criteria Criteria, tableAlias string, startIndex int) (string, []any, int) {
	prefix := ""
	if tableAlias != "" {
		prefix = tableAlias + "."
	}
	if startIndex < 1 {
		startIndex = 1
	}

	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	params := make([]any, 0, len(keys))
	idx := startIndex

	for _, key := range keys {
		value := criteria[key]
		if value == nil || !ValidIdent(key) {
			continue
		}
		col := prefix + key

		if cond, ok := value.(Condition); ok {
			condClauses, condParams, next := cond.render(col, idx)
			clauses = append(clauses, condClauses...)
			params = append(params, condParams...)
			idx = next
			continue
		}

		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Slice {
			if rv.Len() == 0 {
				clauses = append(clauses, "FALSE")
				continue
			}
			placeholders := make([]string, 0, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				placeholders = append(placeholders, fmt.Sprintf("$%d", idx))
				params = append(params, rv.Index(i).Interface())
				idx++
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")))
			continue
		}

		clauses = append(clauses, fmt.Sprintf("%s = $%d", col, idx))
		params = append(params, value)
		idx++
	}

	if len(clauses) == 0 {
		return "WHERE 1=1", params, idx
	}
	return "WHERE " + strings.Join(clauses, " AND "), params, idx
}

func (c Condition) render(col string, idx int) ([]string, []any, int) {
	var clauses []string
	var params []any

	if c.Lt != nil {
		clauses = append(clauses, fmt.Sprintf("%s < $%d", col, idx))
		params = append(params, c.Lt)
		idx++
	}
	if c.Lte != nil {
		clauses = append(clauses, fmt.Sprintf("%s <= $%d", col, idx))
		params = append(params, c.Lte)
		idx++
	}
	if c.Gt != nil {
		clauses = append(clauses, fmt.Sprintf("%s > $%d", col, idx))
		params = append(params, c.Gt)
		idx++
	}
	if c.Gte != nil {
		clauses = append(clauses, fmt.Sprintf("%s >= $%d", col, idx))
		params = append(params, c.Gte)
		idx++
	}
	if c.Like != "" {
		clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", col, idx))
		params = append(params, "%"+c.Like+"%")
		idx++
	}
	if len(c.Between) == 2 {
		clauses = append(clauses, fmt.Sprintf("%s BETWEEN $%d AND $%d", col, idx, idx+1))
		params = append(params, c.Between[0], c.Between[1])
		idx += 2
	}
	return clauses, params, idx
}

// BuildOrderBy renders an ORDER BY clause. sort may be a single column
// expression string or a column→direction map; anything else, or an empty
// value, yields no clause.
func BuildOrderBy(sortOptions any) string {
	switch v := sortOptions.(type) {
	case string:
		if v == "" || !validOrderExpr(v) {
			return ""
		}
		return "ORDER BY " + v
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]string, 0, len(keys))
		for _, col := range keys {
			dir := strings.ToUpper(v[col])
			if !ValidIdent(col) || (dir != "ASC" && dir != "DESC") {
				continue
			}
			fields = append(fields, col+" "+dir)
		}
		if len(fields) == 0 {
			return ""
		}
		return "ORDER BY " + strings.Join(fields, ", ")
	default:
		return ""
	}
}

func validOrderExpr(s string) bool {
	parts := strings.Fields(s)
	if len(parts) == 0 || len(parts) > 2 {
		return false
	}
	if !ValidIdent(parts[0]) {
		return false
	}
	if len(parts) == 2 {
		dir := strings.ToUpper(parts[1])
		return dir == "ASC" || dir == "DESC"
	}
	return true
}

// BuildPagination renders LIMIT/OFFSET with parameterized values numbered
// from startIndex. A zero limit yields no clause. The offset is
// (page-1)*limit for page > 1, else 0.
func BuildPagination(limit, page, startIndex int) (string, []any, int) {
	if startIndex < 1 {
		startIndex = 1
	}
	if limit <= 0 {
		return "", nil, startIndex
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}
	clause := fmt.Sprintf("LIMIT $%d OFFSET $%d", startIndex, startIndex+1)
	return clause, []any{limit, offset}, startIndex + 2
}
