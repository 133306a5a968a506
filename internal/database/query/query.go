// Package query translates declarative facet criteria into parameterized
// reads against one table of the local database.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
)

// Criteria carries the four optional facets of a read. Facets are
// AND-combined; an absent facet imposes no constraint, so the zero
// Criteria selects every row of the table.
type Criteria struct {
	Searches map[string]string      // field to substring term, matched with LIKE
	Filters  map[string]interface{} // field to exact value
	Excludes map[string]interface{} // field to value to rule out
	Sorts    []string               // field names to order by, highest precedence first
}

// Row is one result record keyed by column name.
type Row map[string]interface{}

// InvalidQueryError reports criteria naming a table or field the schema
// does not know. It marks a configuration error, not a transient failure.
type InvalidQueryError struct {
	Table string
	Field string
}

func (invalidQueryError *InvalidQueryError) Error() string {
	if invalidQueryError.Field == "" {
		return fmt.Sprintf("unknown table %q", invalidQueryError.Table)
	}
	return fmt.Sprintf("unknown field %q on table %q", invalidQueryError.Field, invalidQueryError.Table)
}

// FilteredQuery runs the parameterized SELECT described by criteria
// against table. Every facet value is bound as a query parameter, never
// spliced into the query text. Field names are checked against the actual
// table schema before the query is built.
func FilteredQuery(ctx context.Context, database *sql.DB, table string, criteria Criteria) ([]Row, error) {
	columns, err := tableColumns(ctx, database, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, &InvalidQueryError{Table: table}
	}
	known := make(map[string]bool, len(columns))
	for _, column := range columns {
		known[column] = true
	}

	builder := sq.Select(columns...).From(table)
	for _, field := range sortedKeys(criteria.Searches) {
		if !known[field] {
			return nil, &InvalidQueryError{Table: table, Field: field}
		}
		builder = builder.Where(sq.Like{field: "%" + criteria.Searches[field] + "%"})
	}
	for _, field := range sortedKeys(criteria.Filters) {
		if !known[field] {
			return nil, &InvalidQueryError{Table: table, Field: field}
		}
		builder = builder.Where(sq.Eq{field: criteria.Filters[field]})
	}
	for _, field := range sortedKeys(criteria.Excludes) {
		if !known[field] {
			return nil, &InvalidQueryError{Table: table, Field: field}
		}
		builder = builder.Where(sq.NotEq{field: criteria.Excludes[field]})
	}
	for _, field := range criteria.Sorts {
		if !known[field] {
			return nil, &InvalidQueryError{Table: table, Field: field}
		}
		builder = builder.OrderBy(field)
	}

	sqlString, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building filtered query: %w", err)
	}
	rows, err := database.QueryContext(ctx, sqlString, args...)
	if err != nil {
		return nil, fmt.Errorf("executing filtered query: %w", err)
	}
	defer rows.Close()

	results := []Row{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for index := range values {
			pointers[index] = &values[index]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(Row, len(columns))
		for index, column := range columns {
			row[column] = normalizeValue(values[index])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return results, nil
}

// tableColumns reads the column names of table from the schema, in schema
// order. An unknown table yields no columns.
func tableColumns(ctx context.Context, database *sql.DB, table string) ([]string, error) {
	rows, err := database.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("reading schema of table %q: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, fmt.Errorf("scanning schema row: %w", err)
		}
		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schema rows: %w", err)
	}
	return columns, nil
}

// sortedKeys fixes the facet iteration order so the generated query text
// is stable for identical criteria.
func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// normalizeValue maps driver-specific scan results to plain Go values.
func normalizeValue(value interface{}) interface{} {
	if bytes, ok := value.([]byte); ok {
		return string(bytes)
	}
	return value
}
