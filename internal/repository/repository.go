// Package repository provides table-parameterized CRUD shared by the simple
// catalog entities. Entities needing range or keyword search keep their own
// hand-built queries on the same pool interface.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicdesk/clinic-backend/internal/sqlbuilder"
)

// Querier is the subset of pgxpool.Pool the generic repository needs.
// pgxmock satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo executes equality-only CRUD against a single table. Rows come back
// as column→value maps; callers own the column names they pass in.
type Repo struct {
	table string
	db    Querier
}

// New creates a repository bound to a table.
func New(table string, db Querier) *Repo {
	if !sqlbuilder.ValidIdent(table) {
		panic("repository: invalid table name " + table)
	}
	return &Repo{table: table, db: db}
}

// FindOptions controls FindAll. Where supports equality only; richer
// operators live in the specialized repositories.
type FindOptions struct {
	Limit   int
	Offset  int
	OrderBy string
	Order   string
	Where   map[string]any
}

// FindAll returns rows matching the options.
func (r *Repo) FindAll(ctx context.Context, opts FindOptions) ([]map[string]any, error) {
	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = "id"
	}
	order := strings.ToUpper(opts.Order)
	if order != "DESC" {
		order = "ASC"
	}
	if !sqlbuilder.ValidIdent(orderBy) {
		return nil, fmt.Errorf("repository: invalid order column %q", opts.OrderBy)
	}

	where, params, idx := sqlbuilder.BuildWhere(sqlbuilder.Criteria(opts.Where), "", 1)
	query := fmt.Sprintf("SELECT * FROM %s %s ORDER BY %s %s", r.table, where, orderBy, order)
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		params = append(params, opts.Limit)
		idx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", idx)
		params = append(params, opts.Offset)
	}

	rows, err := r.db.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("repository: select %s: %w", r.table, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("repository: collect %s: %w", r.table, err)
	}
	return out, nil
}

// FindByID returns the row with the given id, or nil when absent. Absence
// is not an error; callers convert it to a not-found condition when needed.
func (r *Repo) FindByID(ctx context.Context, id int64) (map[string]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1", r.table)
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("repository: select %s by id: %w", r.table, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: collect %s: %w", r.table, err)
	}
	return row, nil
}

// FindBy returns rows matching all equality criteria.
func (r *Repo) FindBy(ctx context.Context, criteria map[string]any) ([]map[string]any, error) {
	where, params, _ := sqlbuilder.BuildWhere(sqlbuilder.Criteria(criteria), "", 1)
	query := fmt.Sprintf("SELECT * FROM %s %s", r.table, where)
	rows, err := r.db.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("repository: select %s: %w", r.table, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("repository: collect %s: %w", r.table, err)
	}
	return out, nil
}

// Create inserts data and returns the created row including server-assigned
// columns.
func (r *Repo) Create(ctx context.Context, data map[string]any) (map[string]any, error) {
	cols, err := sortedColumns(data)
	if err != nil {
		return nil, err
	}
	placeholders := make([]string, 0, len(cols))
	params := make([]any, 0, len(cols))
	for i, col := range cols {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		params = append(params, data[col])
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		r.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)
	rows, err := r.db.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("repository: insert %s: %w", r.table, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("repository: insert %s: %w", r.table, err)
	}
	return row, nil
}

// Update applies data to the row with the given id and returns the updated
// row, or nil when the id does not exist.
func (r *Repo) Update(ctx context.Context, id int64, data map[string]any) (map[string]any, error) {
	cols, err := sortedColumns(data)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return r.FindByID(ctx, id)
	}
	assignments := make([]string, 0, len(cols))
	params := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", col, i+1))
		params = append(params, data[col])
	}
	params = append(params, id)
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d RETURNING *",
		r.table, strings.Join(assignments, ", "), len(params),
	)
	rows, err := r.db.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("repository: update %s: %w", r.table, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: update %s: %w", r.table, err)
	}
	return row, nil
}

// Delete removes the row with the given id and reports whether a row was
// actually removed.
func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table)
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("repository: delete %s: %w", r.table, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Count returns the number of rows matching the equality criteria.
func (r *Repo) Count(ctx context.Context, criteria map[string]any) (int64, error) {
	where, params, _ := sqlbuilder.BuildWhere(sqlbuilder.Criteria(criteria), "", 1)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", r.table, where)
	var total int64
	if err := r.db.QueryRow(ctx, query, params...).Scan(&total); err != nil {
		return 0, fmt.Errorf("repository: count %s: %w", r.table, err)
	}
	return total, nil
}

func sortedColumns(data map[string]any) ([]string, error) {
	cols := make([]string, 0, len(data))
	for col := range data {
		if !sqlbuilder.ValidIdent(col) || strings.Contains(col, ".") {
			return nil, fmt.Errorf("repository: invalid column name %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}
