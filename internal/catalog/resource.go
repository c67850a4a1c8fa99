// Package catalog serves the simple reference entities (disease types,
// usage instructions, settings) through the generic repository. Each
// resource declares its fields once; storage and HTTP handling are shared.
package catalog

import (
	"context"
	"fmt"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/repository"
)

// Field describes one writable column of a resource.
type Field struct {
	Name     string
	Required bool
}

// DeleteGuard blocks deletion while other rows still reference the entity.
type DeleteGuard func(ctx context.Context, db repository.Querier, id int64) error

// Resource is a catalog entity backed by the generic repository.
type Resource struct {
	Label   string
	OrderBy string
	Fields  []Field

	repo  *repository.Repo
	db    repository.Querier
	guard DeleteGuard
}

// NewResource binds a resource definition to a table.
func NewResource(label, table, orderBy string, fields []Field, guard DeleteGuard, db repository.Querier) *Resource {
	return &Resource{
		Label:   label,
		OrderBy: orderBy,
		Fields:  fields,
		repo:    repository.New(table, db),
		db:      db,
		guard:   guard,
	}
}

// DiseaseTypes is the disease classification catalog.
func DiseaseTypes(db repository.Querier) *Resource {
	return NewResource("disease type", "disease_types", "name", []Field{
		{Name: "name", Required: true},
		{Name: "description"},
	}, nil, db)
}

// UsageInstructions is the prescription usage-instruction catalog. Entries
// referenced by prescriptions cannot be deleted.
func UsageInstructions(db repository.Querier) *Resource {
	return NewResource("usage instruction", "usage_instructions", "instruction", []Field{
		{Name: "instruction", Required: true},
	}, ReferenceGuard("prescriptions", "usage_instruction_id"), db)
}

// ReferenceGuard returns a DeleteGuard rejecting deletion while any row in
// table still points at the entity through column.
func ReferenceGuard(table, column string) DeleteGuard {
	return func(ctx context.Context, db repository.Querier, id int64) error {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = $1", table, column)
		if err := db.QueryRow(ctx, query, id).Scan(&count); err != nil {
			return fmt.Errorf("catalog: reference check %s: %w", table, err)
		}
		if count > 0 {
			return apperror.Conflict(fmt.Sprintf("entity is still referenced by %d %s row(s)", count, table))
		}
		return nil
	}
}

func (r *Resource) validate(data map[string]any, requireAll bool) []apperror.FieldError {
	var errs []apperror.FieldError
	for _, f := range r.Fields {
		v, present := data[f.Name]
		if !present || v == nil || v == "" {
			if f.Required && requireAll {
				errs = append(errs, apperror.FieldError{Field: f.Name, Message: f.Name + " is required"})
			}
			continue
		}
	}
	return errs
}

// pick keeps only declared columns from the request body.
func (r *Resource) pick(data map[string]any) map[string]any {
	out := map[string]any{}
	for _, f := range r.Fields {
		if v, ok := data[f.Name]; ok && v != nil {
			out[f.Name] = v
		}
	}
	return out
}

// List returns all rows in the resource's natural order.
func (r *Resource) List(ctx context.Context) ([]map[string]any, error) {
	return r.repo.FindAll(ctx, repository.FindOptions{OrderBy: r.OrderBy})
}

// Get returns the row or a not-found error.
func (r *Resource) Get(ctx context.Context, id int64) (map[string]any, error) {
	row, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperror.NotFound(r.Label + " not found")
	}
	return row, nil
}

// Create validates and inserts a row.
func (r *Resource) Create(ctx context.Context, data map[string]any) (map[string]any, error) {
	data = r.pick(data)
	if errs := r.validate(data, true); len(errs) > 0 {
		return nil, apperror.Validation("invalid "+r.Label+" data", errs...)
	}
	row, err := r.repo.Create(ctx, data)
	if err != nil {
		return nil, repository.TranslateConstraint(err)
	}
	return row, nil
}

// Update validates and applies the given columns.
func (r *Resource) Update(ctx context.Context, id int64, data map[string]any) (map[string]any, error) {
	data = r.pick(data)
	if errs := r.validate(data, false); len(errs) > 0 {
		return nil, apperror.Validation("invalid "+r.Label+" data", errs...)
	}
	row, err := r.repo.Update(ctx, id, data)
	if err != nil {
		return nil, repository.TranslateConstraint(err)
	}
	if row == nil {
		return nil, apperror.NotFound(r.Label + " not found")
	}
	return row, nil
}

// Delete removes the row after the guard clears it.
func (r *Resource) Delete(ctx context.Context, id int64) error {
	if r.guard != nil {
		if err := r.guard(ctx, r.db, id); err != nil {
			return err
		}
	}
	removed, err := r.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound(r.Label + " not found")
	}
	return nil
}
