// Package medicines manages the medicine catalog, including stock levels
// and the prescription reference guard on deletion.
package medicines

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/repository"
	"github.com/clinicdesk/clinic-backend/pkg/logging"
)

// CreateRequest is the payload for adding a medicine.
type CreateRequest struct {
	Name            string  `json:"name"`
	Unit            string  `json:"unit"`
	Price           float64 `json:"price"`
	QuantityInStock int     `json:"quantity_in_stock"`
	Description     string  `json:"description"`
}

// StockRequest is the payload for PATCH /{id}/stock.
type StockRequest struct {
	QuantityInStock *int `json:"quantity_in_stock"`
}

// Service owns the medicine catalog rules.
type Service struct {
	repo   *repository.Repo
	db     repository.Querier
	logger *logging.Logger
}

// NewService creates the medicine service.
func NewService(db repository.Querier, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repository.New("medicines", db), db: db, logger: logger}
}

func validate(req CreateRequest) []apperror.FieldError {
	var errs []apperror.FieldError
	if req.Name == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "name is required"})
	}
	if req.Unit == "" {
		errs = append(errs, apperror.FieldError{Field: "unit", Message: "unit is required"})
	}
	if req.Price < 0 {
		errs = append(errs, apperror.FieldError{Field: "price", Message: "price must not be negative"})
	}
	if req.QuantityInStock < 0 {
		errs = append(errs, apperror.FieldError{Field: "quantity_in_stock", Message: "quantity_in_stock must not be negative"})
	}
	return errs
}

// List returns medicines ordered by name, optionally filtered by a name
// fragment.
func (s *Service) List(ctx context.Context, name string) ([]map[string]any, error) {
	if name == "" {
		return s.repo.FindAll(ctx, repository.FindOptions{OrderBy: "name"})
	}
	rows, err := s.db.Query(ctx, `
		SELECT * FROM medicines
		WHERE name ILIKE $1
		ORDER BY name`,
		"%"+name+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("medicines: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("medicines: collect list: %w", err)
	}
	return out, nil
}

// Get returns the medicine or a not-found error.
func (s *Service) Get(ctx context.Context, id int64) (map[string]any, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperror.NotFound("medicine not found")
	}
	return row, nil
}

// Create validates and adds a medicine.
func (s *Service) Create(ctx context.Context, req CreateRequest) (map[string]any, error) {
	if errs := validate(req); len(errs) > 0 {
		return nil, apperror.Validation("invalid medicine data", errs...)
	}
	row, err := s.repo.Create(ctx, map[string]any{
		"name":              req.Name,
		"unit":              req.Unit,
		"price":             req.Price,
		"quantity_in_stock": req.QuantityInStock,
		"description":       req.Description,
	})
	if err != nil {
		return nil, repository.TranslateConstraint(err)
	}
	s.logger.Info("medicine created", "id", row["id"], "name", req.Name)
	return row, nil
}

// Update replaces the medicine's catalog fields.
func (s *Service) Update(ctx context.Context, id int64, req CreateRequest) (map[string]any, error) {
	if errs := validate(req); len(errs) > 0 {
		return nil, apperror.Validation("invalid medicine data", errs...)
	}
	row, err := s.repo.Update(ctx, id, map[string]any{
		"name":              req.Name,
		"unit":              req.Unit,
		"price":             req.Price,
		"quantity_in_stock": req.QuantityInStock,
		"description":       req.Description,
	})
	if err != nil {
		return nil, repository.TranslateConstraint(err)
	}
	if row == nil {
		return nil, apperror.NotFound("medicine not found")
	}
	return row, nil
}

// UpdateStock sets the stock level only.
func (s *Service) UpdateStock(ctx context.Context, id int64, req StockRequest) (map[string]any, error) {
	if req.QuantityInStock == nil {
		return nil, apperror.Validation("invalid stock data",
			apperror.FieldError{Field: "quantity_in_stock", Message: "quantity_in_stock is required"})
	}
	if *req.QuantityInStock < 0 {
		return nil, apperror.Validation("invalid stock data",
			apperror.FieldError{Field: "quantity_in_stock", Message: "quantity_in_stock must not be negative"})
	}
	row, err := s.repo.Update(ctx, id, map[string]any{"quantity_in_stock": *req.QuantityInStock})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperror.NotFound("medicine not found")
	}
	return row, nil
}

// Delete removes a medicine unless prescriptions still reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var count int64
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE medicine_id = $1`, id,
	).Scan(&count); err != nil {
		return fmt.Errorf("medicines: reference check: %w", err)
	}
	if count > 0 {
		return apperror.Conflict("medicine is still referenced by prescriptions")
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound("medicine not found")
	}
	return nil
}
