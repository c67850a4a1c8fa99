package patients

import (
	"context"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/pagination"
	"github.com/clinicdesk/clinic-backend/internal/repository"
	"github.com/clinicdesk/clinic-backend/pkg/logging"
)

// Storer is the persistence surface the service depends on.
type Storer interface {
	List(ctx context.Context, opts repository.FindOptions) ([]map[string]any, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (map[string]any, error)
	Create(ctx context.Context, data map[string]any) (map[string]any, error)
	Update(ctx context.Context, id int64, data map[string]any) (map[string]any, error)
	Delete(ctx context.Context, id int64) (bool, error)
	SearchByName(ctx context.Context, name string, limit int) ([]map[string]any, error)
	MedicalHistory(ctx context.Context, patientID int64) ([]map[string]any, error)
	Appointments(ctx context.Context, patientID int64) ([]map[string]any, error)
}

// Service owns patient business rules.
type Service struct {
	store  Storer
	logger *logging.Logger
}

// NewService creates the patient service.
func NewService(store Storer, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger}
}

// ListResult is either a name-search result or a full page with totals.
type ListResult struct {
	Data       []map[string]any       `json:"data"`
	Pagination *pagination.Pagination `json:"pagination,omitempty"`
}

// List returns patients. When a name fragment is given the result is a plain
// name search capped at the page limit; otherwise a counted page.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}
	if params.Limit > 100 {
		return ListResult{}, apperror.Validation("invalid list parameters",
			apperror.FieldError{Field: "limit", Message: "limit must be between 1 and 100"})
	}

	if params.Name != "" {
		data, err := s.store.SearchByName(ctx, params.Name, params.Limit)
		if err != nil {
			return ListResult{}, err
		}
		if data == nil {
			data = []map[string]any{}
		}
		return ListResult{Data: data}, nil
	}

	data, err := s.store.List(ctx, repository.FindOptions{
		Limit:   params.Limit,
		Offset:  pagination.Offset(params.Page, params.Limit),
		OrderBy: params.SortBy,
		Order:   params.Order,
	})
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return ListResult{}, err
	}
	page := pagination.New(data, total, params.Page, params.Limit)
	return ListResult{Data: page.Data, Pagination: &page.Pagination}, nil
}

// Get returns the patient or a not-found error.
func (s *Service) Get(ctx context.Context, id int64) (map[string]any, error) {
	patient, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, apperror.NotFound("patient not found")
	}
	return patient, nil
}

// Create validates and registers a patient.
func (s *Service) Create(ctx context.Context, req CreateRequest) (map[string]any, error) {
	if errs := ValidateCreate(req); len(errs) > 0 {
		return nil, apperror.Validation("invalid patient data", errs...)
	}
	created, err := s.store.Create(ctx, map[string]any{
		"full_name":  req.FullName,
		"gender":     req.Gender,
		"birth_year": req.BirthYear,
		"phone":      req.Phone,
		"address":    req.Address,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("patient created", "id", created["id"])
	return created, nil
}

// Update applies a partial update after confirming the patient exists.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (map[string]any, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if errs := ValidateUpdate(req); len(errs) > 0 {
		return nil, apperror.Validation("invalid patient data", errs...)
	}
	updated, err := s.store.Update(ctx, id, req.columns())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.NotFound("patient not found")
	}
	return updated, nil
}

// Delete removes the patient, reporting not-found when absent.
func (s *Service) Delete(ctx context.Context, id int64) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound("patient not found")
	}
	return nil
}

// MedicalHistory returns the patient's examination history.
func (s *Service) MedicalHistory(ctx context.Context, id int64) ([]map[string]any, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.MedicalHistory(ctx, id)
}

// Appointments returns the patient's appointment history.
func (s *Service) Appointments(ctx context.Context, id int64) ([]map[string]any, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Appointments(ctx, id)
}
