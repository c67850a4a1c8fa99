package medicalrecords

import (
	"context"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/pagination"
	"github.com/clinicdesk/clinic-backend/pkg/logging"
)

// Storer is the persistence surface the service depends on.
type Storer interface {
	Get(ctx context.Context, id int64) (map[string]any, error)
	Create(ctx context.Context, data map[string]any) (map[string]any, error)
	Update(ctx context.Context, id int64, data map[string]any) (map[string]any, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Detail(ctx context.Context, id int64) (map[string]any, error)
	Search(ctx context.Context, criteria SearchCriteria, limit, page int) ([]map[string]any, error)
	CountSearch(ctx context.Context, criteria SearchCriteria) (int64, error)
	Prescriptions(ctx context.Context, recordID int64) ([]map[string]any, error)
	CreatePrescription(ctx context.Context, data map[string]any) (map[string]any, error)
	UpdatePrescription(ctx context.Context, id int64, data map[string]any) (map[string]any, error)
	DeletePrescription(ctx context.Context, id int64) (bool, error)
	Invoice(ctx context.Context, recordID int64) (map[string]any, error)
}

// Service owns medical record business rules.
type Service struct {
	store  Storer
	logger *logging.Logger
}

// NewService creates the medical record service.
func NewService(store Storer, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger}
}

// Search validates the criteria and returns a counted page. Search and
// CountSearch see the same normalized criteria so totals always agree.
func (s *Service) Search(ctx context.Context, criteria SearchCriteria, page, limit int) (pagination.Page[map[string]any], error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 10
	}
	if errs := ValidateSearch(criteria, page, limit); len(errs) > 0 {
		return pagination.Page[map[string]any]{}, apperror.Validation("invalid search criteria", errs...)
	}

	data, err := s.store.Search(ctx, criteria, limit, page)
	if err != nil {
		return pagination.Page[map[string]any]{}, err
	}
	total, err := s.store.CountSearch(ctx, criteria)
	if err != nil {
		return pagination.Page[map[string]any]{}, err
	}
	return pagination.New(data, total, page, limit), nil
}

// Detail returns the record with joined display fields or a not-found error.
func (s *Service) Detail(ctx context.Context, id int64) (map[string]any, error) {
	record, err := s.store.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperror.NotFound("medical record not found")
	}
	return record, nil
}

// Create validates and opens a medical record.
func (s *Service) Create(ctx context.Context, req CreateRequest) (map[string]any, error) {
	if errs := ValidateCreate(req); len(errs) > 0 {
		return nil, apperror.Validation("invalid medical record data", errs...)
	}
	created, err := s.store.Create(ctx, req.columns())
	if err != nil {
		return nil, err
	}
	s.logger.Info("medical record created", "id", created["id"], "patient_id", req.PatientID)
	return created, nil
}

// Update applies a partial update after confirming the record exists.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (map[string]any, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.NotFound("medical record not found")
	}
	if errs := ValidateUpdate(req); len(errs) > 0 {
		return nil, apperror.Validation("invalid medical record data", errs...)
	}
	updated, err := s.store.Update(ctx, id, req.columns())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.NotFound("medical record not found")
	}
	return updated, nil
}

// Delete removes the record, reporting not-found when absent.
func (s *Service) Delete(ctx context.Context, id int64) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound("medical record not found")
	}
	return nil
}

// Prescriptions returns the record's prescription lines.
func (s *Service) Prescriptions(ctx context.Context, recordID int64) ([]map[string]any, error) {
	if err := s.mustExist(ctx, recordID); err != nil {
		return nil, err
	}
	return s.store.Prescriptions(ctx, recordID)
}

// AddPrescription validates and adds a prescription line to the record.
func (s *Service) AddPrescription(ctx context.Context, recordID int64, req PrescriptionRequest) (map[string]any, error) {
	if err := s.mustExist(ctx, recordID); err != nil {
		return nil, err
	}
	if errs := ValidatePrescription(req); len(errs) > 0 {
		return nil, apperror.Validation("invalid prescription data", errs...)
	}
	return s.store.CreatePrescription(ctx, map[string]any{
		"medical_record_id":    recordID,
		"medicine_id":          req.MedicineID,
		"usage_instruction_id": req.UsageInstructionID,
		"quantity":             req.Quantity,
		"notes":                req.Notes,
	})
}

// UpdatePrescription validates and changes a prescription line.
func (s *Service) UpdatePrescription(ctx context.Context, id int64, req PrescriptionRequest) (map[string]any, error) {
	if errs := ValidatePrescription(req); len(errs) > 0 {
		return nil, apperror.Validation("invalid prescription data", errs...)
	}
	updated, err := s.store.UpdatePrescription(ctx, id, map[string]any{
		"medicine_id":          req.MedicineID,
		"usage_instruction_id": req.UsageInstructionID,
		"quantity":             req.Quantity,
		"notes":                req.Notes,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.NotFound("prescription not found")
	}
	return updated, nil
}

// DeletePrescription removes a prescription line.
func (s *Service) DeletePrescription(ctx context.Context, id int64) error {
	removed, err := s.store.DeletePrescription(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound("prescription not found")
	}
	return nil
}

// Invoice returns the record's invoice, or nil when none exists yet.
func (s *Service) Invoice(ctx context.Context, recordID int64) (map[string]any, error) {
	if err := s.mustExist(ctx, recordID); err != nil {
		return nil, err
	}
	return s.store.Invoice(ctx, recordID)
}

func (s *Service) mustExist(ctx context.Context, id int64) error {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return apperror.NotFound("medical record not found")
	}
	return nil
}
