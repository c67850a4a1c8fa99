package invoices

import (
	"context"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/pkg/logging"
)

// Invoice statuses.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// Filter narrows the invoice list.
type Filter struct {
	Date      string
	PatientID int64
	Status    string
}

// CreateRequest is the payload for issuing an invoice.
type CreateRequest struct {
	MedicalRecordID int64 `json:"medical_record_id"`
}

// StatusRequest is the payload for settling or voiding an invoice.
type StatusRequest struct {
	Status string `json:"status"`
}

// Storer is the persistence surface the service depends on.
type Storer interface {
	List(ctx context.Context, f Filter) ([]map[string]any, error)
	Detail(ctx context.Context, id int64) (map[string]any, error)
	Create(ctx context.Context, medicalRecordID int64, defaultExamFee int64) (map[string]any, error)
	UpdateStatus(ctx context.Context, id int64, status string) (map[string]any, error)
}

// Service owns invoice rules: fee computation on creation and the payment
// status lifecycle.
type Service struct {
	store          Storer
	defaultExamFee int64
	logger         *logging.Logger
}

// NewService creates the invoice service. defaultExamFee applies when the
// settings table has no examination_fee entry.
func NewService(store Storer, defaultExamFee int64, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, defaultExamFee: defaultExamFee, logger: logger}
}

func validStatus(s string) bool {
	return s == StatusPending || s == StatusPaid || s == StatusCancelled
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]map[string]any, error) {
	if f.Status != "" && !validStatus(f.Status) {
		return nil, apperror.Validation("invalid filter",
			apperror.FieldError{Field: "status", Message: "status must be one of pending, paid, cancelled"})
	}
	return s.store.List(ctx, f)
}

// Detail returns the invoice with its medicine lines or a not-found error.
func (s *Service) Detail(ctx context.Context, id int64) (map[string]any, error) {
	invoice, err := s.store.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NotFound("invoice not found")
	}
	return invoice, nil
}

// Create issues an invoice for a medical record.
func (s *Service) Create(ctx context.Context, req CreateRequest) (map[string]any, error) {
	if req.MedicalRecordID <= 0 {
		return nil, apperror.Validation("invalid invoice data",
			apperror.FieldError{Field: "medical_record_id", Message: "medical_record_id is required and must be positive"})
	}
	invoice, err := s.store.Create(ctx, req.MedicalRecordID, s.defaultExamFee)
	if err != nil {
		return nil, err
	}
	s.logger.Info("invoice created",
		"id", invoice["id"],
		"medical_record_id", req.MedicalRecordID,
		"total_fee", invoice["total_fee"],
	)
	return invoice, nil
}

// UpdateStatus settles or voids the invoice.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req StatusRequest) (map[string]any, error) {
	if !validStatus(req.Status) {
		return nil, apperror.Validation("invalid status",
			apperror.FieldError{Field: "status", Message: "status must be one of pending, paid, cancelled"})
	}
	invoice, err := s.store.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NotFound("invoice not found")
	}
	return invoice, nil
}
