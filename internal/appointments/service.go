package appointments

import (
	"context"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/pagination"
	"github.com/clinicdesk/clinic-backend/pkg/logging"
)

// Storer is the persistence surface the service depends on.
type Storer interface {
	Create(ctx context.Context, appt *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	Update(ctx context.Context, appt *Appointment, checkConflict bool) (*Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status Status, notes *string) (*Appointment, error)
	Delete(ctx context.Context, id int64) (bool, error)
	GetByDate(ctx context.Context, date string) ([]WithPatient, error)
	Search(ctx context.Context, criteria SearchCriteria, limit, offset int) ([]WithPatient, error)
	CountSearch(ctx context.Context, criteria SearchCriteria) (int64, error)
}

// Service owns the appointment scheduling rules: slot conflicts, per-day
// order numbers, and the status lifecycle.
type Service struct {
	store  Storer
	logger *logging.Logger
}

// NewService creates the scheduler service.
func NewService(store Storer, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger}
}

// Create validates the payload and persists a new appointment. The status
// defaults to PENDING; the order number is assigned by the store.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if errs := ValidateCreate(req); len(errs) > 0 {
		return nil, apperror.Validation("invalid appointment data", errs...)
	}

	status := Status(req.Status)
	if status == "" {
		status = StatusPending
	}

	appt, err := s.store.Create(ctx, &Appointment{
		PatientID: req.PatientID,
		StaffID:   req.StaffID,
		Date:      req.Date,
		TimeSlot:  req.TimeSlot,
		Reason:    req.Reason,
		Status:    status,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("appointment created",
		"id", appt.ID,
		"date", appt.Date,
		"order_number", appt.OrderNumber,
	)
	return appt, nil
}

// Get returns the appointment or a not-found error.
func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, apperror.NotFound("appointment not found")
	}
	return appt, nil
}

// Update merges the partial payload into the existing appointment. When the
// date, time slot, or doctor changes, the slot-conflict check is re-run
// against the new tuple excluding this appointment.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Appointment, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if errs := ValidateUpdate(req); len(errs) > 0 {
		return nil, apperror.Validation("invalid appointment data", errs...)
	}

	merged := *existing
	if req.PatientID != nil {
		merged.PatientID = *req.PatientID
	}
	if req.StaffID != nil {
		merged.StaffID = *req.StaffID
	}
	if req.Date != nil {
		merged.Date = *req.Date
	}
	if req.TimeSlot != nil {
		merged.TimeSlot = *req.TimeSlot
	}
	if req.Reason != nil {
		merged.Reason = *req.Reason
	}
	if req.Notes != nil {
		merged.Notes = *req.Notes
	}

	checkConflict := merged.Date != existing.Date ||
		merged.TimeSlot != existing.TimeSlot ||
		merged.StaffID != existing.StaffID

	updated, err := s.store.Update(ctx, &merged, checkConflict)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.NotFound("appointment not found")
	}
	return updated, nil
}

// UpdateStatus applies a lifecycle transition. Invalid statuses and moves
// out of a terminal state are rejected before any write.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req StatusRequest) (*Appointment, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := Status(req.Status)
	if !next.Valid() {
		return nil, apperror.Validation("invalid status",
			apperror.FieldError{Field: "status", Message: "status is not a valid appointment status"})
	}
	if next != existing.Status && !existing.Status.CanTransitionTo(next) {
		return nil, apperror.Validation("invalid status transition",
			apperror.FieldError{
				Field:   "status",
				Message: "cannot change status from " + string(existing.Status) + " to " + string(next),
			})
	}
	if req.Notes != nil && len(*req.Notes) > maxNotesLen {
		return nil, apperror.Validation("invalid status data",
			apperror.FieldError{Field: "notes", Message: "notes must not exceed 1000 characters"})
	}

	updated, err := s.store.UpdateStatus(ctx, id, next, req.Notes)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.NotFound("appointment not found")
	}
	return updated, nil
}

// Delete removes the appointment, reporting not-found when absent.
func (s *Service) Delete(ctx context.Context, id int64) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NotFound("appointment not found")
	}
	return nil
}

// GetByDate returns the day's queue. The date is validated before any
// database round-trip.
func (s *Service) GetByDate(ctx context.Context, date string) ([]WithPatient, error) {
	if !ValidDate(date) {
		return nil, apperror.Validation("invalid date",
			apperror.FieldError{Field: "date", Message: "date must be a valid YYYY-MM-DD date"})
	}
	return s.store.GetByDate(ctx, date)
}

// Search validates and normalizes the criteria, then issues the page query
// and the count query with the identical filter set so totals always agree
// with page contents.
func (s *Service) Search(ctx context.Context, criteria SearchCriteria, page, limit int) (pagination.Page[WithPatient], error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 10
	}
	if errs := ValidateSearch(criteria, page, limit); len(errs) > 0 {
		return pagination.Page[WithPatient]{}, apperror.Validation("invalid search criteria", errs...)
	}

	offset := pagination.Offset(page, limit)
	data, err := s.store.Search(ctx, criteria, limit, offset)
	if err != nil {
		return pagination.Page[WithPatient]{}, err
	}
	total, err := s.store.CountSearch(ctx, criteria)
	if err != nil {
		return pagination.Page[WithPatient]{}, err
	}
	return pagination.New(data, total, page, limit), nil
}
