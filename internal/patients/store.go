package patients

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/clinic-backend/internal/repository"
)

// Store persists patients through the generic repository, with hand-built
// queries for the joins the repository cannot express.
type Store struct {
	repo *repository.Repo
	db   repository.Querier
}

// NewStore creates a patient store.
func NewStore(db repository.Querier) *Store {
	return &Store{repo: repository.New("patients", db), db: db}
}

// List returns a page of patients.
func (s *Store) List(ctx context.Context, opts repository.FindOptions) ([]map[string]any, error) {
	return s.repo.FindAll(ctx, opts)
}

// Count returns the total number of patients.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, nil)
}

// Get returns the patient row or nil when absent.
func (s *Store) Get(ctx context.Context, id int64) (map[string]any, error) {
	return s.repo.FindByID(ctx, id)
}

// Create inserts a patient.
func (s *Store) Create(ctx context.Context, data map[string]any) (map[string]any, error) {
	return s.repo.Create(ctx, data)
}

// Update applies the column map to the patient row.
func (s *Store) Update(ctx context.Context, id int64, data map[string]any) (map[string]any, error) {
	return s.repo.Update(ctx, id, data)
}

// Delete removes the patient row.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// SearchByName returns patients whose name contains the fragment, ordered by
// name.
func (s *Store) SearchByName(ctx context.Context, name string, limit int) ([]map[string]any, error) {
	rows, err := s.db.Query(ctx, `
		SELECT * FROM patients
		WHERE full_name ILIKE $1
		ORDER BY full_name
		LIMIT $2`,
		"%"+name+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("patients: search by name: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("patients: collect search: %w", err)
	}
	return out, nil
}

// MedicalHistory returns the patient's medical records joined with disease
// and doctor names, newest examination first.
func (s *Store) MedicalHistory(ctx context.Context, patientID int64) ([]map[string]any, error) {
	rows, err := s.db.Query(ctx, `
		SELECT mr.*, dt.name AS disease_name, s.full_name AS doctor_name
		FROM medical_records mr
		LEFT JOIN disease_types dt ON mr.disease_type_id = dt.id
		LEFT JOIN staff s ON mr.staff_id = s.id
		WHERE mr.patient_id = $1
		ORDER BY mr.examination_date DESC`,
		patientID,
	)
	if err != nil {
		return nil, fmt.Errorf("patients: medical history: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("patients: collect history: %w", err)
	}
	return out, nil
}

// Appointments returns the patient's appointments, newest date first.
func (s *Store) Appointments(ctx context.Context, patientID int64) ([]map[string]any, error) {
	rows, err := s.db.Query(ctx, `
		SELECT * FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_date DESC, order_number`,
		patientID,
	)
	if err != nil {
		return nil, fmt.Errorf("patients: appointments: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("patients: collect appointments: %w", err)
	}
	return out, nil
}
