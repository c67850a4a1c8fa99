package medicalrecords

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/clinic-backend/internal/repository"
	"github.com/clinicdesk/clinic-backend/internal/sqlbuilder"
)

// Store persists medical records and their prescription lines. Simple CRUD
// goes through the generic repository; searches and joins are hand-built.
type Store struct {
	records       *repository.Repo
	prescriptions *repository.Repo
	db            repository.Querier
}

// NewStore creates a medical record store.
func NewStore(db repository.Querier) *Store {
	return &Store{
		records:       repository.New("medical_records", db),
		prescriptions: repository.New("prescriptions", db),
		db:            db,
	}
}

// Get returns the bare record row or nil when absent.
func (s *Store) Get(ctx context.Context, id int64) (map[string]any, error) {
	return s.records.FindByID(ctx, id)
}

// Create inserts a record.
func (s *Store) Create(ctx context.Context, data map[string]any) (map[string]any, error) {
	row, err := s.records.Create(ctx, data)
	if err != nil {
		return nil, repository.TranslateConstraint(err)
	}
	return row, nil
}

// Update applies the column map to the record row.
func (s *Store) Update(ctx context.Context, id int64, data map[string]any) (map[string]any, error) {
	row, err := s.records.Update(ctx, id, data)
	if err != nil {
		return nil, repository.TranslateConstraint(err)
	}
	return row, nil
}

// Delete removes the record row.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	return s.records.Delete(ctx, id)
}

// Detail returns the record joined with patient, doctor, and disease names,
// or nil when absent.
func (s *Store) Detail(ctx context.Context, id int64) (map[string]any, error) {
	rows, err := s.db.Query(ctx, `
		SELECT mr.*,
		       p.full_name AS patient_name,
		       s.full_name AS doctor_name,
		       dt.name AS disease_name
		FROM medical_records mr
		LEFT JOIN patients p ON mr.patient_id = p.id
		LEFT JOIN staff s ON mr.staff_id = s.id
		LEFT JOIN disease_types dt ON mr.disease_type_id = dt.id
		WHERE mr.id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("medicalrecords: detail: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("medicalrecords: collect detail: %w", err)
	}
	return row, nil
}

const searchFrom = `
	FROM medical_records mr
	LEFT JOIN patients p ON mr.patient_id = p.id
	LEFT JOIN staff s ON mr.staff_id = s.id
	LEFT JOIN disease_types dt ON mr.disease_type_id = dt.id
	`

// searchWhere renders the shared predicate set. The equality and range
// filters go through the criteria builder; the keyword OR group is appended
// by hand because it spans joined columns.
func searchWhere(c SearchCriteria, startIndex int) (string, []any, int) {
	criteria := sqlbuilder.Criteria{}
	if c.PatientID > 0 {
		criteria["mr.patient_id"] = c.PatientID
	}
	if c.StaffID > 0 {
		criteria["mr.staff_id"] = c.StaffID
	}
	if c.DiseaseTypeID > 0 {
		criteria["mr.disease_type_id"] = c.DiseaseTypeID
	}
	if c.StartDate != "" || c.EndDate != "" {
		cond := sqlbuilder.Condition{}
		if c.StartDate != "" {
			cond.Gte = c.StartDate
		}
		if c.EndDate != "" {
			cond.Lte = c.EndDate
		}
		criteria["mr.examination_date"] = cond
	}

	where, params, idx := sqlbuilder.BuildWhere(criteria, "", startIndex)
	if c.Keyword != "" {
		where += fmt.Sprintf(
			" AND (p.full_name ILIKE $%d OR mr.symptoms ILIKE $%d OR mr.diagnosis ILIKE $%d OR dt.name ILIKE $%d)",
			idx, idx, idx, idx,
		)
		params = append(params, "%"+c.Keyword+"%")
		idx++
	}
	return where, params, idx
}

// Search returns a page of records matching the criteria, newest examination
// first.
func (s *Store) Search(ctx context.Context, criteria SearchCriteria, limit, page int) ([]map[string]any, error) {
	where, params, idx := searchWhere(criteria, 1)
	paging, pagingParams, _ := sqlbuilder.BuildPagination(limit, page, idx)
	params = append(params, pagingParams...)

	query := `
		SELECT mr.*,
		       p.full_name AS patient_name,
		       s.full_name AS doctor_name,
		       dt.name AS disease_name` +
		searchFrom + where + `
		` + sqlbuilder.BuildOrderBy("mr.examination_date DESC") + `
		` + paging

	rows, err := s.db.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("medicalrecords: search: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("medicalrecords: collect search: %w", err)
	}
	return out, nil
}

// CountSearch counts the rows matching the criteria with the identical
// predicate set as Search.
func (s *Store) CountSearch(ctx context.Context, criteria SearchCriteria) (int64, error) {
	where, params, _ := searchWhere(criteria, 1)
	query := `SELECT COUNT(*)` + searchFrom + where

	var total int64
	if err := s.db.QueryRow(ctx, query, params...).Scan(&total); err != nil {
		return 0, fmt.Errorf("medicalrecords: count search: %w", err)
	}
	return total, nil
}

// Prescriptions returns the record's prescription lines joined with medicine
// and usage-instruction details.
func (s *Store) Prescriptions(ctx context.Context, recordID int64) ([]map[string]any, error) {
	rows, err := s.db.Query(ctx, `
		SELECT pr.*,
		       m.name AS medicine_name,
		       m.unit AS medicine_unit,
		       m.price AS medicine_price,
		       ui.instruction AS usage_instruction
		FROM prescriptions pr
		JOIN medicines m ON pr.medicine_id = m.id
		JOIN usage_instructions ui ON pr.usage_instruction_id = ui.id
		WHERE pr.medical_record_id = $1
		ORDER BY pr.id`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("medicalrecords: prescriptions: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("medicalrecords: collect prescriptions: %w", err)
	}
	return out, nil
}

// CreatePrescription adds a prescription line to a record.
func (s *Store) CreatePrescription(ctx context.Context, data map[string]any) (map[string]any, error) {
	row, err := s.prescriptions.Create(ctx, data)
	if err != nil {
		return nil, repository.TranslateConstraint(err)
	}
	return row, nil
}

// UpdatePrescription applies the column map to a prescription line.
func (s *Store) UpdatePrescription(ctx context.Context, id int64, data map[string]any) (map[string]any, error) {
	row, err := s.prescriptions.Update(ctx, id, data)
	if err != nil {
		return nil, repository.TranslateConstraint(err)
	}
	return row, nil
}

// DeletePrescription removes a prescription line.
func (s *Store) DeletePrescription(ctx context.Context, id int64) (bool, error) {
	return s.prescriptions.Delete(ctx, id)
}

// Invoice returns the record's invoice row, or nil when no invoice exists
// yet.
func (s *Store) Invoice(ctx context.Context, recordID int64) (map[string]any, error) {
	rows, err := s.db.Query(ctx,
		`SELECT * FROM invoices WHERE medical_record_id = $1`, recordID)
	if err != nil {
		return nil, fmt.Errorf("medicalrecords: invoice: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("medicalrecords: collect invoice: %w", err)
	}
	return row, nil
}
