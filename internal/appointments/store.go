package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/repository"
)

// PgxPool is the pool surface the store needs; pgxmock satisfies it.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists appointments in Postgres.
type Store struct {
	pool PgxPool
}

// NewStore creates a store backed by a pgx pool.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Store{pool: pool}
}

const apptColumns = `id, patient_id, staff_id, to_char(appointment_date, 'YYYY-MM-DD'), time_slot, order_number, reason, status, COALESCE(notes, ''), created_at, updated_at`

const conflictQuery = `
	SELECT id FROM appointments
	WHERE staff_id = $1 AND appointment_date = $2 AND time_slot = $3 AND status <> 'CANCELLED'
	LIMIT 1
`

const conflictQueryExcluding = `
	SELECT id FROM appointments
	WHERE staff_id = $1 AND appointment_date = $2 AND time_slot = $3 AND status <> 'CANCELLED' AND id <> $4
	LIMIT 1
`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	if err := row.Scan(
		&a.ID, &a.PatientID, &a.StaffID, &a.Date, &a.TimeSlot,
		&a.OrderNumber, &a.Reason, &status, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}

// Create inserts a new appointment. The slot-conflict check and the per-day
// order-number assignment run inside one serializable transaction so two
// concurrent creations for the same slot cannot both pass the check; the
// partial unique index backs this up and its violation is reported as a
// conflict.
func (s *Store) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("appointments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var conflictID int64
	err = tx.QueryRow(ctx, conflictQuery, appt.StaffID, appt.Date, appt.TimeSlot).Scan(&conflictID)
	if err == nil {
		return nil, apperror.Conflict("the doctor already has an appointment in this time slot")
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("appointments: conflict check: %w", err)
	}

	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_number), 0) + 1 FROM appointments WHERE appointment_date = $1`,
		appt.Date,
	).Scan(&appt.OrderNumber); err != nil {
		return nil, fmt.Errorf("appointments: next order number: %w", err)
	}

	created, err := scanAppointment(tx.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, staff_id, appointment_date, time_slot, order_number, reason, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING `+apptColumns,
		appt.PatientID, appt.StaffID, appt.Date, appt.TimeSlot,
		appt.OrderNumber, appt.Reason, string(appt.Status), appt.Notes,
	))
	if err != nil {
		return nil, repository.TranslateConstraint(fmt.Errorf("appointments: insert: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, repository.TranslateConstraint(fmt.Errorf("appointments: commit: %w", err))
	}
	return created, nil
}

// GetByID returns the appointment or nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	appt, err := scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: select by id: %w", err)
	}
	return appt, nil
}

// Update persists the merged appointment. When checkConflict is set the
// slot-conflict check is re-run against the new tuple, excluding the row
// itself, inside the same transaction as the write.
func (s *Store) Update(ctx context.Context, appt *Appointment, checkConflict bool) (*Appointment, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("appointments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if checkConflict {
		var conflictID int64
		err = tx.QueryRow(ctx, conflictQueryExcluding, appt.StaffID, appt.Date, appt.TimeSlot, appt.ID).Scan(&conflictID)
		if err == nil {
			return nil, apperror.Conflict("the doctor already has an appointment in this time slot")
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("appointments: conflict check: %w", err)
		}
	}

	updated, err := scanAppointment(tx.QueryRow(ctx, `
		UPDATE appointments
		SET patient_id = $1, staff_id = $2, appointment_date = $3, time_slot = $4,
		    reason = $5, notes = NULLIF($6, ''), updated_at = CURRENT_TIMESTAMP
		WHERE id = $7
		RETURNING `+apptColumns,
		appt.PatientID, appt.StaffID, appt.Date, appt.TimeSlot,
		appt.Reason, appt.Notes, appt.ID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, repository.TranslateConstraint(fmt.Errorf("appointments: update: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, repository.TranslateConstraint(fmt.Errorf("appointments: commit: %w", err))
	}
	return updated, nil
}

// UpdateStatus persists a status change, optionally replacing notes, and
// returns the updated row or nil when absent.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status Status, notes *string) (*Appointment, error) {
	updated, err := scanAppointment(s.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $1, notes = COALESCE($2, notes), updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
		RETURNING `+apptColumns,
		string(status), notes, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	return updated, nil
}

// Delete removes the appointment and reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("appointments: delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const joinedColumns = `a.id, a.patient_id, a.staff_id, to_char(a.appointment_date, 'YYYY-MM-DD'), a.time_slot, a.order_number, a.reason, a.status, COALESCE(a.notes, ''), a.created_at, a.updated_at, p.full_name, p.gender, p.birth_year, COALESCE(p.phone, '')`

func scanWithPatient(rows pgx.Rows) ([]WithPatient, error) {
	out := []WithPatient{}
	for rows.Next() {
		var r WithPatient
		var status string
		if err := rows.Scan(
			&r.ID, &r.PatientID, &r.StaffID, &r.Date, &r.TimeSlot,
			&r.OrderNumber, &r.Reason, &status, &r.Notes,
			&r.CreatedAt, &r.UpdatedAt,
			&r.PatientName, &r.Gender, &r.BirthYear, &r.Phone,
		); err != nil {
			return nil, err
		}
		r.Status = Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetByDate returns the day's queue ordered by order number, joined with
// patient display fields.
func (s *Store) GetByDate(ctx context.Context, date string) ([]WithPatient, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+joinedColumns+`
		FROM appointments a
		JOIN patients p ON a.patient_id = p.id
		WHERE a.appointment_date = $1
		ORDER BY a.order_number`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("appointments: select by date: %w", err)
	}
	defer rows.Close()
	out, err := scanWithPatient(rows)
	if err != nil {
		return nil, fmt.Errorf("appointments: scan by date: %w", err)
	}
	return out, nil
}

// filterSQL renders the shared predicate fragment for Search and
// CountSearch. Keeping one builder guarantees both queries apply the
// identical filter set.
func filterSQL(c SearchCriteria, idx int) (string, []any, int) {
	clause := ""
	var params []any

	if c.PatientID > 0 {
		clause += fmt.Sprintf(" AND a.patient_id = $%d", idx)
		params = append(params, c.PatientID)
		idx++
	}
	if c.Status != "" {
		clause += fmt.Sprintf(" AND a.status = $%d", idx)
		params = append(params, string(c.Status))
		idx++
	}
	if c.StartDate != "" {
		clause += fmt.Sprintf(" AND a.appointment_date >= $%d", idx)
		params = append(params, c.StartDate)
		idx++
	}
	if c.EndDate != "" {
		clause += fmt.Sprintf(" AND a.appointment_date <= $%d", idx)
		params = append(params, c.EndDate)
		idx++
	}
	if c.Keyword != "" {
		clause += fmt.Sprintf(" AND (p.full_name ILIKE $%d OR p.phone ILIKE $%d OR a.notes ILIKE $%d)", idx, idx, idx)
		params = append(params, "%"+c.Keyword+"%")
		idx++
	}
	return clause, params, idx
}

// Search returns a page of appointments matching the criteria, newest date
// first, then queue order.
func (s *Store) Search(ctx context.Context, criteria SearchCriteria, limit, offset int) ([]WithPatient, error) {
	filter, params, idx := filterSQL(criteria, 1)
	query := `
		SELECT ` + joinedColumns + `
		FROM appointments a
		JOIN patients p ON a.patient_id = p.id
		WHERE 1=1` + filter + fmt.Sprintf(`
		ORDER BY a.appointment_date DESC, a.order_number
		LIMIT $%d OFFSET $%d`, idx, idx+1)
	params = append(params, limit, offset)

	rows, err := s.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("appointments: search: %w", err)
	}
	defer rows.Close()
	out, err := scanWithPatient(rows)
	if err != nil {
		return nil, fmt.Errorf("appointments: scan search: %w", err)
	}
	return out, nil
}

// CountSearch counts all rows matching the criteria, applying exactly the
// predicates of Search minus LIMIT/OFFSET.
func (s *Store) CountSearch(ctx context.Context, criteria SearchCriteria) (int64, error) {
	filter, params, _ := filterSQL(criteria, 1)
	query := `
		SELECT COUNT(*)
		FROM appointments a
		JOIN patients p ON a.patient_id = p.id
		WHERE 1=1` + filter

	var total int64
	if err := s.pool.QueryRow(ctx, query, params...).Scan(&total); err != nil {
		return 0, fmt.Errorf("appointments: count search: %w", err)
	}
	return total, nil
}
