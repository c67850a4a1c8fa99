package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

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

// Store persists invoices in Postgres.
type Store struct {
	pool PgxPool
}

// NewStore creates an invoice store.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("invoices: pgx pool required")
	}
	return &Store{pool: pool}
}

const listSelect = `
	SELECT i.*,
	       p.full_name, p.gender, p.birth_year,
	       m.symptoms,
	       d.name AS disease_name
	FROM invoices i
	JOIN medical_records m ON i.medical_record_id = m.id
	JOIN patients p ON m.patient_id = p.id
	LEFT JOIN disease_types d ON m.disease_type_id = d.id
	`

// List returns invoices joined with patient and record display fields,
// filtered by optional payment date, patient, and status.
func (s *Store) List(ctx context.Context, f Filter) ([]map[string]any, error) {
	query := listSelect
	var conditions []string
	var params []any

	if f.Date != "" {
		params = append(params, f.Date)
		conditions = append(conditions, fmt.Sprintf("DATE(i.payment_date) = $%d", len(params)))
	}
	if f.PatientID > 0 {
		params = append(params, f.PatientID)
		conditions = append(conditions, fmt.Sprintf("m.patient_id = $%d", len(params)))
	}
	if f.Status != "" {
		params = append(params, f.Status)
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(params)))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += "WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += `
	ORDER BY i.payment_date DESC, i.id DESC`

	rows, err := s.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("invoices: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("invoices: collect list: %w", err)
	}
	return out, nil
}

// Detail returns the invoice with its aggregated medicine lines, or nil when
// absent.
func (s *Store) Detail(ctx context.Context, id int64) (map[string]any, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.*,
		       p.full_name, p.gender, p.birth_year,
		       m.symptoms,
		       d.name AS disease_name,
		       json_agg(json_build_object(
		           'medicine_name', med.name,
		           'quantity', pr.quantity,
		           'unit_price', med.price,
		           'total_price', (med.price * pr.quantity)
		       )) AS medicines
		FROM invoices i
		JOIN medical_records m ON i.medical_record_id = m.id
		JOIN patients p ON m.patient_id = p.id
		LEFT JOIN disease_types d ON m.disease_type_id = d.id
		LEFT JOIN prescriptions pr ON m.id = pr.medical_record_id
		LEFT JOIN medicines med ON pr.medicine_id = med.id
		WHERE i.id = $1
		GROUP BY i.id, p.full_name, p.gender, p.birth_year, m.symptoms, d.name`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("invoices: detail: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invoices: collect detail: %w", err)
	}
	return row, nil
}

// Create computes the fees and inserts the invoice inside one transaction:
// the medicine fee is summed from the record's prescriptions, the
// examination fee read from settings, and any failure rolls the whole flow
// back.
func (s *Store) Create(ctx context.Context, medicalRecordID int64, defaultExamFee int64) (map[string]any, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("invoices: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var medicineFee int64
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(m.price * p.quantity), 0)
		FROM medical_records mr
		LEFT JOIN prescriptions p ON mr.id = p.medical_record_id
		LEFT JOIN medicines m ON p.medicine_id = m.id
		WHERE mr.id = $1`,
		medicalRecordID,
	).Scan(&medicineFee); err != nil {
		return nil, fmt.Errorf("invoices: medicine fee: %w", err)
	}

	examFee := defaultExamFee
	err = tx.QueryRow(ctx,
		`SELECT setting_value::bigint FROM settings WHERE setting_key = 'examination_fee'`,
	).Scan(&examFee)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoices: examination fee: %w", err)
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (medical_record_id, examination_fee, medicine_fee, total_fee, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		medicalRecordID, examFee, medicineFee, examFee+medicineFee, StatusPending,
	).Scan(&id)
	if err != nil {
		return nil, repository.TranslateConstraint(fmt.Errorf("invoices: insert: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("invoices: commit: %w", err)
	}
	return s.Detail(ctx, id)
}

// UpdateStatus changes the invoice status; payment_date is stamped when the
// invoice turns paid. Returns the updated row or nil when absent.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status string) (map[string]any, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE invoices
		SET status = $1,
		    payment_date = CASE WHEN $1 = 'paid' THEN CURRENT_TIMESTAMP ELSE payment_date END
		WHERE id = $2
		RETURNING *`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("invoices: update status: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invoices: collect update: %w", err)
	}
	return row, nil
}
