// Package statistics aggregates revenue, visits, disease, and medicine
// usage figures for the reporting endpoints.
package statistics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/repository"
)

// Grouping granularities for time-series reports.
const (
	GroupByDay   = "day"
	GroupByMonth = "month"
	GroupByYear  = "year"
)

// Range bounds a report; empty bounds are open.
type Range struct {
	StartDate string
	EndDate   string
	GroupBy   string
}

// Service runs the aggregation queries.
type Service struct {
	db repository.Querier
}

// NewService creates the statistics service.
func NewService(db repository.Querier) *Service {
	return &Service{db: db}
}

func timeGrouping(column, groupBy string) (string, error) {
	switch groupBy {
	case GroupByDay, "":
		return fmt.Sprintf("TO_CHAR(%s, 'YYYY-MM-DD')", column), nil
	case GroupByMonth:
		return fmt.Sprintf("TO_CHAR(%s, 'YYYY-MM')", column), nil
	case GroupByYear:
		return fmt.Sprintf("TO_CHAR(%s, 'YYYY')", column), nil
	default:
		return "", apperror.Validation("invalid grouping",
			apperror.FieldError{Field: "group_by", Message: "group_by must be one of day, month, year"})
	}
}

// dateBounds renders optional range predicates for column, continuing the
// positional parameter list.
func dateBounds(column string, r Range, params []any) (string, []any) {
	clause := ""
	if r.StartDate != "" {
		params = append(params, r.StartDate)
		clause += fmt.Sprintf(" AND %s >= $%d", column, len(params))
	}
	if r.EndDate != "" {
		params = append(params, r.EndDate)
		clause += fmt.Sprintf(" AND %s <= $%d", column, len(params))
	}
	return clause, params
}

func (s *Service) collect(ctx context.Context, label, query string, params []any) ([]map[string]any, error) {
	rows, err := s.db.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("statistics: %s: %w", label, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("statistics: collect %s: %w", label, err)
	}
	return out, nil
}

// Revenue sums paid invoices per time period.
func (s *Service) Revenue(ctx context.Context, r Range) ([]map[string]any, error) {
	grouping, err := timeGrouping("payment_date", r.GroupBy)
	if err != nil {
		return nil, err
	}
	bounds, params := dateBounds("payment_date", r, nil)
	query := fmt.Sprintf(`
		SELECT %s AS time_period,
		       COUNT(DISTINCT id) AS total_invoices,
		       SUM(examination_fee) AS total_examination_fee,
		       SUM(medicine_fee) AS total_medicine_fee,
		       SUM(total_fee) AS total_revenue
		FROM invoices
		WHERE status = 'paid'%s
		GROUP BY %s
		ORDER BY time_period DESC`, grouping, bounds, grouping)
	return s.collect(ctx, "revenue", query, params)
}

// Patients counts unique patients and total visits per time period.
func (s *Service) Patients(ctx context.Context, r Range) ([]map[string]any, error) {
	grouping, err := timeGrouping("examination_date", r.GroupBy)
	if err != nil {
		return nil, err
	}
	bounds, params := dateBounds("examination_date", r, nil)
	query := fmt.Sprintf(`
		SELECT %s AS time_period,
		       COUNT(DISTINCT patient_id) AS unique_patients,
		       COUNT(*) AS total_visits
		FROM medical_records
		WHERE 1=1%s
		GROUP BY %s
		ORDER BY time_period DESC`, grouping, bounds, grouping)
	return s.collect(ctx, "patients", query, params)
}

// Diseases ranks diagnoses by case count in the range.
func (s *Service) Diseases(ctx context.Context, r Range) ([]map[string]any, error) {
	bounds, params := dateBounds("m.examination_date", r, nil)
	query := fmt.Sprintf(`
		SELECT d.name AS disease_name,
		       COUNT(*) AS total_cases,
		       COUNT(DISTINCT m.patient_id) AS unique_patients
		FROM medical_records m
		JOIN disease_types d ON m.disease_type_id = d.id
		WHERE 1=1%s
		GROUP BY d.id, d.name
		ORDER BY total_cases DESC`, bounds)
	return s.collect(ctx, "diseases", query, params)
}

// Medicines ranks medicines by prescribed quantity in the range.
func (s *Service) Medicines(ctx context.Context, r Range) ([]map[string]any, error) {
	bounds, params := dateBounds("mr.examination_date", r, nil)
	query := fmt.Sprintf(`
		SELECT m.name AS medicine_name,
		       SUM(p.quantity) AS total_quantity,
		       COUNT(DISTINCT mr.patient_id) AS unique_patients,
		       SUM(m.price * p.quantity) AS total_revenue
		FROM prescriptions p
		JOIN medicines m ON p.medicine_id = m.id
		JOIN medical_records mr ON p.medical_record_id = mr.id
		WHERE 1=1%s
		GROUP BY m.id, m.name
		ORDER BY total_quantity DESC`, bounds)
	return s.collect(ctx, "medicines", query, params)
}
