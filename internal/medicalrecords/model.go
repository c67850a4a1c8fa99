package medicalrecords

import (
	"regexp"
	"time"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func validDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// CreateRequest is the payload for opening a medical record. StaffID comes
// from the authenticated session, not the body.
type CreateRequest struct {
	PatientID       int64  `json:"patient_id"`
	StaffID         int64  `json:"-"`
	DiseaseTypeID   int64  `json:"disease_type_id"`
	ExaminationDate string `json:"examination_date"`
	Symptoms        string `json:"symptoms"`
	Diagnosis       string `json:"diagnosis"`
	Treatment       string `json:"treatment"`
	Notes           string `json:"notes"`
}

// UpdateRequest carries partial updates; nil fields are left untouched.
type UpdateRequest struct {
	PatientID       *int64  `json:"patient_id"`
	StaffID         *int64  `json:"staff_id"`
	DiseaseTypeID   *int64  `json:"disease_type_id"`
	ExaminationDate *string `json:"examination_date"`
	Symptoms        *string `json:"symptoms"`
	Diagnosis       *string `json:"diagnosis"`
	Treatment       *string `json:"treatment"`
	Notes           *string `json:"notes"`
}

// SearchCriteria is the filter set shared by Search and CountSearch.
type SearchCriteria struct {
	PatientID     int64
	StaffID       int64
	DiseaseTypeID int64
	StartDate     string
	EndDate       string
	Keyword       string
}

// PrescriptionRequest is the payload for adding or changing a prescription
// line on a record.
type PrescriptionRequest struct {
	MedicineID         int64  `json:"medicine_id"`
	UsageInstructionID int64  `json:"usage_instruction_id"`
	Quantity           int    `json:"quantity"`
	Notes              string `json:"notes"`
}

// ValidateCreate returns every field error in the payload at once.
func ValidateCreate(req CreateRequest) []apperror.FieldError {
	var errs []apperror.FieldError

	if req.PatientID <= 0 {
		errs = append(errs, apperror.FieldError{Field: "patient_id", Message: "patient_id is required and must be positive"})
	}
	if req.StaffID <= 0 {
		errs = append(errs, apperror.FieldError{Field: "staff_id", Message: "staff_id is required and must be positive"})
	}
	if req.DiseaseTypeID < 0 {
		errs = append(errs, apperror.FieldError{Field: "disease_type_id", Message: "disease_type_id must be positive"})
	}
	if req.ExaminationDate == "" {
		errs = append(errs, apperror.FieldError{Field: "examination_date", Message: "examination_date is required"})
	} else if !validDate(req.ExaminationDate) {
		errs = append(errs, apperror.FieldError{Field: "examination_date", Message: "examination_date must be a valid YYYY-MM-DD date"})
	}
	return errs
}

// ValidateUpdate checks a partial update payload.
func ValidateUpdate(req UpdateRequest) []apperror.FieldError {
	var errs []apperror.FieldError

	if req.PatientID != nil && *req.PatientID <= 0 {
		errs = append(errs, apperror.FieldError{Field: "patient_id", Message: "patient_id must be positive"})
	}
	if req.StaffID != nil && *req.StaffID <= 0 {
		errs = append(errs, apperror.FieldError{Field: "staff_id", Message: "staff_id must be positive"})
	}
	if req.DiseaseTypeID != nil && *req.DiseaseTypeID <= 0 {
		errs = append(errs, apperror.FieldError{Field: "disease_type_id", Message: "disease_type_id must be positive"})
	}
	if req.ExaminationDate != nil && !validDate(*req.ExaminationDate) {
		errs = append(errs, apperror.FieldError{Field: "examination_date", Message: "examination_date must be a valid YYYY-MM-DD date"})
	}
	return errs
}

// ValidateSearch checks search criteria plus paging bounds.
func ValidateSearch(criteria SearchCriteria, page, limit int) []apperror.FieldError {
	var errs []apperror.FieldError

	if criteria.PatientID < 0 {
		errs = append(errs, apperror.FieldError{Field: "patient_id", Message: "patient_id must be positive"})
	}
	if criteria.StaffID < 0 {
		errs = append(errs, apperror.FieldError{Field: "staff_id", Message: "staff_id must be positive"})
	}
	if criteria.DiseaseTypeID < 0 {
		errs = append(errs, apperror.FieldError{Field: "disease_type_id", Message: "disease_type_id must be positive"})
	}
	if criteria.StartDate != "" && !validDate(criteria.StartDate) {
		errs = append(errs, apperror.FieldError{Field: "start_date", Message: "start_date must be a valid YYYY-MM-DD date"})
	}
	if criteria.EndDate != "" && !validDate(criteria.EndDate) {
		errs = append(errs, apperror.FieldError{Field: "end_date", Message: "end_date must be a valid YYYY-MM-DD date"})
	}
	if page < 1 {
		errs = append(errs, apperror.FieldError{Field: "page", Message: "page must be a positive integer"})
	}
	if limit < 1 || limit > 100 {
		errs = append(errs, apperror.FieldError{Field: "limit", Message: "limit must be between 1 and 100"})
	}
	return errs
}

// ValidatePrescription checks a prescription line payload.
func ValidatePrescription(req PrescriptionRequest) []apperror.FieldError {
	var errs []apperror.FieldError

	if req.MedicineID <= 0 {
		errs = append(errs, apperror.FieldError{Field: "medicine_id", Message: "medicine_id is required and must be positive"})
	}
	if req.UsageInstructionID <= 0 {
		errs = append(errs, apperror.FieldError{Field: "usage_instruction_id", Message: "usage_instruction_id is required and must be positive"})
	}
	if req.Quantity <= 0 {
		errs = append(errs, apperror.FieldError{Field: "quantity", Message: "quantity must be a positive integer"})
	}
	return errs
}

func (req CreateRequest) columns() map[string]any {
	data := map[string]any{
		"patient_id":       req.PatientID,
		"staff_id":         req.StaffID,
		"examination_date": req.ExaminationDate,
		"symptoms":         req.Symptoms,
		"diagnosis":        req.Diagnosis,
		"treatment":        req.Treatment,
		"notes":            req.Notes,
	}
	if req.DiseaseTypeID > 0 {
		data["disease_type_id"] = req.DiseaseTypeID
	}
	return data
}

func (req UpdateRequest) columns() map[string]any {
	data := map[string]any{}
	if req.PatientID != nil {
		data["patient_id"] = *req.PatientID
	}
	if req.StaffID != nil {
		data["staff_id"] = *req.StaffID
	}
	if req.DiseaseTypeID != nil {
		data["disease_type_id"] = *req.DiseaseTypeID
	}
	if req.ExaminationDate != nil {
		data["examination_date"] = *req.ExaminationDate
	}
	if req.Symptoms != nil {
		data["symptoms"] = *req.Symptoms
	}
	if req.Diagnosis != nil {
		data["diagnosis"] = *req.Diagnosis
	}
	if req.Treatment != nil {
		data["treatment"] = *req.Treatment
	}
	if req.Notes != nil {
		data["notes"] = *req.Notes
	}
	return data
}
