package appointments

import (
	"fmt"
	"regexp"
	"time"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
)

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slotRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d-([01]\d|2[0-3]):[0-5]\d$`)
)

const (
	maxReasonLen = 500
	maxNotesLen  = 1000
)

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ValidTimeSlot reports whether s is an HH:MM-HH:MM interval with a start
// strictly before its end.
func ValidTimeSlot(s string) bool {
	if !slotRe.MatchString(s) {
		return false
	}
	return s[:5] < s[6:]
}

// ValidateCreate checks a create payload and returns every field error at
// once rather than failing on the first.
func ValidateCreate(req CreateRequest) []apperror.FieldError {
	var errs []apperror.FieldError

	if req.PatientID <= 0 {
		errs = append(errs, apperror.FieldError{Field: "patient_id", Message: "patient_id is required and must be positive"})
	}
	if req.StaffID <= 0 {
		errs = append(errs, apperror.FieldError{Field: "staff_id", Message: "staff_id is required and must be positive"})
	}
	if req.Date == "" {
		errs = append(errs, apperror.FieldError{Field: "appointment_date", Message: "appointment_date is required"})
	} else if !ValidDate(req.Date) {
		errs = append(errs, apperror.FieldError{Field: "appointment_date", Message: "appointment_date must be a valid YYYY-MM-DD date"})
	}
	if req.TimeSlot == "" {
		errs = append(errs, apperror.FieldError{Field: "time_slot", Message: "time_slot is required"})
	} else if !ValidTimeSlot(req.TimeSlot) {
		errs = append(errs, apperror.FieldError{Field: "time_slot", Message: "time_slot must be HH:MM-HH:MM with start before end"})
	}
	if req.Reason == "" {
		errs = append(errs, apperror.FieldError{Field: "reason", Message: "reason is required"})
	} else if len(req.Reason) > maxReasonLen {
		errs = append(errs, apperror.FieldError{Field: "reason", Message: fmt.Sprintf("reason must not exceed %d characters", maxReasonLen)})
	}
	if len(req.Notes) > maxNotesLen {
		errs = append(errs, apperror.FieldError{Field: "notes", Message: fmt.Sprintf("notes must not exceed %d characters", maxNotesLen)})
	}
	if req.Status != "" && !Status(req.Status).Valid() {
		errs = append(errs, apperror.FieldError{Field: "status", Message: "status is not a valid appointment status"})
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
	if req.Date != nil && !ValidDate(*req.Date) {
		errs = append(errs, apperror.FieldError{Field: "appointment_date", Message: "appointment_date must be a valid YYYY-MM-DD date"})
	}
	if req.TimeSlot != nil && !ValidTimeSlot(*req.TimeSlot) {
		errs = append(errs, apperror.FieldError{Field: "time_slot", Message: "time_slot must be HH:MM-HH:MM with start before end"})
	}
	if req.Reason != nil {
		if *req.Reason == "" {
			errs = append(errs, apperror.FieldError{Field: "reason", Message: "reason must not be empty"})
		} else if len(*req.Reason) > maxReasonLen {
			errs = append(errs, apperror.FieldError{Field: "reason", Message: fmt.Sprintf("reason must not exceed %d characters", maxReasonLen)})
		}
	}
	if req.Notes != nil && len(*req.Notes) > maxNotesLen {
		errs = append(errs, apperror.FieldError{Field: "notes", Message: fmt.Sprintf("notes must not exceed %d characters", maxNotesLen)})
	}
	return errs
}

// ValidateSearch checks search criteria plus paging bounds.
func ValidateSearch(criteria SearchCriteria, page, limit int) []apperror.FieldError {
	var errs []apperror.FieldError

	if criteria.PatientID < 0 {
		errs = append(errs, apperror.FieldError{Field: "patient_id", Message: "patient_id must be positive"})
	}
	if criteria.Status != "" && !criteria.Status.Valid() {
		errs = append(errs, apperror.FieldError{Field: "status", Message: "status is not a valid appointment status"})
	}
	if criteria.StartDate != "" && !ValidDate(criteria.StartDate) {
		errs = append(errs, apperror.FieldError{Field: "start_date", Message: "start_date must be a valid YYYY-MM-DD date"})
	}
	if criteria.EndDate != "" && !ValidDate(criteria.EndDate) {
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
