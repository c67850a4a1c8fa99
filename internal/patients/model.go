package patients

import (
	"fmt"
	"regexp"
	"time"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
)

// Gender values accepted for a patient record.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

var phoneRe = regexp.MustCompile(`^(0|\+84)\d{9,10}$`)

// CreateRequest is the payload for registering a patient.
type CreateRequest struct {
	FullName  string `json:"full_name"`
	Gender    string `json:"gender"`
	BirthYear int    `json:"birth_year"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// UpdateRequest carries partial updates; nil fields are left untouched.
type UpdateRequest struct {
	FullName  *string `json:"full_name"`
	Gender    *string `json:"gender"`
	BirthYear *int    `json:"birth_year"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

// ListParams selects a page of patients, optionally filtered by name.
type ListParams struct {
	Page   int
	Limit  int
	Name   string
	SortBy string
	Order  string
}

func validGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// ValidateCreate returns every field error in the payload at once.
func ValidateCreate(req CreateRequest) []apperror.FieldError {
	var errs []apperror.FieldError

	if req.FullName == "" {
		errs = append(errs, apperror.FieldError{Field: "full_name", Message: "full_name is required"})
	}
	if req.Gender == "" {
		errs = append(errs, apperror.FieldError{Field: "gender", Message: "gender is required"})
	} else if !validGender(req.Gender) {
		errs = append(errs, apperror.FieldError{Field: "gender", Message: "gender must be one of male, female, other"})
	}
	if req.BirthYear == 0 {
		errs = append(errs, apperror.FieldError{Field: "birth_year", Message: "birth_year is required"})
	} else if req.BirthYear < 1900 || req.BirthYear > time.Now().Year() {
		errs = append(errs, apperror.FieldError{Field: "birth_year", Message: fmt.Sprintf("birth_year must be between 1900 and %d", time.Now().Year())})
	}
	if req.Phone != "" && !phoneRe.MatchString(req.Phone) {
		errs = append(errs, apperror.FieldError{Field: "phone", Message: "phone is not a valid phone number"})
	}
	return errs
}

// ValidateUpdate checks a partial update payload.
func ValidateUpdate(req UpdateRequest) []apperror.FieldError {
	var errs []apperror.FieldError

	if req.FullName != nil && *req.FullName == "" {
		errs = append(errs, apperror.FieldError{Field: "full_name", Message: "full_name must not be empty"})
	}
	if req.Gender != nil && !validGender(*req.Gender) {
		errs = append(errs, apperror.FieldError{Field: "gender", Message: "gender must be one of male, female, other"})
	}
	if req.BirthYear != nil && (*req.BirthYear < 1900 || *req.BirthYear > time.Now().Year()) {
		errs = append(errs, apperror.FieldError{Field: "birth_year", Message: fmt.Sprintf("birth_year must be between 1900 and %d", time.Now().Year())})
	}
	if req.Phone != nil && *req.Phone != "" && !phoneRe.MatchString(*req.Phone) {
		errs = append(errs, apperror.FieldError{Field: "phone", Message: "phone is not a valid phone number"})
	}
	return errs
}

func (req UpdateRequest) columns() map[string]any {
	data := map[string]any{}
	if req.FullName != nil {
		data["full_name"] = *req.FullName
	}
	if req.Gender != nil {
		data["gender"] = *req.Gender
	}
	if req.BirthYear != nil {
		data["birth_year"] = *req.BirthYear
	}
	if req.Phone != nil {
		data["phone"] = *req.Phone
	}
	if req.Address != nil {
		data["address"] = *req.Address
	}
	return data
}
