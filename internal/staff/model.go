package staff

import (
	"regexp"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.]{3,50}$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

const minPasswordLen = 8

// Member is a staff account joined with its role name. The password hash
// never leaves the store.
type Member struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	FullName  string  `json:"full_name"`
	Email     string  `json:"email,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	RoleID    int64   `json:"role_id"`
	RoleName  string  `json:"role_name"`
	IsActive  bool    `json:"is_active"`
	LastLogin *string `json:"last_login"`
	CreatedAt string  `json:"created_at"`
}

// credentials carries the stored hash for login verification only.
type credentials struct {
	Member
	PasswordHash string
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns the session token with the account summary.
type LoginResponse struct {
	Token string `json:"token"`
	Staff Member `json:"staff"`
}

// CreateRequest is the payload for registering a staff account.
type CreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	RoleID   int64  `json:"role_id"`
}

// UpdateRequest carries account updates; the password changes through its
// own endpoint.
type UpdateRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	RoleID   *int64  `json:"role_id"`
	IsActive *bool   `json:"is_active"`
}

// PasswordRequest is the payload for changing the caller's password.
type PasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ValidateCreate returns every field error in the payload at once.
func ValidateCreate(req CreateRequest) []apperror.FieldError {
	var errs []apperror.FieldError

	if req.Username == "" {
		errs = append(errs, apperror.FieldError{Field: "username", Message: "username is required"})
	} else if !usernameRe.MatchString(req.Username) {
		errs = append(errs, apperror.FieldError{Field: "username", Message: "username must be 3-50 characters of letters, digits, dot, underscore"})
	}
	if len(req.Password) < minPasswordLen {
		errs = append(errs, apperror.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	if req.FullName == "" {
		errs = append(errs, apperror.FieldError{Field: "full_name", Message: "full_name is required"})
	}
	if req.Email != "" && !emailRe.MatchString(req.Email) {
		errs = append(errs, apperror.FieldError{Field: "email", Message: "email is not a valid address"})
	}
	if req.RoleID <= 0 {
		errs = append(errs, apperror.FieldError{Field: "role_id", Message: "role_id is required and must be positive"})
	}
	return errs
}

// ValidateUpdate checks a partial account update.
func ValidateUpdate(req UpdateRequest) []apperror.FieldError {
	var errs []apperror.FieldError

	if req.FullName != nil && *req.FullName == "" {
		errs = append(errs, apperror.FieldError{Field: "full_name", Message: "full_name must not be empty"})
	}
	if req.Email != nil && *req.Email != "" && !emailRe.MatchString(*req.Email) {
		errs = append(errs, apperror.FieldError{Field: "email", Message: "email is not a valid address"})
	}
	if req.RoleID != nil && *req.RoleID <= 0 {
		errs = append(errs, apperror.FieldError{Field: "role_id", Message: "role_id must be positive"})
	}
	return errs
}
