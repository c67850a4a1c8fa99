// Package web standardizes the JSON response envelope. Every response
// carries success; error responses add message and, for validation
// failures, field-level errors.
package web

import (
	"encoding/json"
	"net/http"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/pagination"
	"github.com/clinicdesk/clinic-backend/pkg/logging"
)

// Responder writes enveloped responses. In development mode internal error
// detail is exposed; in production it is suppressed and only logged.
type Responder struct {
	Logger      *logging.Logger
	Development bool
}

// NewResponder creates a responder.
func NewResponder(logger *logging.Logger, development bool) *Responder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Responder{Logger: logger, Development: development}
}

type envelope struct {
	Success    bool                  `json:"success"`
	Message    string                `json:"message,omitempty"`
	Data       any                   `json:"data,omitempty"`
	Pagination *pagination.Pagination `json:"pagination,omitempty"`
	Errors     []apperror.FieldError `json:"errors,omitempty"`
}

func (r *Responder) write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		r.Logger.Error("failed to encode response", "error", err)
	}
}

// OK writes a 200 success envelope.
func (r *Responder) OK(w http.ResponseWriter, message string, data any) {
	r.write(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 success envelope.
func (r *Responder) Created(w http.ResponseWriter, message string, data any) {
	r.write(w, http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

// Paginated writes a 200 envelope with pagination metadata.
func (r *Responder) Paginated(w http.ResponseWriter, message string, data any, p pagination.Pagination) {
	r.write(w, http.StatusOK, envelope{Success: true, Message: message, Data: data, Pagination: &p})
}

// Error maps err onto the envelope. Unknown errors become 500s with the
// detail suppressed outside development.
func (r *Responder) Error(w http.ResponseWriter, err error) {
	appErr := apperror.From(err)
	message := appErr.Message
	if appErr.Kind == apperror.KindInternal {
		r.Logger.Error("internal error", "error", appErr.Error())
		if !r.Development {
			message = "internal server error"
		} else {
			message = appErr.Error()
		}
	}
	r.write(w, appErr.HTTPStatus(), envelope{
		Success: false,
		Message: message,
		Errors:  appErr.Fields,
	})
}
