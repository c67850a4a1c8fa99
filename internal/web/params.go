package web

import (
	"net/url"
	"strconv"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
)

// PageParams extracts page and limit query parameters, applying the
// defaults page=1 and limit=10. Non-numeric values are validation errors;
// range checks stay with the services.
func PageParams(q url.Values) (page, limit int, err error) {
	page, limit = 1, 10

	var fields []apperror.FieldError
	if v := q.Get("page"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			fields = append(fields, apperror.FieldError{Field: "page", Message: "page must be a positive integer"})
		} else {
			page = n
		}
	}
	if v := q.Get("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			fields = append(fields, apperror.FieldError{Field: "limit", Message: "limit must be a positive integer"})
		} else {
			limit = n
		}
	}
	if len(fields) > 0 {
		return 0, 0, apperror.Validation("invalid pagination parameters", fields...)
	}
	return page, limit, nil
}

// IDQueryParam parses an optional positive integer query parameter.
func IDQueryParam(q url.Values, name string) (int64, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("invalid query parameter",
			apperror.FieldError{Field: name, Message: name + " must be a positive integer"})
	}
	return id, nil
}
