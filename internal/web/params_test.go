package web

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
)

func TestPageParamsDefaults(t *testing.T) {
	page, limit, err := PageParams(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
}

func TestPageParamsParsesValues(t *testing.T) {
	q := url.Values{"page": {"3"}, "limit": {"25"}}
	page, limit, err := PageParams(q)
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)
}

func TestPageParamsRejectsNonNumeric(t *testing.T) {
	q := url.Values{"page": {"abc"}, "limit": {"xyz"}}
	_, _, err := PageParams(q)
	require.Error(t, err)
	require.True(t, apperror.IsValidation(err))
	assert.Len(t, apperror.From(err).Fields, 2)
}

func TestIDQueryParam(t *testing.T) {
	id, err := IDQueryParam(url.Values{}, "patient_id")
	require.NoError(t, err)
	assert.Zero(t, id)

	id, err = IDQueryParam(url.Values{"patient_id": {"42"}}, "patient_id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-1", "abc"} {
		_, err = IDQueryParam(url.Values{"patient_id": {bad}}, "patient_id")
		assert.Error(t, err, bad)
	}
}
