package catalog

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestCreateRequiresDeclaredFields(t *testing.T) {
	mock := newMock(t)
	res := DiseaseTypes(mock)

	_, err := res.Create(context.Background(), map[string]any{"description": "no name"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDropsUndeclaredColumns(t *testing.T) {
	mock := newMock(t)
	res := DiseaseTypes(mock)

	mock.ExpectQuery(`INSERT INTO disease_types`).
		WithArgs("cold", "Influenza").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description"}).
			AddRow(int64(1), "Influenza", "cold"))

	row, err := res.Create(context.Background(), map[string]any{
		"name":        "Influenza",
		"description": "cold",
		"is_admin":    true, // not a declared field, must be ignored
	})
	require.NoError(t, err)
	assert.Equal(t, "Influenza", row["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBlockedWhileReferenced(t *testing.T) {
	mock := newMock(t)
	res := UsageInstructions(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM prescriptions`).
		WithArgs(int64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	err := res.Delete(context.Background(), 4)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePassesWhenUnreferenced(t *testing.T) {
	mock := newMock(t)
	res := UsageInstructions(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM prescriptions`).
		WithArgs(int64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectExec(`DELETE FROM usage_instructions`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, res.Delete(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAbsentIsNotFound(t *testing.T) {
	mock := newMock(t)
	res := DiseaseTypes(mock)

	mock.ExpectQuery(`SELECT \* FROM disease_types WHERE id`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}))

	_, err := res.Get(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAbsentIsNotFound(t *testing.T) {
	mock := newMock(t)
	res := DiseaseTypes(mock)

	mock.ExpectQuery(`UPDATE disease_types SET`).
		WithArgs("Measles", int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}))

	_, err := res.Update(context.Background(), 9, map[string]any{"name": "Measles"})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
