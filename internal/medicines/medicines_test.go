package medicines

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
)

var medicineColumns = []string{"id", "name", "unit", "price", "quantity_in_stock", "description"}

func newMockService(t *testing.T) (pgxmock.PgxPoolIface, *Service) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewService(mock, nil)
}

func TestCreateValidatesPayload(t *testing.T) {
	mock, svc := newMockService(t)

	_, err := svc.Create(context.Background(), CreateRequest{Price: -1, QuantityInStock: -5})
	require.Error(t, err)
	require.True(t, apperror.IsValidation(err))

	fields := make(map[string]bool)
	for _, fe := range apperror.From(err).Fields {
		fields[fe.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["unit"])
	assert.True(t, fields["price"])
	assert.True(t, fields["quantity_in_stock"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFiltersByNameFragment(t *testing.T) {
	mock, svc := newMockService(t)

	mock.ExpectQuery(`WHERE name ILIKE`).
		WithArgs("%para%").
		WillReturnRows(pgxmock.NewRows(medicineColumns).
			AddRow(int64(1), "Paracetamol", "tablet", 500.0, 100, ""))

	out, err := svc.List(context.Background(), "para")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Paracetamol", out[0]["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStockRequiresValue(t *testing.T) {
	mock, svc := newMockService(t)

	_, err := svc.UpdateStock(context.Background(), 1, StockRequest{})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	negative := -3
	_, err = svc.UpdateStock(context.Background(), 1, StockRequest{QuantityInStock: &negative})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStockSetsOnlyStockColumn(t *testing.T) {
	mock, svc := newMockService(t)

	qty := 42
	mock.ExpectQuery(`UPDATE medicines SET quantity_in_stock`).
		WithArgs(42, int64(1)).
		WillReturnRows(pgxmock.NewRows(medicineColumns).
			AddRow(int64(1), "Paracetamol", "tablet", 500.0, 42, ""))

	row, err := svc.UpdateStock(context.Background(), 1, StockRequest{QuantityInStock: &qty})
	require.NoError(t, err)
	assert.Equal(t, 42, row["quantity_in_stock"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBlockedWhilePrescribed(t *testing.T) {
	mock, svc := newMockService(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM prescriptions`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRemovesUnreferencedMedicine(t *testing.T) {
	mock, svc := newMockService(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM prescriptions`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectExec(`DELETE FROM medicines`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAbsentIsNotFound(t *testing.T) {
	mock, svc := newMockService(t)

	mock.ExpectQuery(`SELECT \* FROM medicines WHERE id`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(medicineColumns))

	_, err := svc.Get(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
