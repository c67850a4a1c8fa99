package invoices

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
)

type fakeStore struct {
	invoices       map[int64]map[string]any
	lastFilter     Filter
	lastRecordID   int64
	lastDefaultFee int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{invoices: make(map[int64]map[string]any)}
}

func (f *fakeStore) List(_ context.Context, filter Filter) ([]map[string]any, error) {
	f.lastFilter = filter
	out := make([]map[string]any, 0, len(f.invoices))
	for _, inv := range f.invoices {
		out = append(out, inv)
	}
	return out, nil
}

func (f *fakeStore) Detail(_ context.Context, id int64) (map[string]any, error) {
	return f.invoices[id], nil
}

func (f *fakeStore) Create(_ context.Context, medicalRecordID, defaultExamFee int64) (map[string]any, error) {
	f.lastRecordID = medicalRecordID
	f.lastDefaultFee = defaultExamFee
	inv := map[string]any{
		"id":                int64(1),
		"medical_record_id": medicalRecordID,
		"total_fee":         defaultExamFee,
		"status":            StatusPending,
	}
	f.invoices[1] = inv
	return inv, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id int64, status string) (map[string]any, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, nil
	}
	inv["status"] = status
	return inv, nil
}

func TestCreateRequiresMedicalRecordID(t *testing.T) {
	svc := NewService(newFakeStore(), 30000, nil)

	_, err := svc.Create(context.Background(), CreateRequest{})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreatePassesConfiguredFallbackFee(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, 30000, nil)

	inv, err := svc.Create(context.Background(), CreateRequest{MedicalRecordID: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), store.lastRecordID)
	assert.Equal(t, int64(30000), store.lastDefaultFee)
	assert.Equal(t, StatusPending, inv["status"])
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, 30000, nil)

	_, err := svc.List(context.Background(), Filter{Status: "overdue"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.List(context.Background(), Filter{Status: StatusPaid, PatientID: 3})
	require.NoError(t, err)
	assert.Equal(t, Filter{Status: StatusPaid, PatientID: 3}, store.lastFilter)
}

func TestDetailMissingInvoiceIsNotFound(t *testing.T) {
	svc := NewService(newFakeStore(), 30000, nil)

	_, err := svc.Detail(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdateStatusValidatesAndReportsMissing(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, 30000, nil)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, 1, StatusRequest{Status: "settled"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.UpdateStatus(ctx, 99, StatusRequest{Status: StatusPaid})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Create(ctx, CreateRequest{MedicalRecordID: 5})
	require.NoError(t, err)
	inv, err := svc.UpdateStatus(ctx, 1, StatusRequest{Status: StatusPaid})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, inv["status"])
}
