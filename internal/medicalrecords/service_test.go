package medicalrecords

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
)

type fakeStore struct {
	records       map[int64]map[string]any
	prescriptions map[int64]map[string]any
	invoices      map[int64]map[string]any
	nextID        int64

	searchCriteria []SearchCriteria
	lastLimit      int
	lastPage       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:       make(map[int64]map[string]any),
		prescriptions: make(map[int64]map[string]any),
		invoices:      make(map[int64]map[string]any),
		nextID:        1,
	}
}

func (f *fakeStore) Get(_ context.Context, id int64) (map[string]any, error) {
	return f.records[id], nil
}

func (f *fakeStore) Create(_ context.Context, data map[string]any) (map[string]any, error) {
	row := map[string]any{"id": f.nextID}
	for k, v := range data {
		row[k] = v
	}
	f.records[f.nextID] = row
	f.nextID++
	return row, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, data map[string]any) (map[string]any, error) {
	row, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	for k, v := range data {
		row[k] = v
	}
	return row, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := f.records[id]; !ok {
		return false, nil
	}
	delete(f.records, id)
	return true, nil
}

func (f *fakeStore) Detail(_ context.Context, id int64) (map[string]any, error) {
	return f.records[id], nil
}

func (f *fakeStore) Search(_ context.Context, criteria SearchCriteria, limit, page int) ([]map[string]any, error) {
	f.searchCriteria = append(f.searchCriteria, criteria)
	f.lastLimit = limit
	f.lastPage = page
	out := make([]map[string]any, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) CountSearch(_ context.Context, criteria SearchCriteria) (int64, error) {
	f.searchCriteria = append(f.searchCriteria, criteria)
	return int64(len(f.records)), nil
}

func (f *fakeStore) Prescriptions(_ context.Context, recordID int64) ([]map[string]any, error) {
	var out []map[string]any
	for _, p := range f.prescriptions {
		if p["medical_record_id"] == recordID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) CreatePrescription(_ context.Context, data map[string]any) (map[string]any, error) {
	row := map[string]any{"id": f.nextID}
	for k, v := range data {
		row[k] = v
	}
	f.prescriptions[f.nextID] = row
	f.nextID++
	return row, nil
}

func (f *fakeStore) UpdatePrescription(_ context.Context, id int64, data map[string]any) (map[string]any, error) {
	row, ok := f.prescriptions[id]
	if !ok {
		return nil, nil
	}
	for k, v := range data {
		row[k] = v
	}
	return row, nil
}

func (f *fakeStore) DeletePrescription(_ context.Context, id int64) (bool, error) {
	if _, ok := f.prescriptions[id]; !ok {
		return false, nil
	}
	delete(f.prescriptions, id)
	return true, nil
}

func (f *fakeStore) Invoice(_ context.Context, recordID int64) (map[string]any, error) {
	return f.invoices[recordID], nil
}

func validCreate() CreateRequest {
	return CreateRequest{
		PatientID:       1,
		StaffID:         2,
		ExaminationDate: "2024-06-01",
		Symptoms:        "cough",
		Diagnosis:       "flu",
	}
}

func TestCreateCollectsFieldErrors(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.Create(context.Background(), CreateRequest{})
	require.Error(t, err)
	require.True(t, apperror.IsValidation(err))

	fields := make(map[string]bool)
	for _, fe := range apperror.From(err).Fields {
		fields[fe.Field] = true
	}
	assert.True(t, fields["patient_id"])
	assert.True(t, fields["staff_id"])
	assert.True(t, fields["examination_date"])
}

func TestSearchUsesIdenticalCriteriaForPageAndCount(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)

	criteria := SearchCriteria{PatientID: 3, Keyword: "flu"}
	page, err := svc.Search(context.Background(), criteria, 0, 0)
	require.NoError(t, err)

	require.Len(t, store.searchCriteria, 2)
	assert.Equal(t, store.searchCriteria[0], store.searchCriteria[1])
	assert.Equal(t, 10, store.lastLimit, "limit defaults to 10")
	assert.Equal(t, 1, store.lastPage, "page defaults to 1")
	assert.Equal(t, 1, page.Pagination.Page)
}

func TestSearchValidatesCriteria(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	_, err := svc.Search(context.Background(), SearchCriteria{StartDate: "junk"}, 1, 10)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Search(context.Background(), SearchCriteria{}, 1, 500)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdateRequiresExistingRecord(t *testing.T) {
	svc := NewService(newFakeStore(), nil)

	notes := "better"
	_, err := svc.Update(context.Background(), 99, UpdateRequest{Notes: &notes})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestPrescriptionFlowChecksRecordAndPayload(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	record, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)
	recordID := record["id"].(int64)

	// Unknown record.
	_, err = svc.AddPrescription(ctx, 99, PrescriptionRequest{MedicineID: 1, UsageInstructionID: 1, Quantity: 2})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	// Invalid payload.
	_, err = svc.AddPrescription(ctx, recordID, PrescriptionRequest{Quantity: -1})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	line, err := svc.AddPrescription(ctx, recordID, PrescriptionRequest{MedicineID: 1, UsageInstructionID: 1, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, recordID, line["medical_record_id"])

	lines, err := svc.Prescriptions(ctx, recordID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	require.NoError(t, svc.DeletePrescription(ctx, line["id"].(int64)))
	err = svc.DeletePrescription(ctx, line["id"].(int64))
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestInvoiceNilWhenNoneIssued(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	record, err := svc.Create(ctx, validCreate())
	require.NoError(t, err)
	recordID := record["id"].(int64)

	inv, err := svc.Invoice(ctx, recordID)
	require.NoError(t, err)
	assert.Nil(t, inv)

	_, err = svc.Invoice(ctx, 99)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
