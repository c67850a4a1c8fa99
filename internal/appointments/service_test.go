package appointments

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
)

// fakeStore mimics the storage semantics in memory: slot-conflict
// rejection and max+1 order-number assignment per date.
type fakeStore struct {
	nextID int64
	items  map[int64]*Appointment
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[int64]*Appointment{}}
}

func (f *fakeStore) conflictExists(staffID int64, date, slot string, excludeID int64) bool {
	for _, a := range f.items {
		if a.ID == excludeID {
			continue
		}
		if a.StaffID == staffID && a.Date == date && a.TimeSlot == slot && a.Status != StatusCancelled {
			return true
		}
	}
	return false
}

func (f *fakeStore) Create(_ context.Context, appt *Appointment) (*Appointment, error) {
	if f.conflictExists(appt.StaffID, appt.Date, appt.TimeSlot, 0) {
		return nil, apperror.Conflict("the doctor already has an appointment in this time slot")
	}
	maxOrder := 0
	for _, a := range f.items {
		if a.Date == appt.Date && a.OrderNumber > maxOrder {
			maxOrder = a.OrderNumber
		}
	}
	f.nextID++
	created := *appt
	created.ID = f.nextID
	created.OrderNumber = maxOrder + 1
	f.items[created.ID] = &created
	out := created
	return &out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Appointment, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	out := *a
	return &out, nil
}

func (f *fakeStore) Update(_ context.Context, appt *Appointment, checkConflict bool) (*Appointment, error) {
	if checkConflict && f.conflictExists(appt.StaffID, appt.Date, appt.TimeSlot, appt.ID) {
		return nil, apperror.Conflict("the doctor already has an appointment in this time slot")
	}
	existing, ok := f.items[appt.ID]
	if !ok {
		return nil, nil
	}
	merged := *appt
	merged.Status = existing.Status
	merged.OrderNumber = existing.OrderNumber
	f.items[appt.ID] = &merged
	out := merged
	return &out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id int64, status Status, notes *string) (*Appointment, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	a.Status = status
	if notes != nil {
		a.Notes = *notes
	}
	out := *a
	return &out, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := f.items[id]; !ok {
		return false, nil
	}
	delete(f.items, id)
	return true, nil
}

func (f *fakeStore) GetByDate(_ context.Context, date string) ([]WithPatient, error) {
	var out []WithPatient
	for _, a := range f.items {
		if a.Date == date {
			out = append(out, WithPatient{Appointment: *a})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, nil
}

func (f *fakeStore) matching(c SearchCriteria) []WithPatient {
	var out []WithPatient
	for _, a := range f.items {
		if c.PatientID > 0 && a.PatientID != c.PatientID {
			continue
		}
		if c.Status != "" && a.Status != c.Status {
			continue
		}
		if c.StartDate != "" && a.Date < c.StartDate {
			continue
		}
		if c.EndDate != "" && a.Date > c.EndDate {
			continue
		}
		out = append(out, WithPatient{Appointment: *a})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].OrderNumber < out[j].OrderNumber
	})
	return out
}

func (f *fakeStore) Search(_ context.Context, c SearchCriteria, limit, offset int) ([]WithPatient, error) {
	all := f.matching(c)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakeStore) CountSearch(_ context.Context, c SearchCriteria) (int64, error) {
	return int64(len(f.matching(c))), nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, nil), store
}

func validCreate() CreateRequest {
	return CreateRequest{
		PatientID: 1,
		StaffID:   1,
		Date:      "2024-06-01",
		TimeSlot:  "09:00-09:30",
		Reason:    "checkup",
	}
}

func TestCreateDefaultsToPendingWithFirstOrderNumber(t *testing.T) {
	svc, _ := newTestService()

	appt, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, 1, appt.OrderNumber)
}

func TestCreateRejectsDoubleBooking(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validCreate())
	assert.True(t, apperror.IsConflict(err), "expected conflict, got %v", err)
}

func TestCancellationFreesSlotWithoutReclaimingOrderNumber(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), first.ID, StatusRequest{Status: "CANCELLED"})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	assert.Equal(t, 2, second.OrderNumber, "order numbers are not reclaimed on cancellation")
}

func TestOrderNumbersAreContiguousPerDate(t *testing.T) {
	svc, _ := newTestService()

	for i := 0; i < 5; i++ {
		req := validCreate()
		req.TimeSlot = []string{"08:00-08:30", "09:00-09:30", "10:00-10:30", "11:00-11:30", "13:00-13:30"}[i]
		appt, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, i+1, appt.OrderNumber)
	}

	// A different date starts its own sequence.
	other := validCreate()
	other.Date = "2024-06-02"
	appt, err := svc.Create(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 1, appt.OrderNumber)
}

func TestCreateAccumulatesAllFieldErrors(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateRequest{
		Date:     "06/01/2024",
		TimeSlot: "morning",
	})
	require.True(t, apperror.IsValidation(err))

	appErr := apperror.From(err)
	fields := make(map[string]bool)
	for _, f := range appErr.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{"patient_id", "staff_id", "appointment_date", "time_slot", "reason"} {
		assert.True(t, fields[want], "missing field error for %s", want)
	}
}

func TestUpdateNotesOnlyLeavesSchedulingFieldsUntouched(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	notes := "patient called to confirm"
	updated, err := svc.Update(context.Background(), created.ID, UpdateRequest{Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, created.Date, updated.Date)
	assert.Equal(t, created.TimeSlot, updated.TimeSlot)
	assert.Equal(t, created.OrderNumber, updated.OrderNumber)
	assert.Equal(t, created.Status, updated.Status)
	assert.Equal(t, notes, updated.Notes)
}

func TestUpdateRerunsConflictCheckOnSlotChange(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	second := validCreate()
	second.TimeSlot = "10:00-10:30"
	other, err := svc.Create(context.Background(), second)
	require.NoError(t, err)

	slot := first.TimeSlot
	_, err = svc.Update(context.Background(), other.ID, UpdateRequest{TimeSlot: &slot})
	assert.True(t, apperror.IsConflict(err), "expected conflict, got %v", err)

	// Moving an appointment onto its own slot is not a conflict.
	_, err = svc.Update(context.Background(), first.ID, UpdateRequest{TimeSlot: &slot})
	assert.NoError(t, err)
}

func TestUpdateMissingAppointmentIsNotFound(t *testing.T) {
	svc, _ := newTestService()

	reason := "follow-up"
	_, err := svc.Update(context.Background(), 42, UpdateRequest{Reason: &reason})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestUpdateStatusRejectsInvalidAndTerminalTransitions(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, StatusRequest{Status: "waiting"})
	assert.True(t, apperror.IsValidation(err), "unknown status must be rejected")

	_, err = svc.UpdateStatus(context.Background(), created.ID, StatusRequest{Status: "COMPLETED"})
	assert.True(t, apperror.IsValidation(err), "PENDING cannot jump to COMPLETED")

	_, err = svc.UpdateStatus(context.Background(), created.ID, StatusRequest{Status: "CONFIRMED"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), created.ID, StatusRequest{Status: "COMPLETED"})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, StatusRequest{Status: "CANCELLED"})
	assert.True(t, apperror.IsValidation(err), "terminal states have no outgoing transitions")
}

func TestDeleteMissingAppointmentIsNotFound(t *testing.T) {
	svc, _ := newTestService()

	err := svc.Delete(context.Background(), 7)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestGetByDateValidatesBeforeQuerying(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetByDate(context.Background(), "2024-13-40")
	assert.True(t, apperror.IsValidation(err))
}

func TestSearchPaginationIsConsistentWithCount(t *testing.T) {
	svc, _ := newTestService()

	dates := []string{"2024-06-01", "2024-06-02", "2024-06-03"}
	slots := []string{"08:00-08:30", "09:00-09:30", "10:00-10:30"}
	for _, d := range dates {
		for _, slot := range slots {
			req := validCreate()
			req.Date = d
			req.TimeSlot = slot
			_, err := svc.Create(context.Background(), req)
			require.NoError(t, err)
		}
	}

	criteria := SearchCriteria{StartDate: "2024-06-01", EndDate: "2024-06-03"}

	full, err := svc.Search(context.Background(), criteria, 1, 100)
	require.NoError(t, err)
	require.Equal(t, int64(9), full.Pagination.Total)
	require.Len(t, full.Data, 9)

	paged, err := svc.Search(context.Background(), criteria, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, paged.Pagination.TotalPages)

	var concatenated []WithPatient
	for page := 1; page <= paged.Pagination.TotalPages; page++ {
		p, err := svc.Search(context.Background(), criteria, page, 4)
		require.NoError(t, err)
		concatenated = append(concatenated, p.Data...)
	}
	require.Len(t, concatenated, 9)

	seen := map[int64]bool{}
	for i, item := range concatenated {
		assert.False(t, seen[item.ID], "duplicate row across pages")
		seen[item.ID] = true
		assert.Equal(t, full.Data[i].ID, item.ID, "page concatenation must reproduce the full result order")
	}
}

func TestSearchValidatesCriteria(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Search(context.Background(), SearchCriteria{
		StartDate: "not-a-date",
		Status:    "UNKNOWN",
	}, 1, 500)
	require.True(t, apperror.IsValidation(err))

	appErr := apperror.From(err)
	fields := make(map[string]bool)
	for _, f := range appErr.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["start_date"])
	assert.True(t, fields["status"])
	assert.True(t, fields["limit"])
}
