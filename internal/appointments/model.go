package appointments

import "time"

// Status is the appointment lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// transitions defines the allowed lifecycle moves. Terminal states have no
// outgoing transitions; attempts out of them are rejected.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// Valid reports whether s is a member of the status enum.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether next is reachable from s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment is a scheduled visit. OrderNumber is the walk-in queue
// position within a single day, unique per date and assigned server-side.
type Appointment struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	StaffID     int64     `json:"staff_id"`
	Date        string    `json:"appointment_date"`
	TimeSlot    string    `json:"time_slot"`
	OrderNumber int       `json:"order_number"`
	Reason      string    `json:"reason"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WithPatient joins the patient display fields used by day lists and search
// results.
type WithPatient struct {
	Appointment
	PatientName string `json:"patient_name"`
	Gender      string `json:"gender"`
	BirthYear   int    `json:"birth_year"`
	Phone       string `json:"phone,omitempty"`
}

// SearchCriteria is the normalized filter set shared by Search and
// CountSearch. Both must see the identical criteria or totals diverge from
// page contents.
type SearchCriteria struct {
	PatientID int64
	Status    Status
	StartDate string
	EndDate   string
	Keyword   string
}

// CreateRequest is the payload for creating an appointment.
type CreateRequest struct {
	PatientID int64  `json:"patient_id"`
	StaffID   int64  `json:"staff_id"`
	Date      string `json:"appointment_date"`
	TimeSlot  string `json:"time_slot"`
	Reason    string `json:"reason"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
}

// UpdateRequest carries partial updates; nil fields are left untouched.
type UpdateRequest struct {
	PatientID *int64  `json:"patient_id"`
	StaffID   *int64  `json:"staff_id"`
	Date      *string `json:"appointment_date"`
	TimeSlot  *string `json:"time_slot"`
	Reason    *string `json:"reason"`
	Notes     *string `json:"notes"`
}

// StatusRequest is the payload for PATCH /appointments/{id}/status.
type StatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}
