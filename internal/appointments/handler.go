package appointments

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/web"
)

// Handler exposes the appointment endpoints.
type Handler struct {
	svc     *Service
	respond *web.Responder
}

// NewHandler creates an appointments handler.
func NewHandler(svc *Service, respond *web.Responder) *Handler {
	return &Handler{svc: svc, respond: respond}
}

// Routes mounts the appointment endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Search)
	r.Post("/", h.Create)
	r.Get("/date/{date}", h.GetByDate)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Delete("/{id}", h.Delete)
	return r
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("invalid id",
			apperror.FieldError{Field: "id", Message: "id must be a positive integer"})
	}
	return id, nil
}

// Search handles GET /appointments.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	criteria := SearchCriteria{
		Status:    Status(q.Get("status")),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Keyword:   q.Get("keyword"),
	}
	if date := q.Get("date"); date != "" {
		criteria.StartDate = date
		criteria.EndDate = date
	}
	if v := q.Get("patient_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			h.respond.Error(w, apperror.Validation("invalid search criteria",
				apperror.FieldError{Field: "patient_id", Message: "patient_id must be a positive integer"}))
			return
		}
		criteria.PatientID = id
	}

	page, limit, err := web.PageParams(q)
	if err != nil {
		h.respond.Error(w, err)
		return
	}

	result, err := h.svc.Search(r.Context(), criteria, page, limit)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.Paginated(w, "appointments retrieved", result.Data, result.Pagination)
}

// GetByDate handles GET /appointments/date/{date}.
func (h *Handler) GetByDate(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.GetByDate(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "appointments retrieved", list)
}

// Get handles GET /appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	appt, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "appointment retrieved", appt)
}

// Create handles POST /appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	appt, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.Created(w, "appointment created", appt)
}

// Update handles PUT /appointments/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	appt, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "appointment updated", appt)
}

// UpdateStatus handles PATCH /appointments/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	appt, err := h.svc.UpdateStatus(r.Context(), id, req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "appointment status updated", appt)
}

// Delete handles DELETE /appointments/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "appointment deleted", nil)
}
