package patients

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/web"
)

// Handler exposes the patient endpoints.
type Handler struct {
	svc     *Service
	respond *web.Responder
}

// NewHandler creates a patients handler.
func NewHandler(svc *Service, respond *web.Responder) *Handler {
	return &Handler{svc: svc, respond: respond}
}

// Routes mounts the patient endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/medical-history", h.MedicalHistory)
	r.Get("/{id}/appointments", h.Appointments)
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

// List handles GET /patients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit, err := web.PageParams(q)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	result, err := h.svc.List(r.Context(), ListParams{
		Page:   page,
		Limit:  limit,
		Name:   q.Get("name"),
		SortBy: q.Get("sort_by"),
		Order:  q.Get("order"),
	})
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	if result.Pagination != nil {
		h.respond.Paginated(w, "patients retrieved", result.Data, *result.Pagination)
		return
	}
	h.respond.OK(w, "patients retrieved", result.Data)
}

// Get handles GET /patients/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	patient, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "patient retrieved", patient)
}

// Create handles POST /patients.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	patient, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.Created(w, "patient created", patient)
}

// Update handles PUT /patients/{id}.
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
	patient, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "patient updated", patient)
}

// Delete handles DELETE /patients/{id}.
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
	h.respond.OK(w, "patient deleted", nil)
}

// MedicalHistory handles GET /patients/{id}/medical-history.
func (h *Handler) MedicalHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	history, err := h.svc.MedicalHistory(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "medical history retrieved", history)
}

// Appointments handles GET /patients/{id}/appointments.
func (h *Handler) Appointments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	appts, err := h.svc.Appointments(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "appointments retrieved", appts)
}
