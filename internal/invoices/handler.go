package invoices

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/web"
)

// Handler exposes the invoice endpoints.
type Handler struct {
	svc     *Service
	respond *web.Responder
}

// NewHandler creates an invoices handler.
func NewHandler(svc *Service, respond *web.Responder) *Handler {
	return &Handler{svc: svc, respond: respond}
}

// Routes mounts the invoice endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Detail)
	r.Put("/{id}", h.UpdateStatus)
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

// List handles GET /invoices.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	patientID, err := web.IDQueryParam(q, "patient_id")
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	list, err := h.svc.List(r.Context(), Filter{
		Date:      q.Get("date"),
		PatientID: patientID,
		Status:    q.Get("status"),
	})
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "invoices retrieved", list)
}

// Detail handles GET /invoices/{id}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	invoice, err := h.svc.Detail(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "invoice retrieved", invoice)
}

// Create handles POST /invoices.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	invoice, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.Created(w, "invoice created", invoice)
}

// UpdateStatus handles PUT /invoices/{id}.
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
	invoice, err := h.svc.UpdateStatus(r.Context(), id, req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "invoice status updated", invoice)
}
