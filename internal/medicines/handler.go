package medicines

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/web"
)

// Handler exposes the medicine endpoints.
type Handler struct {
	svc     *Service
	respond *web.Responder
}

// NewHandler creates a medicines handler.
func NewHandler(svc *Service, respond *web.Responder) *Handler {
	return &Handler{svc: svc, respond: respond}
}

// Routes mounts the medicine endpoints. Reads stay open to any
// authenticated staff member; writes go through writeGuard.
func (h *Handler) Routes(writeGuard func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Group(func(w chi.Router) {
		w.Use(writeGuard)
		w.Post("/", h.Create)
		w.Put("/{id}", h.Update)
		w.Patch("/{id}/stock", h.UpdateStock)
		w.Delete("/{id}", h.Delete)
	})
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

// List handles GET /medicines.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.List(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "medicines retrieved", rows)
}

// Get handles GET /medicines/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	row, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "medicine retrieved", row)
}

// Create handles POST /medicines.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	row, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.Created(w, "medicine created", row)
}

// Update handles PUT /medicines/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	row, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "medicine updated", row)
}

// UpdateStock handles PATCH /medicines/{id}/stock.
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	var req StockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	row, err := h.svc.UpdateStock(r.Context(), id, req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "stock updated", row)
}

// Delete handles DELETE /medicines/{id}.
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
	h.respond.OK(w, "medicine deleted", nil)
}
