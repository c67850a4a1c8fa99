package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/web"
)

// Handler serves a single catalog resource over HTTP.
type Handler struct {
	res     *Resource
	respond *web.Responder
}

// NewHandler creates a catalog handler.
func NewHandler(res *Resource, respond *web.Responder) *Handler {
	return &Handler{res: res, respond: respond}
}

// Routes mounts the CRUD endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
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

func decodeBody(r *http.Request) (map[string]any, error) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return nil, apperror.BadRequest("invalid request body")
	}
	return data, nil
}

// List handles GET /.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.res.List(r.Context())
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, h.res.Label+"s retrieved", rows)
}

// Get handles GET /{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	row, err := h.res.Get(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, h.res.Label+" retrieved", row)
}

// Create handles POST /.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	row, err := h.res.Create(r.Context(), data)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.Created(w, h.res.Label+" created", row)
}

// Update handles PUT /{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	data, err := decodeBody(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	row, err := h.res.Update(r.Context(), id, data)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, h.res.Label+" updated", row)
}

// Delete handles DELETE /{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	if err := h.res.Delete(r.Context(), id); err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, h.res.Label+" deleted", nil)
}
