package staff

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/auth"
	"github.com/clinicdesk/clinic-backend/internal/web"
)

// Handler exposes the staff and auth endpoints.
type Handler struct {
	svc     *Service
	respond *web.Responder
}

// NewHandler creates a staff handler.
func NewHandler(svc *Service, respond *web.Responder) *Handler {
	return &Handler{svc: svc, respond: respond}
}

// Routes mounts the staff management endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/permissions", h.Permissions)
	return r
}

// AuthRoutes mounts the session endpoints requiring authentication.
func (h *Handler) AuthRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.Me)
	r.Post("/change-password", h.ChangePassword)
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

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "login successful", resp)
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.respond.Error(w, apperror.Unauthorized("authentication required"))
		return
	}
	member, err := h.svc.Me(r.Context(), claims.StaffID)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "account retrieved", member)
}

// ChangePassword handles POST /auth/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		h.respond.Error(w, apperror.Unauthorized("authentication required"))
		return
	}
	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	if err := h.svc.ChangePassword(r.Context(), claims.StaffID, req); err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "password changed", nil)
}

// List handles GET /staff.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.List(r.Context())
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "staff retrieved", members)
}

// Get handles GET /staff/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	member, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "staff member retrieved", member)
}

// Create handles POST /staff.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	member, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.Created(w, "staff account created", member)
}

// Update handles PUT /staff/{id}.
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
	member, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "staff account updated", member)
}

// Delete handles DELETE /staff/{id}.
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
	h.respond.OK(w, "staff account deactivated", nil)
}

// Permissions handles GET /staff/{id}/permissions.
func (h *Handler) Permissions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	perms, err := h.svc.Permissions(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "permissions retrieved", perms)
}
