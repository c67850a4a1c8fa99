package medicalrecords

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/auth"
	"github.com/clinicdesk/clinic-backend/internal/web"
)

// Handler exposes the medical record endpoints.
type Handler struct {
	svc     *Service
	respond *web.Responder
}

// NewHandler creates a medical records handler.
func NewHandler(svc *Service, respond *web.Responder) *Handler {
	return &Handler{svc: svc, respond: respond}
}

// Routes mounts the medical record endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Search)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Detail)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/prescriptions", h.Prescriptions)
	r.Post("/{id}/prescriptions", h.AddPrescription)
	r.Get("/{id}/invoice", h.Invoice)
	return r
}

// PrescriptionRoutes mounts the standalone prescription line endpoints.
func (h *Handler) PrescriptionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Put("/{id}", h.UpdatePrescription)
	r.Delete("/{id}", h.DeletePrescription)
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

// Search handles GET /medical-records.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	criteria := SearchCriteria{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Keyword:   q.Get("keyword"),
	}
	for name, dst := range map[string]*int64{
		"patient_id":      &criteria.PatientID,
		"staff_id":        &criteria.StaffID,
		"disease_type_id": &criteria.DiseaseTypeID,
	} {
		id, err := web.IDQueryParam(q, name)
		if err != nil {
			h.respond.Error(w, err)
			return
		}
		*dst = id
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
	h.respond.Paginated(w, "medical records retrieved", result.Data, result.Pagination)
}

// Detail handles GET /medical-records/{id}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	record, err := h.svc.Detail(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "medical record retrieved", record)
}

// Create handles POST /medical-records. The examining doctor is the
// authenticated staff member.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	if claims, ok := auth.FromContext(r.Context()); ok {
		req.StaffID = claims.StaffID
	}
	record, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.Created(w, "medical record created", record)
}

// Update handles PUT /medical-records/{id}.
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
	record, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "medical record updated", record)
}

// Delete handles DELETE /medical-records/{id}.
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
	h.respond.OK(w, "medical record deleted", nil)
}

// Prescriptions handles GET /medical-records/{id}/prescriptions.
func (h *Handler) Prescriptions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	lines, err := h.svc.Prescriptions(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "prescriptions retrieved", lines)
}

// AddPrescription handles POST /medical-records/{id}/prescriptions.
func (h *Handler) AddPrescription(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	var req PrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	line, err := h.svc.AddPrescription(r.Context(), id, req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.Created(w, "prescription created", line)
}

// UpdatePrescription handles PUT /prescriptions/{id}.
func (h *Handler) UpdatePrescription(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	var req PrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	line, err := h.svc.UpdatePrescription(r.Context(), id, req)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "prescription updated", line)
}

// DeletePrescription handles DELETE /prescriptions/{id}.
func (h *Handler) DeletePrescription(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	if err := h.svc.DeletePrescription(r.Context(), id); err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "prescription deleted", nil)
}

// Invoice handles GET /medical-records/{id}/invoice.
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	invoice, err := h.svc.Invoice(r.Context(), id)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	if invoice == nil {
		h.respond.OK(w, "medical record has no invoice yet", nil)
		return
	}
	h.respond.OK(w, "invoice retrieved", invoice)
}
