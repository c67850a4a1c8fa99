package statistics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic-backend/internal/web"
)

// Handler exposes the reporting endpoints.
type Handler struct {
	svc     *Service
	respond *web.Responder
}

// NewHandler creates a statistics handler.
func NewHandler(svc *Service, respond *web.Responder) *Handler {
	return &Handler{svc: svc, respond: respond}
}

// Routes mounts the reporting endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/revenue", h.report("revenue statistics retrieved", h.svc.Revenue))
	r.Get("/patients", h.report("patient statistics retrieved", h.svc.Patients))
	r.Get("/diseases", h.report("disease statistics retrieved", h.svc.Diseases))
	r.Get("/medicines", h.report("medicine statistics retrieved", h.svc.Medicines))
	return r
}

func (h *Handler) report(message string, run func(context.Context, Range) ([]map[string]any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rows, err := run(r.Context(), Range{
			StartDate: q.Get("start_date"),
			EndDate:   q.Get("end_date"),
			GroupBy:   q.Get("group_by"),
		})
		if err != nil {
			h.respond.Error(w, err)
			return
		}
		h.respond.OK(w, message, rows)
	}
}
