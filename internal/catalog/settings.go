package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/clinic-backend/internal/apperror"
	"github.com/clinicdesk/clinic-backend/internal/repository"
	"github.com/clinicdesk/clinic-backend/internal/web"
)

// Settings is the key/value configuration table (examination fee, clinic
// details). Keys are fixed by migrations; the API only reads and updates
// values.
type Settings struct {
	repo *repository.Repo
	db   repository.Querier
}

// NewSettings creates the settings store.
func NewSettings(db repository.Querier) *Settings {
	return &Settings{repo: repository.New("settings", db), db: db}
}

// List returns all settings ordered by key.
func (s *Settings) List(ctx context.Context) ([]map[string]any, error) {
	return s.repo.FindAll(ctx, repository.FindOptions{OrderBy: "setting_key"})
}

// Get returns the setting row for a key, or a not-found error.
func (s *Settings) Get(ctx context.Context, key string) (map[string]any, error) {
	rows, err := s.repo.FindBy(ctx, map[string]any{"setting_key": key})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("setting not found")
	}
	return rows[0], nil
}

// Update replaces the value of an existing key and returns the updated row.
func (s *Settings) Update(ctx context.Context, key, value string) (map[string]any, error) {
	if value == "" {
		return nil, apperror.Validation("invalid setting data",
			apperror.FieldError{Field: "setting_value", Message: "setting_value is required"})
	}
	rows, err := s.db.Query(ctx, `
		UPDATE settings
		SET setting_value = $1, updated_at = CURRENT_TIMESTAMP
		WHERE setting_key = $2
		RETURNING *`,
		value, key,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: update setting: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("setting not found")
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: collect setting: %w", err)
	}
	return row, nil
}

// SettingsHandler serves the settings endpoints.
type SettingsHandler struct {
	store   *Settings
	respond *web.Responder
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(store *Settings, respond *web.Responder) *SettingsHandler {
	return &SettingsHandler{store: store, respond: respond}
}

// Routes mounts the settings endpoints.
func (h *SettingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{key}", h.Get)
	r.Put("/{key}", h.Update)
	return r
}

// List handles GET /settings.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.List(r.Context())
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "settings retrieved", rows)
}

// Get handles GET /settings/{key}.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	row, err := h.store.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "setting retrieved", row)
}

// Update handles PUT /settings/{key}.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value string `json:"setting_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respond.Error(w, apperror.BadRequest("invalid request body"))
		return
	}
	row, err := h.store.Update(r.Context(), chi.URLParam(r, "key"), body.Value)
	if err != nil {
		h.respond.Error(w, err)
		return
	}
	h.respond.OK(w, "setting updated", row)
}
