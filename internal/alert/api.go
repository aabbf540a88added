package alert

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindhaven/platform/internal/crisis"
	"github.com/mindhaven/platform/internal/shared/errors"
	"github.com/mindhaven/platform/internal/shared/types"
)

// Handler provides HTTP handlers for alert review and resolution.
// All routes are clinician-facing; the router mounts them behind the
// clinician requirement.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new alert handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the alert routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/active", h.ListActive)
	r.Post("/{alertID}/resolve", h.Resolve)

	return r
}

func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.repo.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if alerts == nil {
		alerts = []crisis.CrisisAlert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	alertID, err := types.ParseID(chi.URLParam(r, "alertID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid alert ID"))
		return
	}

	if err := h.repo.Resolve(r.Context(), alertID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
