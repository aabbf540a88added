package crisis

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindhaven/platform/internal/shared/errors"
	"github.com/mindhaven/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the crisis module
type Handler struct {
	detector *Detector
}

// NewHandler creates a new crisis handler
func NewHandler(detector *Detector) *Handler {
	return &Handler{detector: detector}
}

// Routes registers the crisis routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/analyze", h.Analyze)
	r.Get("/users/{userID}/trajectory", h.MoodTrajectory)
	r.Get("/alerts/active", h.ActiveAlerts)

	return r
}

type AnalyzeRequest struct {
	UserID    types.ID      `json:"user_id"`
	Text      string        `json:"text"`
	MoodScore *int          `json:"mood_score,omitempty"`
	Context   *ContextFlags `json:"context,omitempty"`
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.UserID.IsZero() {
		writeError(w, errors.Validation("user_id is required", nil))
		return
	}
	if req.MoodScore != nil && (*req.MoodScore < 1 || *req.MoodScore > 10) {
		writeError(w, errors.Validation("mood_score must be between 1 and 10", map[string]string{
			"mood_score": "must be between 1 and 10",
		}))
		return
	}

	result := h.detector.Analyze(r.Context(), AnalysisInput{
		Text:      req.Text,
		UserID:    req.UserID,
		MoodScore: req.MoodScore,
		Context:   req.Context,
	})

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) MoodTrajectory(w http.ResponseWriter, r *http.Request) {
	userID, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid user ID"))
		return
	}

	trajectory, err := h.detector.MoodTrajectory(r.Context(), userID)
	if err != nil {
		writeError(w, errors.Wrap(err, "failed to compute mood trajectory"))
		return
	}

	writeJSON(w, http.StatusOK, trajectory)
}

func (h *Handler) ActiveAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.detector.ActiveAlerts(r.Context())
	if err != nil {
		writeError(w, errors.Wrap(err, "failed to list active alerts"))
		return
	}

	if alerts == nil {
		alerts = []CrisisAlert{}
	}
	writeJSON(w, http.StatusOK, alerts)
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
