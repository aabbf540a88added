package mood

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mindhaven/platform/internal/crisis"
	"github.com/mindhaven/platform/internal/shared/errors"
	"github.com/mindhaven/platform/internal/shared/events"
	"github.com/mindhaven/platform/internal/shared/metrics"
	"github.com/mindhaven/platform/internal/shared/types"
)

const defaultListLimit = 30

// Handler provides HTTP handlers for the mood module
type Handler struct {
	repo     *Repository
	bus      *events.Bus
	detector *crisis.Detector
}

// NewHandler creates a new mood handler. The bus and detector may be nil;
// entries are then recorded without event publication or risk screening.
func NewHandler(repo *Repository, bus *events.Bus, detector *crisis.Detector) *Handler {
	return &Handler{repo: repo, bus: bus, detector: detector}
}

// Routes registers the mood routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/entries", h.CreateEntry)
	r.Get("/users/{userID}/entries", h.ListEntries)

	return r
}

type CreateEntryRequest struct {
	UserID types.ID `json:"user_id"`
	Score  int      `json:"score"`
	Note   string   `json:"note,omitempty"`
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	entry, err := NewEntry(req.UserID, req.Score, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Create(r.Context(), entry); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordMoodEntry()

	if h.bus != nil {
		event := events.NewEvent("mood.recorded", "mood", map[string]any{
			"entry_id": entry.ID.String(),
			"score":    entry.Score,
		}).WithUser(entry.UserID)
		if err := h.bus.Publish(r.Context(), event); err != nil {
			slog.Warn("failed to publish mood event",
				"entry_id", entry.ID.String(), "error", err)
		}
	}

	// Every mood entry is screened for crisis risk. The note text and the
	// rating both feed the score; escalation happens in the background.
	if h.detector != nil {
		h.detector.Analyze(r.Context(), crisis.AnalysisInput{
			Text:      entry.Note,
			UserID:    entry.UserID,
			MoodScore: &entry.Score,
		})
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid user ID"))
		return
	}

	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 200 {
			writeError(w, errors.BadRequest("invalid limit"))
			return
		}
		limit = n
	}

	entries, err := h.repo.List(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
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
