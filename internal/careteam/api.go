package careteam

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindhaven/platform/internal/crisis"
	"github.com/mindhaven/platform/internal/shared/errors"
	"github.com/mindhaven/platform/internal/shared/types"
)

// Handler provides HTTP handlers for care team management
type Handler struct {
	repo *Repository
}

// NewHandler creates a new care team handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the care team routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Put)
	})

	return r
}

type MemberRequest struct {
	ID    types.ID `json:"id"`
	Email string   `json:"email,omitempty"`
	Phone string   `json:"phone,omitempty"`
}

type UpsertRequest struct {
	Therapist        *MemberRequest `json:"therapist,omitempty"`
	Psychiatrist     *MemberRequest `json:"psychiatrist,omitempty"`
	EmergencyContact *MemberRequest `json:"emergency_contact,omitempty"`
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid user ID"))
		return
	}

	team, err := h.repo.Resolve(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, team)
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	userID, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid user ID"))
		return
	}

	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	team := crisis.CareTeam{
		UserID:           userID,
		Therapist:        toMember(crisis.RoleTherapist, req.Therapist),
		Psychiatrist:     toMember(crisis.RolePsychiatrist, req.Psychiatrist),
		EmergencyContact: toMember(crisis.RoleEmergencyContact, req.EmergencyContact),
	}

	if err := validateTeam(team); err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Upsert(r.Context(), team); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, team)
}

func toMember(role string, req *MemberRequest) *crisis.CareTeamMember {
	if req == nil {
		return nil
	}
	return &crisis.CareTeamMember{
		ID:   req.ID,
		Role: role,
		Contact: types.ContactInfo{
			Email: req.Email,
			Phone: req.Phone,
		},
	}
}

// validateTeam checks that every assigned member is identifiable and reachable
func validateTeam(team crisis.CareTeam) error {
	for _, m := range team.Members() {
		if m.ID.IsZero() {
			return errors.Validation("care team member requires an ID", map[string]string{
				"role": m.Role,
			})
		}
		if !m.Contact.HasAnyChannel() {
			return errors.Validation("care team member requires a contact channel", map[string]string{
				"role": m.Role,
			})
		}
	}
	return nil
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
