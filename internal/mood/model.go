package mood

import (
	"time"

	"github.com/mindhaven/platform/internal/shared/errors"
	"github.com/mindhaven/platform/internal/shared/types"
)

// Entry is a single self-reported mood rating
type Entry struct {
	ID        types.ID  `json:"id"`
	UserID    types.ID  `json:"user_id"`
	Score     int       `json:"score"` // 1..10
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const maxNoteLength = 2000

// NewEntry validates and builds a mood entry
func NewEntry(userID types.ID, score int, note string) (*Entry, error) {
	if userID.IsZero() {
		return nil, errors.Validation("user_id is required", nil)
	}
	if score < 1 || score > 10 {
		return nil, errors.Validation("score must be between 1 and 10", map[string]string{
			"score": "must be between 1 and 10",
		})
	}
	if len(note) > maxNoteLength {
		return nil, errors.Validation("note too long", map[string]string{
			"note": "must be at most 2000 characters",
		})
	}

	return &Entry{
		ID:        types.NewID(),
		UserID:    userID,
		Score:     score,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}, nil
}
