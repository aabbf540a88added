package mood

import (
	"strings"
	"testing"

	"github.com/mindhaven/platform/internal/shared/errors"
	"github.com/mindhaven/platform/internal/shared/types"
)

// TestNewEntry tests creating a valid mood entry
func TestNewEntry(t *testing.T) {
	userID := types.NewID()

	entry, err := NewEntry(userID, 7, "had a good walk")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if entry.ID.IsZero() {
		t.Error("Expected non-zero ID")
	}
	if entry.UserID != userID {
		t.Errorf("Expected user %s, got %s", userID, entry.UserID)
	}
	if entry.Score != 7 {
		t.Errorf("Expected score 7, got %d", entry.Score)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

// TestNewEntryValidation tests entry validation rules
func TestNewEntryValidation(t *testing.T) {
	userID := types.NewID()

	tests := []struct {
		name   string
		userID types.ID
		score  int
		note   string
	}{
		{"missing user", "", 5, ""},
		{"score too low", userID, 0, ""},
		{"score negative", userID, -2, ""},
		{"score too high", userID, 11, ""},
		{"note too long", userID, 5, strings.Repeat("a", maxNoteLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEntry(tt.userID, tt.score, tt.note)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			appErr, ok := err.(*errors.AppError)
			if !ok {
				t.Fatalf("Expected AppError, got %T", err)
			}
			if appErr.Code != "VALIDATION_ERROR" {
				t.Errorf("Expected code VALIDATION_ERROR, got %s", appErr.Code)
			}
		})
	}
}

// TestNewEntryScoreBounds tests both ends of the valid range
func TestNewEntryScoreBounds(t *testing.T) {
	userID := types.NewID()

	for _, score := range []int{1, 10} {
		if _, err := NewEntry(userID, score, ""); err != nil {
			t.Errorf("Expected score %d to be valid, got %v", score, err)
		}
	}
}
