package mood

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindhaven/platform/internal/crisis"
	"github.com/mindhaven/platform/internal/shared/errors"
	"github.com/mindhaven/platform/internal/shared/types"
)

// Repository provides database operations for mood entries
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new mood repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists a mood entry
func (r *Repository) Create(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO wellness.mood_entries (id, user_id, score, note, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.UserID, entry.Score, entry.Note, entry.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create mood entry")
	}
	return nil
}

// List returns a user's mood entries, most recent first
func (r *Repository) List(ctx context.Context, userID types.ID, limit int) ([]Entry, error) {
	query := `
		SELECT id, user_id, score, note, created_at
		FROM wellness.mood_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list mood entries")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Score, &e.Note, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan mood entry")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read mood entries")
	}

	return entries, nil
}

// Recent returns a user's recent mood samples for risk scoring, most recent
// first. Implements the crisis module's mood history contract.
func (r *Repository) Recent(ctx context.Context, userID types.ID, limit int) ([]crisis.MoodSample, error) {
	entries, err := r.List(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	samples := make([]crisis.MoodSample, len(entries))
	for i, e := range entries {
		samples[i] = crisis.MoodSample{
			UserID:    e.UserID,
			Score:     e.Score,
			CreatedAt: e.CreatedAt,
		}
	}
	return samples, nil
}
