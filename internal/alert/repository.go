package alert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindhaven/platform/internal/crisis"
	"github.com/mindhaven/platform/internal/shared/errors"
	"github.com/mindhaven/platform/internal/shared/types"
)

// Repository provides database operations for crisis detections and alerts
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new alert repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record persists a detection for clinical review. Implements the crisis
// module's detection log contract.
func (r *Repository) Record(ctx context.Context, userID types.ID, severity crisis.Severity, score float64, indicators []crisis.RiskIndicator) error {
	payload, err := json.Marshal(indicators)
	if err != nil {
		return errors.Wrap(err, "failed to encode indicators")
	}

	query := `
		INSERT INTO wellness.crisis_detections (id, user_id, severity, score, indicators, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.pool.Exec(ctx, query,
		types.NewID(), userID, severity, score, payload, time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to record detection")
	}
	return nil
}

// Create persists a crisis alert. The alert ID doubles as the idempotency
// key; an existing row for the same ID leaves the table unchanged and the
// boolean reports false.
func (r *Repository) Create(ctx context.Context, alert crisis.CrisisAlert) (bool, error) {
	payload, err := json.Marshal(alert.Indicators)
	if err != nil {
		return false, errors.Wrap(err, "failed to encode indicators")
	}

	query := `
		INSERT INTO wellness.crisis_alerts (id, user_id, severity, status, indicators, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		alert.ID, alert.UserID, alert.Severity, alert.Status, payload, alert.CreatedAt,
	)
	if err != nil {
		return false, errors.Wrap(err, "failed to create alert")
	}

	return tag.RowsAffected() == 1, nil
}

// ListActive returns unresolved alerts, newest first
func (r *Repository) ListActive(ctx context.Context) ([]crisis.CrisisAlert, error) {
	query := `
		SELECT id, user_id, severity, status, indicators, created_at, resolved_at
		FROM wellness.crisis_alerts
		WHERE status = 'active'
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active alerts")
	}
	defer rows.Close()

	var alerts []crisis.CrisisAlert
	for rows.Next() {
		var a crisis.CrisisAlert
		var payload []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.Severity, &a.Status, &payload, &a.CreatedAt, &a.ResolvedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan alert")
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &a.Indicators); err != nil {
				return nil, errors.Wrap(err, "failed to decode indicators")
			}
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read alerts")
	}

	return alerts, nil
}

// CountSince counts alerts raised for a user within the lookback window.
// Implements the crisis module's alert history contract.
func (r *Repository) CountSince(ctx context.Context, userID types.ID, since time.Duration) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM wellness.crisis_alerts
		WHERE user_id = $1 AND created_at >= $2`

	var count int
	err := r.pool.QueryRow(ctx, query, userID, time.Now().UTC().Add(-since)).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count alerts")
	}
	return count, nil
}

// Resolve marks an alert resolved
func (r *Repository) Resolve(ctx context.Context, alertID types.ID) error {
	query := `
		UPDATE wellness.crisis_alerts
		SET status = 'resolved', resolved_at = $2
		WHERE id = $1 AND status = 'active'`

	tag, err := r.pool.Exec(ctx, query, alertID, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "failed to resolve alert")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("active alert", alertID.String())
	}
	return nil
}
