package crisis

import (
	"context"
	"time"

	"github.com/mindhaven/platform/internal/shared/types"
)

// MoodHistoryReader reads a user's recent mood samples, most recent first.
// Reads are eventually consistent; the scorer tolerates staleness.
type MoodHistoryReader interface {
	Recent(ctx context.Context, userID types.ID, limit int) ([]MoodSample, error)
}

// AlertHistoryReader counts crisis alerts raised for a user since a duration ago
type AlertHistoryReader interface {
	CountSince(ctx context.Context, userID types.ID, since time.Duration) (int, error)
}

// DetectionLogger records a detection for clinical review. Best-effort: the
// pipeline logs and continues on error.
type DetectionLogger interface {
	Record(ctx context.Context, userID types.ID, severity Severity, score float64, indicators []RiskIndicator) error
}

// AlertStore persists crisis alerts. Create is idempotent on alert ID: the
// pipeline derives the ID from user + time window, so rapid repeated
// triggers collapse into one alert. The boolean is true when a new row was
// written.
type AlertStore interface {
	Create(ctx context.Context, alert CrisisAlert) (bool, error)
	ListActive(ctx context.Context) ([]CrisisAlert, error)
}

// CareTeamResolver resolves the professionals and contacts to notify for a user
type CareTeamResolver interface {
	Resolve(ctx context.Context, userID types.ID) (CareTeam, error)
}

// Notifier delivers an alert notification to one care team member.
// Best-effort and independently retriable per recipient.
type Notifier interface {
	Notify(ctx context.Context, alertID types.ID, recipient CareTeamMember, severity Severity) error
}
