package crisis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mindhaven/platform/internal/shared/events"
	"github.com/mindhaven/platform/internal/shared/logging"
	"github.com/mindhaven/platform/internal/shared/metrics"
	"github.com/mindhaven/platform/internal/shared/types"
)

// PipelineConfig holds escalation tunables
type PipelineConfig struct {
	// StepTimeout bounds each side-effect step independently
	StepTimeout time.Duration
	// DedupWindow is the time window within which repeated alerts for the
	// same user collapse into one
	DedupWindow time.Duration
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		StepTimeout: 5 * time.Second,
		DedupWindow: 15 * time.Minute,
	}
}

// PipelineDeps are the write-side collaborators. Any of them may be nil;
// the corresponding step is skipped.
type PipelineDeps struct {
	Detections DetectionLogger
	Alerts     AlertStore
	CareTeam   CareTeamResolver
	Notifier   Notifier
	Bus        *events.Bus
}

// Pipeline carries out escalation side effects for qualifying detections.
// Dispatch is fire-and-forget: steps run in the background and a failure in
// any one step never blocks the others or the calling analysis.
type Pipeline struct {
	deps   PipelineDeps
	config PipelineConfig

	clock func() time.Time

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewPipeline creates an escalation pipeline
func NewPipeline(deps PipelineDeps, config PipelineConfig) *Pipeline {
	return &Pipeline{
		deps:   deps,
		config: config,
		clock:  time.Now,
	}
}

// Dispatch hands a detection to the pipeline. It returns immediately; all
// side effects run asynchronously. After Shutdown, dispatches are dropped.
func (p *Pipeline) Dispatch(userID types.ID, result AnalysisResult) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		slog.Warn("escalation pipeline stopped, dropping detection",
			"user_id", userID.String(), "severity", string(result.Severity))
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		p.run(userID, result)
	}()
}

// Shutdown stops accepting new detections and waits for in-flight
// escalations to finish
func (p *Pipeline) Shutdown() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pipeline) run(userID types.ID, result AnalysisResult) {
	if result.Severity == SeverityLow {
		return
	}

	p.recordDetection(userID, result)
	p.publish("crisis.detected", userID, map[string]any{
		"severity": string(result.Severity),
		"score":    result.Score,
	})

	if result.RequiresImmediate {
		p.raiseAlert(userID, result)
	}

	if result.Severity == SeverityCritical && meetsEmergencyCriteria(result.Indicators) {
		// Emergency services are never contacted automatically. The signal
		// is surfaced for a human on-call clinician to act on.
		slog.Error("emergency escalation criteria met, human review required",
			"user_id", userID.String(),
			"severity", string(result.Severity),
			"score", result.Score)
		metrics.RecordEmergencyEscalation()
	}
}

func (p *Pipeline) recordDetection(userID types.ID, result AnalysisResult) {
	if p.deps.Detections == nil {
		return
	}

	ctx, cancel := p.stepContext()
	defer cancel()

	if err := p.deps.Detections.Record(ctx, userID, result.Severity, result.Score, result.Indicators); err != nil {
		slog.Error("failed to record crisis detection",
			"user_id", userID.String(), "error", err)
		metrics.RecordEscalationFailure("detection_record")
	}
}

func (p *Pipeline) raiseAlert(userID types.ID, result AnalysisResult) {
	if p.deps.Alerts == nil {
		return
	}

	alert := CrisisAlert{
		ID:         alertID(userID, p.clock(), p.config.DedupWindow),
		UserID:     userID,
		Severity:   result.Severity,
		Status:     AlertStatusActive,
		Indicators: result.Indicators,
		CreatedAt:  p.clock(),
	}

	ctx, cancel := p.stepContext()
	created, err := p.deps.Alerts.Create(ctx, alert)
	cancel()
	if err != nil {
		slog.Error("failed to create crisis alert",
			"user_id", userID.String(), "error", err)
		metrics.RecordEscalationFailure("alert_create")
		return
	}
	if !created {
		// A recent alert for this user already exists; the care team has
		// been notified once and does not need a duplicate page.
		metrics.RecordAlertDeduplicated()
		return
	}

	metrics.RecordAlertCreated(string(result.Severity))
	logging.WithAlert(alert.ID.String(), userID.String(), string(result.Severity)).Info("crisis alert created")

	p.publish("crisis.alert.created", userID, map[string]any{
		"alert_id": alert.ID.String(),
		"severity": string(result.Severity),
	})

	p.notifyCareTeam(alert)
}

func (p *Pipeline) notifyCareTeam(alert CrisisAlert) {
	if p.deps.CareTeam == nil || p.deps.Notifier == nil {
		return
	}

	ctx, cancel := p.stepContext()
	team, err := p.deps.CareTeam.Resolve(ctx, alert.UserID)
	cancel()
	if err != nil {
		slog.Error("failed to resolve care team",
			"user_id", alert.UserID.String(), "error", err)
		metrics.RecordEscalationFailure("care_team_resolve")
		return
	}

	members := team.Members()
	if len(members) == 0 {
		slog.Warn("no care team configured for user in crisis",
			"user_id", alert.UserID.String(), "alert_id", alert.ID.String())
		return
	}

	for _, member := range members {
		ctx, cancel := p.stepContext()
		err := p.deps.Notifier.Notify(ctx, alert.ID, member, alert.Severity)
		cancel()
		if err != nil {
			slog.Error("failed to notify care team member",
				"alert_id", alert.ID.String(),
				"recipient_role", member.Role, "error", err)
			metrics.RecordEscalationFailure("notify")
		}
	}
}

func (p *Pipeline) publish(eventType string, userID types.ID, data map[string]any) {
	if p.deps.Bus == nil {
		return
	}

	ctx, cancel := p.stepContext()
	defer cancel()

	event := events.NewEvent(eventType, "crisis", data).WithUser(userID)
	if err := p.deps.Bus.Publish(ctx, event); err != nil {
		slog.Warn("failed to publish crisis event",
			"event_type", eventType, "user_id", userID.String(), "error", err)
		metrics.RecordEscalationFailure("event_publish")
	}
}

func (p *Pipeline) stepContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), p.config.StepTimeout)
}

// alertID derives a deterministic alert identifier from the user and the
// start of the current deduplication window, so concurrent and repeated
// escalations for the same user collapse onto the same row.
func alertID(userID types.ID, now time.Time, window time.Duration) types.ID {
	windowStart := now.UTC().Truncate(window)
	return types.NewDeterministicID("crisis-alert", fmt.Sprintf("%s:%d", userID.String(), windowStart.Unix()))
}

// meetsEmergencyCriteria reports whether indicators include a phrase severe
// enough to warrant an emergency services review: a suicide indicator of
// weight 9 or above, or a violence indicator of weight 8 or above.
func meetsEmergencyCriteria(indicators []RiskIndicator) bool {
	for _, ind := range indicators {
		if ind.Category == CategorySuicide && ind.Weight >= 9 {
			return true
		}
		if ind.Category == CategoryViolence && ind.Weight >= 8 {
			return true
		}
	}
	return false
}
