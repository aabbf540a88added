package crisis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mindhaven/platform/internal/shared/metrics"
	"github.com/mindhaven/platform/internal/shared/types"
)

// DetectorConfig holds detector tunables
type DetectorConfig struct {
	// HistoryWindow is how far back crisis alerts count toward historical risk
	HistoryWindow time.Duration
	// MoodSampleLimit is the number of recent mood samples read per analysis
	MoodSampleLimit int
}

// DefaultDetectorConfig returns sensible defaults
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		HistoryWindow:   30 * 24 * time.Hour,
		MoodSampleLimit: 10,
	}
}

// Dependencies are the read-side collaborators. Any of them may be nil;
// analysis degrades to the remaining signals.
type Dependencies struct {
	MoodHistory  MoodHistoryReader
	AlertHistory AlertHistoryReader
	Alerts       AlertStore
}

// Detector computes bounded risk scores from user activity and hands
// qualifying detections to the escalation pipeline. Stateless per call and
// safe for concurrent use.
type Detector struct {
	lexicon  *Lexicon
	deps     Dependencies
	pipeline *Pipeline
	config   DetectorConfig

	clock func() time.Time
}

// NewDetector creates a detector. The pipeline may be nil, in which case
// detections are scored and returned but never escalated.
func NewDetector(lexicon *Lexicon, deps Dependencies, pipeline *Pipeline, config DetectorConfig) *Detector {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &Detector{
		lexicon:  lexicon,
		deps:     deps,
		pipeline: pipeline,
		config:   config,
		clock:    time.Now,
	}
}

// Analyze scores one unit of user activity. It never fails: absent inputs
// contribute zero and collaborator outages degrade to the remaining
// signals, so the caller always receives a severity and recommendations.
// Escalation side effects are dispatched in the background and do not delay
// the returned result.
func (d *Detector) Analyze(ctx context.Context, input AnalysisInput) AnalysisResult {
	start := time.Now()

	// The three analyzers are independent and read-only; run them
	// concurrently and join before aggregation.
	var (
		text     textMatch
		ctxRisk  float64
		histRisk float64
		wg       sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		text = d.lexicon.Match(input.Text)
	}()
	go func() {
		defer wg.Done()
		ctxRisk = contextRisk(input.Context, d.clock())
	}()
	go func() {
		defer wg.Done()
		histRisk = d.historicalRisk(ctx, input.UserID)
	}()
	wg.Wait()

	score := text.score + ctxRisk + histRisk
	if input.MoodScore != nil {
		score += moodScoreRisk(*input.MoodScore)
	}

	severity := severityForScore(score)

	result := AnalysisResult{
		Severity:          severity,
		Score:             score,
		Indicators:        text.indicators,
		Categories:        text.categories,
		RequiresImmediate: severity == SeverityCritical || containsCategory(text.categories, CategorySuicide) || containsCategory(text.categories, CategoryViolence),
		Recommendations:   recommendations(severity, text.categories),
	}

	metrics.RecordAnalysis(string(severity), time.Since(start))

	if d.pipeline != nil {
		d.pipeline.Dispatch(input.UserID, result)
	}

	return result
}

// historicalRisk reads mood history and recent alert counts. Read failures
// are logged and contribute zero; scoring proceeds on the remaining signals.
func (d *Detector) historicalRisk(ctx context.Context, userID types.ID) float64 {
	if userID.IsZero() || d.deps.MoodHistory == nil {
		return 0
	}

	samples, err := d.deps.MoodHistory.Recent(ctx, userID, d.config.MoodSampleLimit)
	if err != nil {
		slog.Warn("mood history unavailable, skipping historical risk",
			"user_id", userID.String(), "error", err)
		return 0
	}

	alertCount := 0
	if d.deps.AlertHistory != nil {
		alertCount, err = d.deps.AlertHistory.CountSince(ctx, userID, d.config.HistoryWindow)
		if err != nil {
			slog.Warn("alert history unavailable, counting zero recent alerts",
				"user_id", userID.String(), "error", err)
			alertCount = 0
		}
	}

	return historicalRisk(analyzeMoodPattern(sampleScores(samples)), alertCount)
}

// MoodTrajectory summarizes a user's recent mood history for clinical review
func (d *Detector) MoodTrajectory(ctx context.Context, userID types.ID) (Trajectory, error) {
	if d.deps.MoodHistory == nil {
		return Trajectory{}, fmt.Errorf("mood history reader not configured")
	}

	samples, err := d.deps.MoodHistory.Recent(ctx, userID, d.config.MoodSampleLimit)
	if err != nil {
		return Trajectory{}, fmt.Errorf("failed to read mood history: %w", err)
	}

	p := analyzeMoodPattern(sampleScores(samples))
	return Trajectory{
		Trend:         p.Trend,
		Volatility:    p.Volatility,
		RiskLevel:     trajectoryRiskLevel(p),
		RecentSamples: samples,
	}, nil
}

// ActiveAlerts returns unresolved alerts, read through to the alert store
func (d *Detector) ActiveAlerts(ctx context.Context) ([]CrisisAlert, error) {
	if d.deps.Alerts == nil {
		return nil, fmt.Errorf("alert store not configured")
	}
	return d.deps.Alerts.ListActive(ctx)
}

func sampleScores(samples []MoodSample) []int {
	scores := make([]int, len(samples))
	for i, s := range samples {
		scores[i] = s.Score
	}
	return scores
}

func containsCategory(categories []Category, c Category) bool {
	for _, existing := range categories {
		if existing == c {
			return true
		}
	}
	return false
}
