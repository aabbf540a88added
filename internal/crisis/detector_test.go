package crisis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mindhaven/platform/internal/shared/types"
)

// daytime avoids the late-night context modifier in score assertions
var daytime = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

type fakeMoodHistory struct {
	samples []MoodSample
	err     error
}

func (f *fakeMoodHistory) Recent(ctx context.Context, userID types.ID, limit int) ([]MoodSample, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.samples) > limit {
		return f.samples[:limit], nil
	}
	return f.samples, nil
}

type fakeAlertHistory struct {
	count int
	err   error
}

func (f *fakeAlertHistory) CountSince(ctx context.Context, userID types.ID, since time.Duration) (int, error) {
	return f.count, f.err
}

type fakeAlertStore struct {
	created []CrisisAlert
	active  []CrisisAlert
	err     error
}

func (f *fakeAlertStore) Create(ctx context.Context, alert CrisisAlert) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, existing := range f.created {
		if existing.ID == alert.ID {
			return false, nil
		}
	}
	f.created = append(f.created, alert)
	return true, nil
}

func (f *fakeAlertStore) ListActive(ctx context.Context) ([]CrisisAlert, error) {
	return f.active, f.err
}

func moodSamples(scores ...int) []MoodSample {
	samples := make([]MoodSample, len(scores))
	now := time.Now()
	for i, s := range scores {
		samples[i] = MoodSample{Score: s, CreatedAt: now.Add(-time.Duration(i) * time.Hour)}
	}
	return samples
}

func newTestDetector(deps Dependencies) *Detector {
	d := NewDetector(DefaultLexicon(), deps, nil, DefaultDetectorConfig())
	d.clock = func() time.Time { return daytime }
	return d
}

func intPtr(n int) *int { return &n }

// TestSeverityForScoreBoundaries tests that boundary scores belong to the
// higher tier
func TestSeverityForScoreBoundaries(t *testing.T) {
	tests := []struct {
		score    float64
		expected Severity
	}{
		{0, SeverityLow},
		{9, SeverityLow},
		{9.99, SeverityLow},
		{10, SeverityMedium},
		{19, SeverityMedium},
		{20, SeverityHigh},
		{29, SeverityHigh},
		{30, SeverityCritical},
		{55, SeverityCritical},
	}

	for _, tt := range tests {
		if got := severityForScore(tt.score); got != tt.expected {
			t.Errorf("severityForScore(%f): expected %s, got %s", tt.score, tt.expected, got)
		}
	}
}

// TestAnalyzeEmptyInput tests that an input with no signals scores zero
func TestAnalyzeEmptyInput(t *testing.T) {
	d := newTestDetector(Dependencies{})

	result := d.Analyze(context.Background(), AnalysisInput{UserID: types.NewID()})

	if result.Score != 0 {
		t.Errorf("Expected score 0, got %f", result.Score)
	}
	if result.Severity != SeverityLow {
		t.Errorf("Expected severity %s, got %s", SeverityLow, result.Severity)
	}
	if result.RequiresImmediate {
		t.Error("Expected RequiresImmediate to be false")
	}
	if len(result.Recommendations) == 0 {
		t.Error("Expected low-severity recommendations")
	}
}

// TestAnalyzeSuicidePhraseRequiresImmediate tests that a suicide indicator
// forces immediate escalation regardless of tier
func TestAnalyzeSuicidePhraseRequiresImmediate(t *testing.T) {
	d := newTestDetector(Dependencies{})

	result := d.Analyze(context.Background(), AnalysisInput{
		UserID: types.NewID(),
		Text:   "I want to kill myself",
	})

	if result.Score != 10 {
		t.Errorf("Expected score 10, got %f", result.Score)
	}
	if result.Severity != SeverityMedium {
		t.Errorf("Expected severity %s, got %s", SeverityMedium, result.Severity)
	}
	if !result.RequiresImmediate {
		t.Error("Expected RequiresImmediate for a suicide indicator")
	}
}

// TestAnalyzeViolenceRequiresImmediate tests the violence category also
// forces immediate escalation
func TestAnalyzeViolenceRequiresImmediate(t *testing.T) {
	d := newTestDetector(Dependencies{})

	result := d.Analyze(context.Background(), AnalysisInput{
		UserID: types.NewID(),
		Text:   "I am going to hurt them",
	})

	if result.Severity != SeverityLow {
		t.Errorf("Expected severity %s, got %s", SeverityLow, result.Severity)
	}
	if !result.RequiresImmediate {
		t.Error("Expected RequiresImmediate for a violence indicator")
	}
}

// TestAnalyzeMoodScoreAlone tests a very low mood rating on its own
func TestAnalyzeMoodScoreAlone(t *testing.T) {
	d := newTestDetector(Dependencies{})

	result := d.Analyze(context.Background(), AnalysisInput{
		UserID:    types.NewID(),
		MoodScore: intPtr(2),
	})

	if result.Score != 8 {
		t.Errorf("Expected score 8, got %f", result.Score)
	}
	if result.Severity != SeverityLow {
		t.Errorf("Expected severity %s, got %s", SeverityLow, result.Severity)
	}
	if result.RequiresImmediate {
		t.Error("Expected RequiresImmediate to be false")
	}
}

// TestAnalyzeMoodWithContext tests mood and context contributions add
func TestAnalyzeMoodWithContext(t *testing.T) {
	d := newTestDetector(Dependencies{})

	result := d.Analyze(context.Background(), AnalysisInput{
		UserID:    types.NewID(),
		MoodScore: intPtr(1),
		Context:   &ContextFlags{PreviousAttempts: true},
	})

	// 8 for the rating, 8 for previous attempts
	if result.Score != 16 {
		t.Errorf("Expected score 16, got %f", result.Score)
	}
	if result.Severity != SeverityMedium {
		t.Errorf("Expected severity %s, got %s", SeverityMedium, result.Severity)
	}
}

// TestAnalyzeLateNightModifier tests the time-of-day contribution
func TestAnalyzeLateNightModifier(t *testing.T) {
	d := newTestDetector(Dependencies{})
	d.clock = func() time.Time {
		return time.Date(2026, 3, 10, 2, 30, 0, 0, time.UTC)
	}

	result := d.Analyze(context.Background(), AnalysisInput{
		UserID:  types.NewID(),
		Context: &ContextFlags{Isolation: true},
	})

	// 4 for isolation, 2 for the late hour
	if result.Score != 6 {
		t.Errorf("Expected score 6, got %f", result.Score)
	}
}

// TestAnalyzeHistoricalContribution tests declining mood history and recent
// alerts feed into the score
func TestAnalyzeHistoricalContribution(t *testing.T) {
	d := newTestDetector(Dependencies{
		MoodHistory:  &fakeMoodHistory{samples: moodSamples(3, 3, 3, 7, 7, 7)},
		AlertHistory: &fakeAlertHistory{count: 2},
	})

	result := d.Analyze(context.Background(), AnalysisInput{UserID: types.NewID()})

	// 5 for the declining trend, 4 for two recent alerts
	if result.Score != 9 {
		t.Errorf("Expected score 9, got %f", result.Score)
	}
}

// TestAnalyzeAllSignalsAdd tests the aggregate of every contribution
func TestAnalyzeAllSignalsAdd(t *testing.T) {
	d := newTestDetector(Dependencies{
		MoodHistory:  &fakeMoodHistory{samples: moodSamples(3, 3, 3, 7, 7, 7)},
		AlertHistory: &fakeAlertHistory{count: 1},
	})

	result := d.Analyze(context.Background(), AnalysisInput{
		UserID:    types.NewID(),
		Text:      "I feel hopeless",
		MoodScore: intPtr(2),
		Context:   &ContextFlags{Isolation: true},
	})

	// 5 text, 8 mood, 4 isolation, 5 declining, 2 one alert
	if result.Score != 24 {
		t.Errorf("Expected score 24, got %f", result.Score)
	}
	if result.Severity != SeverityHigh {
		t.Errorf("Expected severity %s, got %s", SeverityHigh, result.Severity)
	}
}

// TestAnalyzeDegradesOnReadFailure tests that collaborator outages drop the
// historical contribution instead of failing the analysis
func TestAnalyzeDegradesOnReadFailure(t *testing.T) {
	d := newTestDetector(Dependencies{
		MoodHistory:  &fakeMoodHistory{err: fmt.Errorf("connection refused")},
		AlertHistory: &fakeAlertHistory{count: 5},
	})

	result := d.Analyze(context.Background(), AnalysisInput{
		UserID: types.NewID(),
		Text:   "I want to kill myself",
	})

	if result.Score != 10 {
		t.Errorf("Expected score 10, got %f", result.Score)
	}
	if !result.RequiresImmediate {
		t.Error("Expected RequiresImmediate despite the read failure")
	}
}

// TestAnalyzeAlertCountFailureCountsZero tests a failing alert counter
// contributes zero while mood history still scores
func TestAnalyzeAlertCountFailureCountsZero(t *testing.T) {
	d := newTestDetector(Dependencies{
		MoodHistory:  &fakeMoodHistory{samples: moodSamples(3, 3, 3, 7, 7, 7)},
		AlertHistory: &fakeAlertHistory{err: fmt.Errorf("timeout")},
	})

	result := d.Analyze(context.Background(), AnalysisInput{UserID: types.NewID()})

	if result.Score != 5 {
		t.Errorf("Expected score 5, got %f", result.Score)
	}
}

// TestAnalyzeOutOfRangeMoodScore tests invalid ratings are ignored
func TestAnalyzeOutOfRangeMoodScore(t *testing.T) {
	d := newTestDetector(Dependencies{})

	result := d.Analyze(context.Background(), AnalysisInput{
		UserID:    types.NewID(),
		MoodScore: intPtr(0),
	})

	if result.Score != 0 {
		t.Errorf("Expected score 0, got %f", result.Score)
	}
}

// TestMoodTrajectory tests the trajectory read API
func TestMoodTrajectory(t *testing.T) {
	samples := moodSamples(3, 3, 3, 7, 7, 7)
	d := newTestDetector(Dependencies{
		MoodHistory: &fakeMoodHistory{samples: samples},
	})

	trajectory, err := d.MoodTrajectory(context.Background(), types.NewID())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if trajectory.Trend != TrendDeclining {
		t.Errorf("Expected trend %s, got %s", TrendDeclining, trajectory.Trend)
	}
	if trajectory.RiskLevel != 30 {
		t.Errorf("Expected risk level 30, got %d", trajectory.RiskLevel)
	}
	if len(trajectory.RecentSamples) != len(samples) {
		t.Errorf("Expected %d samples, got %d", len(samples), len(trajectory.RecentSamples))
	}
}

// TestMoodTrajectoryNoReader tests trajectory reads fail without a history source
func TestMoodTrajectoryNoReader(t *testing.T) {
	d := newTestDetector(Dependencies{})

	if _, err := d.MoodTrajectory(context.Background(), types.NewID()); err == nil {
		t.Error("Expected an error without a mood history reader")
	}
}

// TestActiveAlerts tests the active-alert read-through
func TestActiveAlerts(t *testing.T) {
	store := &fakeAlertStore{active: []CrisisAlert{
		{ID: types.NewID(), Severity: SeverityCritical, Status: AlertStatusActive},
	}}
	d := newTestDetector(Dependencies{Alerts: store})

	alerts, err := d.ActiveAlerts(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(alerts) != 1 {
		t.Errorf("Expected 1 alert, got %d", len(alerts))
	}
}
