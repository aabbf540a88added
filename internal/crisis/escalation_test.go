package crisis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mindhaven/platform/internal/shared/types"
)

type recordingDetectionLogger struct {
	mu      sync.Mutex
	records int
	err     error
}

func (r *recordingDetectionLogger) Record(ctx context.Context, userID types.ID, severity Severity, score float64, indicators []RiskIndicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records++
	return nil
}

func (r *recordingDetectionLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records
}

type recordingAlertStore struct {
	mu      sync.Mutex
	created []CrisisAlert
	err     error
}

func (r *recordingAlertStore) Create(ctx context.Context, alert CrisisAlert) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	for _, existing := range r.created {
		if existing.ID == alert.ID {
			return false, nil
		}
	}
	r.created = append(r.created, alert)
	return true, nil
}

func (r *recordingAlertStore) ListActive(ctx context.Context) ([]CrisisAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created, nil
}

func (r *recordingAlertStore) alerts() []CrisisAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CrisisAlert(nil), r.created...)
}

type staticCareTeam struct {
	team CareTeam
	err  error
}

func (s *staticCareTeam) Resolve(ctx context.Context, userID types.ID) (CareTeam, error) {
	return s.team, s.err
}

type recordingNotifier struct {
	mu    sync.Mutex
	roles []string
	err   error
}

func (r *recordingNotifier) Notify(ctx context.Context, alertID types.ID, recipient CareTeamMember, severity Severity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.roles = append(r.roles, recipient.Role)
	return nil
}

func (r *recordingNotifier) notified() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.roles...)
}

func fullCareTeam(userID types.ID) CareTeam {
	return CareTeam{
		UserID:           userID,
		Therapist:        &CareTeamMember{ID: types.NewID(), Role: RoleTherapist, Contact: contactWithEmail("therapist@clinic.example")},
		Psychiatrist:     &CareTeamMember{ID: types.NewID(), Role: RolePsychiatrist, Contact: contactWithEmail("psychiatrist@clinic.example")},
		EmergencyContact: &CareTeamMember{ID: types.NewID(), Role: RoleEmergencyContact, Contact: contactWithEmail("family@example.com")},
	}
}

func contactWithEmail(email string) types.ContactInfo {
	return types.ContactInfo{Email: email}
}

func criticalResult() AnalysisResult {
	return AnalysisResult{
		Severity: SeverityCritical,
		Score:    35,
		Indicators: []RiskIndicator{
			{Phrase: "kill myself", Weight: 10, Category: CategorySuicide},
		},
		Categories:        []Category{CategorySuicide},
		RequiresImmediate: true,
	}
}

func newTestPipeline(deps PipelineDeps) *Pipeline {
	p := NewPipeline(deps, DefaultPipelineConfig())
	p.clock = func() time.Time { return daytime }
	return p
}

// TestPipelineLowSeverityNoSideEffects tests that low severity detections
// produce no records, alerts, or notifications
func TestPipelineLowSeverityNoSideEffects(t *testing.T) {
	detections := &recordingDetectionLogger{}
	alerts := &recordingAlertStore{}
	notifier := &recordingNotifier{}

	p := newTestPipeline(PipelineDeps{
		Detections: detections,
		Alerts:     alerts,
		CareTeam:   &staticCareTeam{},
		Notifier:   notifier,
	})

	p.Dispatch(types.NewID(), AnalysisResult{Severity: SeverityLow, Score: 3})
	p.Shutdown()

	if detections.count() != 0 {
		t.Errorf("Expected no detection records, got %d", detections.count())
	}
	if len(alerts.alerts()) != 0 {
		t.Errorf("Expected no alerts, got %d", len(alerts.alerts()))
	}
	if len(notifier.notified()) != 0 {
		t.Errorf("Expected no notifications, got %d", len(notifier.notified()))
	}
}

// TestPipelineMediumRecordsWithoutAlert tests that a medium detection that
// does not require immediate escalation is recorded but raises no alert
func TestPipelineMediumRecordsWithoutAlert(t *testing.T) {
	detections := &recordingDetectionLogger{}
	alerts := &recordingAlertStore{}

	p := newTestPipeline(PipelineDeps{
		Detections: detections,
		Alerts:     alerts,
	})

	p.Dispatch(types.NewID(), AnalysisResult{
		Severity:   SeverityMedium,
		Score:      13,
		Categories: []Category{CategoryEmotional},
	})
	p.Shutdown()

	if detections.count() != 1 {
		t.Errorf("Expected 1 detection record, got %d", detections.count())
	}
	if len(alerts.alerts()) != 0 {
		t.Errorf("Expected no alerts, got %d", len(alerts.alerts()))
	}
}

// TestPipelineCriticalNotifiesCareTeam tests the full escalation path
func TestPipelineCriticalNotifiesCareTeam(t *testing.T) {
	userID := types.NewID()
	detections := &recordingDetectionLogger{}
	alerts := &recordingAlertStore{}
	notifier := &recordingNotifier{}

	p := newTestPipeline(PipelineDeps{
		Detections: detections,
		Alerts:     alerts,
		CareTeam:   &staticCareTeam{team: fullCareTeam(userID)},
		Notifier:   notifier,
	})

	p.Dispatch(userID, criticalResult())
	p.Shutdown()

	created := alerts.alerts()
	if len(created) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(created))
	}
	if created[0].UserID != userID {
		t.Errorf("Expected alert for user %s, got %s", userID, created[0].UserID)
	}
	if created[0].Status != AlertStatusActive {
		t.Errorf("Expected status %s, got %s", AlertStatusActive, created[0].Status)
	}

	notified := notifier.notified()
	expected := []string{RoleTherapist, RolePsychiatrist, RoleEmergencyContact}
	if len(notified) != len(expected) {
		t.Fatalf("Expected %d notifications, got %d", len(expected), len(notified))
	}
	for i, role := range expected {
		if notified[i] != role {
			t.Errorf("Expected notification %d for %s, got %s", i, role, notified[i])
		}
	}
}

// TestPipelineAlertDeduplication tests rapid repeated triggers collapse into
// one alert and one round of notifications
func TestPipelineAlertDeduplication(t *testing.T) {
	userID := types.NewID()
	alerts := &recordingAlertStore{}
	notifier := &recordingNotifier{}

	p := newTestPipeline(PipelineDeps{
		Alerts:   alerts,
		CareTeam: &staticCareTeam{team: fullCareTeam(userID)},
		Notifier: notifier,
	})

	p.Dispatch(userID, criticalResult())
	p.Dispatch(userID, criticalResult())
	p.Dispatch(userID, criticalResult())
	p.Shutdown()

	if len(alerts.alerts()) != 1 {
		t.Errorf("Expected 1 deduplicated alert, got %d", len(alerts.alerts()))
	}
	if len(notifier.notified()) != 3 {
		t.Errorf("Expected one notification per care team member, got %d", len(notifier.notified()))
	}
}

// TestPipelineSeparateWindowsSeparateAlerts tests a trigger in a later
// window raises a fresh alert
func TestPipelineSeparateWindowsSeparateAlerts(t *testing.T) {
	userID := types.NewID()
	alerts := &recordingAlertStore{}

	p := newTestPipeline(PipelineDeps{Alerts: alerts})

	p.Dispatch(userID, criticalResult())
	p.Shutdown()

	later := NewPipeline(PipelineDeps{Alerts: alerts}, DefaultPipelineConfig())
	later.clock = func() time.Time { return daytime.Add(16 * time.Minute) }
	later.Dispatch(userID, criticalResult())
	later.Shutdown()

	if len(alerts.alerts()) != 2 {
		t.Errorf("Expected 2 alerts across windows, got %d", len(alerts.alerts()))
	}
}

// TestPipelineDistinctUsersDistinctAlerts tests deduplication is per user
func TestPipelineDistinctUsersDistinctAlerts(t *testing.T) {
	alerts := &recordingAlertStore{}

	p := newTestPipeline(PipelineDeps{Alerts: alerts})
	p.Dispatch(types.NewID(), criticalResult())
	p.Dispatch(types.NewID(), criticalResult())
	p.Shutdown()

	if len(alerts.alerts()) != 2 {
		t.Errorf("Expected 2 alerts for distinct users, got %d", len(alerts.alerts()))
	}
}

// TestPipelineFailuresDoNotCascade tests a failing collaborator never stops
// the remaining steps
func TestPipelineFailuresDoNotCascade(t *testing.T) {
	userID := types.NewID()
	detections := &recordingDetectionLogger{err: fmt.Errorf("insert failed")}
	alerts := &recordingAlertStore{}
	notifier := &recordingNotifier{}

	p := newTestPipeline(PipelineDeps{
		Detections: detections,
		Alerts:     alerts,
		CareTeam:   &staticCareTeam{team: fullCareTeam(userID)},
		Notifier:   notifier,
	})

	p.Dispatch(userID, criticalResult())
	p.Shutdown()

	if len(alerts.alerts()) != 1 {
		t.Errorf("Expected alert despite detection record failure, got %d", len(alerts.alerts()))
	}
	if len(notifier.notified()) != 3 {
		t.Errorf("Expected notifications despite detection record failure, got %d", len(notifier.notified()))
	}
}

// TestPipelineCareTeamFailureSkipsNotify tests an unresolvable care team
// still leaves the alert in place
func TestPipelineCareTeamFailureSkipsNotify(t *testing.T) {
	userID := types.NewID()
	alerts := &recordingAlertStore{}
	notifier := &recordingNotifier{}

	p := newTestPipeline(PipelineDeps{
		Alerts:   alerts,
		CareTeam: &staticCareTeam{err: fmt.Errorf("lookup failed")},
		Notifier: notifier,
	})

	p.Dispatch(userID, criticalResult())
	p.Shutdown()

	if len(alerts.alerts()) != 1 {
		t.Errorf("Expected 1 alert, got %d", len(alerts.alerts()))
	}
	if len(notifier.notified()) != 0 {
		t.Errorf("Expected no notifications, got %d", len(notifier.notified()))
	}
}

// TestPipelineDropsAfterShutdown tests dispatches after shutdown are ignored
func TestPipelineDropsAfterShutdown(t *testing.T) {
	alerts := &recordingAlertStore{}
	p := newTestPipeline(PipelineDeps{Alerts: alerts})

	p.Shutdown()
	p.Dispatch(types.NewID(), criticalResult())

	if len(alerts.alerts()) != 0 {
		t.Errorf("Expected no alerts after shutdown, got %d", len(alerts.alerts()))
	}
}

// TestMeetsEmergencyCriteria tests the emergency threshold per category
func TestMeetsEmergencyCriteria(t *testing.T) {
	tests := []struct {
		name       string
		indicators []RiskIndicator
		expected   bool
	}{
		{"no indicators", nil, false},
		{"suicide at threshold", []RiskIndicator{{Phrase: "suicide", Weight: 9, Category: CategorySuicide}}, true},
		{"suicide below threshold", []RiskIndicator{{Phrase: "end it all", Weight: 7, Category: CategorySuicide}}, false},
		{"violence at threshold", []RiskIndicator{{Phrase: "they deserve to suffer", Weight: 8, Category: CategoryViolence}}, true},
		{"violence below threshold", []RiskIndicator{{Phrase: "hurt them", Weight: 7, Category: CategoryViolence}}, false},
		{"heavy emotional", []RiskIndicator{{Phrase: "hopeless", Weight: 10, Category: CategoryEmotional}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := meetsEmergencyCriteria(tt.indicators); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// TestAlertIDDeterministic tests the idempotency key derivation
func TestAlertIDDeterministic(t *testing.T) {
	userID := types.NewID()
	now := daytime

	a := alertID(userID, now, 15*time.Minute)
	b := alertID(userID, now.Add(5*time.Minute), 15*time.Minute)
	if a != b {
		t.Error("Expected the same ID within one window")
	}

	c := alertID(userID, now.Add(20*time.Minute), 15*time.Minute)
	if a == c {
		t.Error("Expected different IDs across windows")
	}

	d := alertID(types.NewID(), now, 15*time.Minute)
	if a == d {
		t.Error("Expected different IDs for different users")
	}
}
