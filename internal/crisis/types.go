package crisis

import (
	"time"

	"github.com/mindhaven/platform/internal/shared/types"
)

// Category classifies a risk indicator
type Category string

const (
	CategorySuicide   Category = "suicide"
	CategorySelfHarm  Category = "self_harm"
	CategoryViolence  Category = "violence"
	CategorySubstance Category = "substance"
	CategoryEmotional Category = "emotional"
)

// Severity is the tier assigned to an aggregated risk score
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severity thresholds on the aggregated score. Boundary values belong to the
// higher tier: a score of exactly 10 is medium.
const (
	thresholdMedium   = 10.0
	thresholdHigh     = 20.0
	thresholdCritical = 30.0
)

// severityForScore classifies an aggregated score into a severity tier
func severityForScore(score float64) Severity {
	switch {
	case score >= thresholdCritical:
		return SeverityCritical
	case score >= thresholdHigh:
		return SeverityHigh
	case score >= thresholdMedium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Trend is the qualitative direction of a user's recent mood samples
type Trend string

const (
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
	TrendImproving Trend = "improving"
	TrendVolatile  Trend = "volatile"
)

// RiskIndicator is a weighted phrase matched against free text. The
// indicator catalogue is immutable after construction and safe to share
// across concurrent analyses.
type RiskIndicator struct {
	Phrase   string   `json:"phrase"`
	Weight   int      `json:"weight"`
	Category Category `json:"category"`
}

// ContextFlags are situational signals supplied by the caller
type ContextFlags struct {
	RecentLoss         bool `json:"recent_loss"`
	RelationshipIssues bool `json:"relationship_issues"`
	FinancialStress    bool `json:"financial_stress"`
	HealthIssues       bool `json:"health_issues"`
	Isolation          bool `json:"isolation"`
	SubstanceUse       bool `json:"substance_use"`
	PreviousAttempts   bool `json:"previous_attempts"`
}

// AnalysisInput is one unit of user activity to score. Every field is
// optional; absent fields contribute zero risk.
type AnalysisInput struct {
	Text      string        `json:"text,omitempty"`
	UserID    types.ID      `json:"user_id,omitempty"`
	MoodScore *int          `json:"mood_score,omitempty"` // 1..10
	Context   *ContextFlags `json:"context,omitempty"`
}

// AnalysisResult is the synchronous outcome of a risk analysis
type AnalysisResult struct {
	Severity          Severity        `json:"severity"`
	Score             float64         `json:"score"`
	Indicators        []RiskIndicator `json:"indicators"`
	Categories        []Category      `json:"categories"` // detection order, deduplicated
	RequiresImmediate bool            `json:"requires_immediate"`
	Recommendations   []string        `json:"recommendations"`
}

// HasCategory reports whether a category was detected
func (r AnalysisResult) HasCategory(c Category) bool {
	for _, cat := range r.Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// MoodSample is a single mood rating read from the mood-tracking store
type MoodSample struct {
	UserID    types.ID  `json:"user_id"`
	Score     int       `json:"score"` // 1..10
	CreatedAt time.Time `json:"created_at"`
}

// Trajectory summarizes a user's recent mood history for the read API
type Trajectory struct {
	Trend         Trend        `json:"trend"`
	Volatility    float64      `json:"volatility"`
	RiskLevel     int          `json:"risk_level"`
	RecentSamples []MoodSample `json:"recent_samples"`
}

// AlertStatus is the lifecycle state of a crisis alert
type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
)

// CrisisAlert is raised when a detection warrants professional escalation
type CrisisAlert struct {
	ID         types.ID        `json:"id"`
	UserID     types.ID        `json:"user_id,omitempty"`
	Severity   Severity        `json:"severity"`
	Status     AlertStatus     `json:"status"`
	Indicators []RiskIndicator `json:"indicators"`
	CreatedAt  time.Time       `json:"created_at"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
}

// Care team member roles
const (
	RoleTherapist        = "therapist"
	RolePsychiatrist     = "psychiatrist"
	RoleEmergencyContact = "emergency_contact"
)

// CareTeamMember is one professional or contact associated with a user
type CareTeamMember struct {
	ID      types.ID          `json:"id"`
	Role    string            `json:"role"`
	Contact types.ContactInfo `json:"contact"`
}

// CareTeam is the set of people notified when a user's alert fires
type CareTeam struct {
	UserID           types.ID        `json:"user_id"`
	Therapist        *CareTeamMember `json:"therapist,omitempty"`
	Psychiatrist     *CareTeamMember `json:"psychiatrist,omitempty"`
	EmergencyContact *CareTeamMember `json:"emergency_contact,omitempty"`
}

// Members returns the resolved members in notification order
func (t CareTeam) Members() []CareTeamMember {
	var members []CareTeamMember
	for _, m := range []*CareTeamMember{t.Therapist, t.Psychiatrist, t.EmergencyContact} {
		if m != nil {
			members = append(members, *m)
		}
	}
	return members
}
