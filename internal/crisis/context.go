package crisis

import "time"

// contextRisk converts situational flags into an additive risk contribution.
// The late-night addend lives here and nowhere else: it only applies when
// the caller supplied context flags, so it is never counted twice.
func contextRisk(flags *ContextFlags, now time.Time) float64 {
	if flags == nil {
		return 0
	}

	var risk float64
	if flags.RecentLoss {
		risk += 5
	}
	if flags.RelationshipIssues {
		risk += 3
	}
	if flags.FinancialStress {
		risk += 3
	}
	if flags.HealthIssues {
		risk += 3
	}
	if flags.Isolation {
		risk += 4
	}
	if flags.SubstanceUse {
		risk += 4
	}
	if flags.PreviousAttempts {
		risk += 8
	}

	if isLateNight(now.Hour()) {
		risk += 2
	}

	return risk
}

// isLateNight covers 23:00 through 04:59, the window with elevated crisis
// line volume
func isLateNight(hour int) bool {
	return hour >= 23 || hour <= 4
}
