package crisis

// severityRecommendations are the base action lists per tier
var severityRecommendations = map[Severity][]string{
	SeverityCritical: {
		"Immediate professional intervention required",
		"Contact the 988 Suicide & Crisis Lifeline (call or text 988)",
		"Notify emergency contacts",
		"Consider contacting emergency services",
	},
	SeverityHigh: {
		"Schedule an urgent therapy session",
		"Activate the safety plan",
		"Remove access to means of harm",
		"Arrange 24-hour support",
	},
	SeverityMedium: {
		"Schedule a therapy session within 24-48 hours",
		"Increase check-in frequency",
		"Review coping strategies",
		"Connect with the support network",
	},
	SeverityLow: {
		"Continue the regular therapy schedule",
		"Practice self-care activities",
		"Monitor mood changes",
	},
}

// categoryRecommendations are appended per detected category, in detection
// order. Emotional indicators carry no extra block beyond the severity base.
var categoryRecommendations = map[Category][]string{
	CategorySuicide: {
		"Create or review a safety plan together",
		"Ensure the person is not left alone",
		"Secure or remove lethal means",
	},
	CategorySelfHarm: {
		"Remove or secure sharp objects and medications",
		"Practice alternative coping techniques (ice, rubber band, drawing)",
	},
	CategorySubstance: {
		"Contact a substance abuse counselor",
		"Call the SAMHSA helpline (1-800-662-4357)",
		"Avoid being alone while using",
	},
	CategoryViolence: {
		"Ensure the safety of potential targets",
		"Engage the crisis intervention team",
		"Remove access to weapons",
	},
}

// recommendations builds the ordered action list for a result
func recommendations(severity Severity, categories []Category) []string {
	recs := make([]string, 0, 8)
	recs = append(recs, severityRecommendations[severity]...)
	for _, c := range categories {
		recs = append(recs, categoryRecommendations[c]...)
	}
	return recs
}
