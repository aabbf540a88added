package crisis

import "testing"

// TestMoodScoreRisk tests the single-rating risk band mapping
func TestMoodScoreRisk(t *testing.T) {
	tests := []struct {
		score    int
		expected float64
	}{
		{1, 8},
		{2, 8},
		{3, 5},
		{4, 3},
		{5, 1},
		{6, 0},
		{10, 0},
		{0, 0},  // out of range
		{11, 0}, // out of range
		{-3, 0}, // out of range
	}

	for _, tt := range tests {
		if got := moodScoreRisk(tt.score); got != tt.expected {
			t.Errorf("moodScoreRisk(%d): expected %f, got %f", tt.score, tt.expected, got)
		}
	}
}

// TestAnalyzeMoodPatternTooFewSamples tests that fewer than 3 samples is stable
func TestAnalyzeMoodPatternTooFewSamples(t *testing.T) {
	for _, scores := range [][]int{nil, {5}, {2, 9}} {
		p := analyzeMoodPattern(scores)
		if p.Trend != TrendStable {
			t.Errorf("Expected trend %s for %v, got %s", TrendStable, scores, p.Trend)
		}
		if p.Volatility != 0 {
			t.Errorf("Expected volatility 0 for %v, got %f", scores, p.Volatility)
		}
	}
}

// TestAnalyzeMoodPatternDeclining tests a clear recent drop
func TestAnalyzeMoodPatternDeclining(t *testing.T) {
	// most recent first: recent average 3, older average 7
	p := analyzeMoodPattern([]int{3, 3, 3, 7, 7, 7})

	if p.Trend != TrendDeclining {
		t.Errorf("Expected trend %s, got %s", TrendDeclining, p.Trend)
	}
}

// TestAnalyzeMoodPatternImproving tests a clear recent rise
func TestAnalyzeMoodPatternImproving(t *testing.T) {
	p := analyzeMoodPattern([]int{8, 8, 7, 4, 4, 4})

	if p.Trend != TrendImproving {
		t.Errorf("Expected trend %s, got %s", TrendImproving, p.Trend)
	}
}

// TestAnalyzeMoodPatternExactlyThreeSamples tests that with 3 samples the
// recent and older windows coincide, so the trend is stable
func TestAnalyzeMoodPatternExactlyThreeSamples(t *testing.T) {
	p := analyzeMoodPattern([]int{3, 4, 7})

	if p.Trend != TrendStable {
		t.Errorf("Expected trend %s, got %s", TrendStable, p.Trend)
	}
}

// TestAnalyzeMoodPatternVolatile tests high variance overrides direction
func TestAnalyzeMoodPatternVolatile(t *testing.T) {
	p := analyzeMoodPattern([]int{1, 9, 1, 9, 1, 9})

	if p.Trend != TrendVolatile {
		t.Errorf("Expected trend %s, got %s", TrendVolatile, p.Trend)
	}
	if p.Volatility <= 2 {
		t.Errorf("Expected volatility above 2, got %f", p.Volatility)
	}
}

// TestAnalyzeMoodPatternWindowTruncation tests only the 10 most recent
// samples count
func TestAnalyzeMoodPatternWindowTruncation(t *testing.T) {
	// Samples 11+ are a steep decline that must be ignored
	scores := []int{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 1, 1, 1}
	p := analyzeMoodPattern(scores)

	if p.Samples != 10 {
		t.Errorf("Expected 10 samples, got %d", p.Samples)
	}
	if p.Trend != TrendStable {
		t.Errorf("Expected trend %s, got %s", TrendStable, p.Trend)
	}
}

// TestHistoricalRisk tests the trend and alert-count contributions
func TestHistoricalRisk(t *testing.T) {
	tests := []struct {
		name     string
		trend    Trend
		alerts   int
		expected float64
	}{
		{"stable no alerts", TrendStable, 0, 0},
		{"declining", TrendDeclining, 0, 5},
		{"volatile", TrendVolatile, 0, 3},
		{"improving", TrendImproving, 0, 0},
		{"two alerts", TrendStable, 2, 4},
		{"alert cap", TrendStable, 9, 10},
		{"declining with capped alerts", TrendDeclining, 9, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := historicalRisk(moodPattern{Trend: tt.trend}, tt.alerts)
			if got != tt.expected {
				t.Errorf("Expected %f, got %f", tt.expected, got)
			}
		})
	}
}

// TestTrajectoryRiskLevel tests the read-side additive risk scale
func TestTrajectoryRiskLevel(t *testing.T) {
	tests := []struct {
		name     string
		pattern  moodPattern
		expected int
	}{
		{"stable", moodPattern{Trend: TrendStable}, 0},
		{"declining", moodPattern{Trend: TrendDeclining}, 30},
		{"volatile", moodPattern{Trend: TrendVolatile, Volatility: 3}, 35},
		{"declining high variance", moodPattern{Trend: TrendDeclining, Volatility: 2.5}, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trajectoryRiskLevel(tt.pattern); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}
