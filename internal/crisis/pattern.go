package crisis

import "math"

// trendWindow is the number of most-recent samples examined for trend
const trendWindow = 10

// moodScoreRisk maps a single mood rating to its risk contribution.
// Ratings outside 1..10 are ignored.
func moodScoreRisk(score int) float64 {
	if score < 1 || score > 10 {
		return 0
	}
	switch {
	case score <= 2:
		return 8
	case score <= 3:
		return 5
	case score <= 4:
		return 3
	case score <= 5:
		return 1
	default:
		return 0
	}
}

// moodPattern summarizes a window of mood scores
type moodPattern struct {
	Trend      Trend
	Volatility float64
	RecentAvg  float64
	OlderAvg   float64
	Samples    int
}

// analyzeMoodPattern classifies a mood time series. Scores are ordered most
// recent first; fewer than 3 samples always classify as stable.
func analyzeMoodPattern(scores []int) moodPattern {
	p := moodPattern{Trend: TrendStable, Samples: len(scores)}
	if len(scores) < 3 {
		return p
	}
	if len(scores) > trendWindow {
		scores = scores[:trendWindow]
		p.Samples = trendWindow
	}

	p.RecentAvg = mean(scores[:3])
	p.OlderAvg = mean(scores[len(scores)-3:])

	// Population standard deviation over the window. Kept under the
	// "volatility" name so the magnitude threshold below reads naturally.
	overall := mean(scores)
	var sumSq float64
	for _, s := range scores {
		d := float64(s) - overall
		sumSq += d * d
	}
	p.Volatility = math.Sqrt(sumSq / float64(len(scores)))

	switch {
	case p.Volatility > 2:
		p.Trend = TrendVolatile
	case p.RecentAvg < p.OlderAvg-1:
		p.Trend = TrendDeclining
	case p.RecentAvg > p.OlderAvg+1:
		p.Trend = TrendImproving
	}

	return p
}

// historicalRisk combines trend risk with recent alert history. The alert
// contribution is capped so a long alert history cannot dominate fresh signals.
func historicalRisk(p moodPattern, recentAlertCount int) float64 {
	var risk float64
	switch p.Trend {
	case TrendDeclining:
		risk += 5
	case TrendVolatile:
		risk += 3
	}
	risk += math.Min(float64(recentAlertCount)*2, 10)
	return risk
}

// trajectoryRiskLevel is the additive risk scale exposed by the
// mood-trajectory read API, distinct from the analysis score.
func trajectoryRiskLevel(p moodPattern) int {
	level := 0
	if p.Trend == TrendDeclining {
		level += 30
	}
	if p.Trend == TrendVolatile {
		level += 20
	}
	if p.Volatility > 2 {
		level += 15
	}
	return level
}

func mean(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}
