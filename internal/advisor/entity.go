package advisor

// Analysis is the evaluation of one progress update. Percentage is always
// within [0, 100].
type Analysis struct {
	Percentage float64 `json:"percentage"`
	Analysis   string  `json:"analysis"`
}

const (
	unavailableAnalysis = "AI analysis unavailable"
	failedAnalysis      = "Error analyzing progress"
	unparsableAnalysis  = "Unable to analyze progress"
)
