package completion

import "fmt"

// Factor weights. Scroll depth is the most reliable single signal, so it
// carries the largest share; the three must sum to 1.0.
const (
	WeightTime        = 0.30
	WeightScroll      = 0.40
	WeightInteraction = 0.30
)

// Threshold is the composite score at which a chapter counts as completed.
const Threshold = 0.75

const (
	expectedSecondsPerPage = 60
	baselinePages          = 10
	secondsPerInteraction  = 120
)

// Verdict is the outcome of a completion estimate. Component scores are each
// in [0,1]; CompositeScore is their fixed weighted combination.
type Verdict struct {
	IsCompleted      bool    `json:"is_completed"`
	CompositeScore   float64 `json:"composite_score"`
	TimeScore        float64 `json:"time_score"`
	ScrollScore      float64 `json:"scroll_score"`
	InteractionScore float64 `json:"interaction_score"`
	Method           string  `json:"method"`
}

// Estimate converts reading-session telemetry into a completion verdict.
// Callers validate ranges (timeSpent >= 0, scrollPct in [0,100]) before
// calling; each component score is capped at 1.0 regardless.
func Estimate(timeSpentSeconds int, scrollPct float64, interactions int, estimatedPages int) Verdict {
	timeScore := timeScoreFor(timeSpentSeconds, estimatedPages)
	scrollScore := scrollScoreFor(scrollPct)
	interactionScore := interactionScoreFor(interactions, timeSpentSeconds)

	composite := timeScore*WeightTime + scrollScore*WeightScroll + interactionScore*WeightInteraction

	return Verdict{
		IsCompleted:      composite >= Threshold,
		CompositeScore:   composite,
		TimeScore:        timeScore,
		ScrollScore:      scrollScore,
		InteractionScore: interactionScore,
		Method: fmt.Sprintf("multi_factor_v1|time:%.2f|scroll:%.2f|interact:%.2f|composite:%.2f",
			timeScore, scrollScore, interactionScore, composite),
	}
}

// timeScoreFor rewards dwell time proportional to the expected reading
// duration (one minute per page), capped so idle sessions left open don't
// accumulate credit.
func timeScoreFor(timeSpentSeconds, estimatedPages int) float64 {
	expected := estimatedPages * expectedSecondsPerPage
	if expected == 0 {
		expected = baselinePages * expectedSecondsPerPage
	}
	score := float64(timeSpentSeconds) / float64(expected)
	if score > 1.0 {
		return 1.0
	}
	return score
}

func scrollScoreFor(scrollPct float64) float64 {
	score := scrollPct / 100.0
	if score > 1.0 {
		return 1.0
	}
	return score
}

// interactionScoreFor expects roughly one text selection per two minutes of
// active reading. The expected count is floored at 1 so short sessions
// aren't penalized, and the ratio is capped — over-selecting doesn't mean
// more learning.
func interactionScoreFor(interactions, timeSpentSeconds int) float64 {
	if timeSpentSeconds == 0 {
		return 0.0
	}
	expected := float64(timeSpentSeconds) / secondsPerInteraction
	if expected < 1 {
		expected = 1
	}
	score := float64(interactions) / expected
	if score > 1.0 {
		return 1.0
	}
	return score
}

const (
	avgBytesPerPage = 50 * 1024
	minPageEstimate = 5
	maxPageEstimate = 50
)

// EstimatePageCount guesses a chapter's page count from its PDF size,
// assuming ~50KB per page for text-heavy PDFs. Advisory only — used when no
// authoritative count is known. Clamped to a reasonable chapter length.
func EstimatePageCount(fileSizeBytes int64) int {
	pages := int(fileSizeBytes / avgBytesPerPage)
	if pages < minPageEstimate {
		return minPageEstimate
	}
	if pages > maxPageEstimate {
		return maxPageEstimate
	}
	return pages
}
