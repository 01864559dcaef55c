package grading

import (
	"strings"

	"github.com/chapterquiz/backend/internal/models"
)

// WeakTopicThreshold marks a topic weak when its mean raw score falls
// strictly below this value.
const WeakTopicThreshold = 0.6

// fallbackKeywordGrading is the deterministic short-answer fallback when the
// oracle is unavailable: score by how many reference-answer keywords (tokens
// longer than three characters) appear in the submitted text.
func fallbackKeywordGrading(referenceAnswer, submitted string) outcome {
	submittedLower := strings.ToLower(submitted)

	keywords := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(referenceAnswer)) {
		if len(word) > 3 {
			keywords[word] = true
		}
	}

	if len(keywords) == 0 {
		return outcome{0.5, "Unable to grade automatically", false}
	}

	matches := 0
	for keyword := range keywords {
		if strings.Contains(submittedLower, keyword) {
			matches++
		}
	}

	score := float64(matches) / float64(len(keywords))
	switch {
	case score >= 0.7:
		return outcome{score, "Good answer covering key points", true}
	case score >= 0.4:
		return outcome{score, "Partial answer, missing some key concepts", false}
	default:
		return outcome{score, "Answer missing most key concepts", false}
	}
}

// weakTopicsFrom returns topics whose mean raw score is below the threshold,
// in first-appearance order so results are deterministic.
func weakTopicsFrom(order []string, scores map[string][]float64) []string {
	var weak []string
	for _, topic := range order {
		sum := 0.0
		for _, s := range scores[topic] {
			sum += s
		}
		if sum/float64(len(scores[topic])) < WeakTopicThreshold {
			weak = append(weak, topic)
		}
	}
	return weak
}

// overallFeedback builds the tiered summary message: performance tier, weak
// topics, and a deduplicated list of topics with incorrect answers.
func overallFeedback(totalScore, maxScore float64, weakTopics []string, breakdown []models.QuestionGrading) string {
	percentage := 0.0
	if maxScore > 0 {
		percentage = totalScore / maxScore * 100
	}

	var parts []string
	switch {
	case percentage >= 90:
		parts = append(parts, "Excellent work! Strong understanding across all topics.")
	case percentage >= 75:
		parts = append(parts, "Good performance! You have a solid grasp of the material.")
	case percentage >= 60:
		parts = append(parts, "Fair performance. Review the weak areas for improvement.")
	default:
		parts = append(parts, "Needs improvement. Focus on understanding core concepts.")
	}

	if len(weakTopics) > 0 {
		parts = append(parts, "Focus on: "+strings.Join(weakTopics, ", ")+".")
	}

	seen := make(map[string]bool)
	var reviewTopics []string
	for _, entry := range breakdown {
		if !entry.IsCorrect && !seen[entry.Topic] {
			seen[entry.Topic] = true
			reviewTopics = append(reviewTopics, entry.Topic)
		}
	}
	if len(reviewTopics) > 0 {
		parts = append(parts, "Review topics: "+strings.Join(reviewTopics, ", ")+".")
	}

	return strings.Join(parts, " ")
}
