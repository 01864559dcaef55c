package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chapterquiz/backend/internal/models"
)

// weakMasteryThreshold marks a topic weak when its mastery percentage is
// below this value.
const weakMasteryThreshold = 60.0

// difficultScoreThreshold marks a question difficult when its mean
// normalized score across attempts is below this value.
const difficultScoreThreshold = 0.5

// topicMasteryFrom averages normalized per-question scores by topic across
// attempts, sorted by mastery descending.
func topicMasteryFrom(attempts []attemptRow) []models.TopicMastery {
	topicScores := make(map[string][]float64)

	for _, attempt := range attempts {
		for _, item := range attempt.Scores {
			topic := item.Topic
			if topic == "" {
				topic = "general"
			}
			if item.MaxScore > 0 {
				topicScores[topic] = append(topicScores[topic], item.Score/item.MaxScore)
			}
		}
	}

	mastery := make([]models.TopicMastery, 0, len(topicScores))
	for topic, scores := range topicScores {
		sum := 0.0
		for _, s := range scores {
			sum += s
		}
		avg := sum / float64(len(scores))
		mastery = append(mastery, models.TopicMastery{
			Topic:             topic,
			MasteryPercentage: round2(avg * 100),
			Attempts:          len(scores),
			AvgScore:          round2(avg),
		})
	}

	sort.Slice(mastery, func(i, j int) bool {
		if mastery[i].MasteryPercentage != mastery[j].MasteryPercentage {
			return mastery[i].MasteryPercentage > mastery[j].MasteryPercentage
		}
		return mastery[i].Topic < mastery[j].Topic
	})
	return mastery
}

// weakAreasFrom unions per-attempt weak topics with low-mastery topics,
// sorted alphabetically.
func weakAreasFrom(attempts []attemptRow, mastery []models.TopicMastery) []string {
	weak := make(map[string]bool)

	for _, attempt := range attempts {
		for _, topic := range attempt.WeakTopics {
			weak[topic] = true
		}
	}
	for _, m := range mastery {
		if m.MasteryPercentage < weakMasteryThreshold {
			weak[m.Topic] = true
		}
	}

	result := make([]string, 0, len(weak))
	for topic := range weak {
		result = append(result, topic)
	}
	sort.Strings(result)
	return result
}

// recommendationsFor builds the advice list. avgScore is the mean
// normalized attempt score in [0,1].
func recommendationsFor(completed, total int, weakAreas []string, avgScore float64) []string {
	var recommendations []string

	if total > 0 && float64(completed)/float64(total) < 0.5 {
		recommendations = append(recommendations, "Focus on completing more chapters to build a stronger foundation")
	}

	switch {
	case avgScore < 0.6:
		recommendations = append(recommendations, "Review fundamental concepts before attempting quizzes")
	case avgScore < 0.8:
		recommendations = append(recommendations, "Practice more numerical problems to improve accuracy")
	default:
		recommendations = append(recommendations, "Excellent performance! Try harder difficulty levels")
	}

	if len(weakAreas) > 0 {
		top := weakAreas
		if len(top) > 3 {
			top = top[:3]
		}
		recommendations = append(recommendations, fmt.Sprintf("Strengthen understanding in: %s", strings.Join(top, ", ")))
	}

	return recommendations
}

// difficultQuestionsFrom finds the five questions with the lowest mean
// normalized scores below the difficulty threshold.
func difficultQuestionsFrom(attempts []attemptRow, prompts map[string]string) []models.DifficultQuestion {
	type questionStats struct {
		scores []float64
		topic  string
	}
	stats := make(map[string]*questionStats)

	for _, attempt := range attempts {
		for _, item := range attempt.Scores {
			if item.MaxScore <= 0 {
				continue
			}
			st, ok := stats[item.QID]
			if !ok {
				st = &questionStats{}
				stats[item.QID] = st
			}
			st.scores = append(st.scores, item.Score/item.MaxScore)
			if item.Topic != "" {
				st.topic = item.Topic
			}
		}
	}

	var difficult []models.DifficultQuestion
	for qid, st := range stats {
		sum := 0.0
		for _, s := range st.scores {
			sum += s
		}
		avg := sum / float64(len(st.scores))
		if avg >= difficultScoreThreshold {
			continue
		}

		text := prompts[qid]
		if text == "" {
			text = "Question details not available"
		}
		if len(text) > 100 {
			text = text[:100] + "..."
		}

		difficult = append(difficult, models.DifficultQuestion{
			QID:          qid,
			QuestionText: text,
			Topic:        st.topic,
			Attempts:     len(st.scores),
			AvgScore:     round2(avg),
		})
	}

	sort.Slice(difficult, func(i, j int) bool {
		if difficult[i].AvgScore != difficult[j].AvgScore {
			return difficult[i].AvgScore < difficult[j].AvgScore
		}
		return difficult[i].QID < difficult[j].QID
	})
	if len(difficult) > 5 {
		difficult = difficult[:5]
	}
	return difficult
}

// commonWeakTopicsFrom counts weak-topic mentions across attempts, most
// frequent first, top five.
func commonWeakTopicsFrom(attempts []attemptRow) []models.WeakTopicFrequency {
	counts := make(map[string]int)
	for _, attempt := range attempts {
		for _, topic := range attempt.WeakTopics {
			counts[topic]++
		}
	}

	result := make([]models.WeakTopicFrequency, 0, len(counts))
	for topic, count := range counts {
		result = append(result, models.WeakTopicFrequency{Topic: topic, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Topic < result[j].Topic
	})
	if len(result) > 5 {
		result = result[:5]
	}
	return result
}

// avgNormalizedScore is the mean of total/max across attempts, in [0,1].
func avgNormalizedScore(attempts []attemptRow) float64 {
	if len(attempts) == 0 {
		return 0
	}
	sum := 0.0
	counted := 0
	for _, a := range attempts {
		if a.MaxScore > 0 {
			sum += a.TotalScore / a.MaxScore
			counted++
		}
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
