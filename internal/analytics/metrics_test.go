package analytics

import (
	"reflect"
	"strings"
	"testing"

	"github.com/chapterquiz/backend/internal/models"
)

func gradedItem(qid, topic string, score, maxScore float64) models.QuestionGrading {
	return models.QuestionGrading{QID: qid, Topic: topic, Score: score, MaxScore: maxScore}
}

func TestTopicMasteryNormalizesByMaxScore(t *testing.T) {
	attempts := []attemptRow{
		{Scores: []models.QuestionGrading{
			gradedItem("q1", "algebra", 1.0, 1.0),
			gradedItem("q2", "algebra", 1.0, 2.0),
			gradedItem("q3", "geometry", 3.0, 3.0),
		}},
		{Scores: []models.QuestionGrading{
			gradedItem("q1", "algebra", 0.0, 1.0),
		}},
	}

	mastery := topicMasteryFrom(attempts)
	if len(mastery) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(mastery))
	}

	// Sorted descending: geometry 100%, then algebra (1.0+0.5+0.0)/3 = 50%.
	if mastery[0].Topic != "geometry" || mastery[0].MasteryPercentage != 100.0 {
		t.Errorf("expected geometry at 100%%, got %s at %v", mastery[0].Topic, mastery[0].MasteryPercentage)
	}
	if mastery[1].Topic != "algebra" || mastery[1].MasteryPercentage != 50.0 {
		t.Errorf("expected algebra at 50%%, got %s at %v", mastery[1].Topic, mastery[1].MasteryPercentage)
	}
	if mastery[1].Attempts != 3 {
		t.Errorf("expected 3 graded algebra questions, got %d", mastery[1].Attempts)
	}
}

func TestTopicMasteryDefaultsEmptyTopic(t *testing.T) {
	attempts := []attemptRow{
		{Scores: []models.QuestionGrading{gradedItem("q1", "", 1.0, 1.0)}},
	}

	mastery := topicMasteryFrom(attempts)
	if len(mastery) != 1 || mastery[0].Topic != "general" {
		t.Fatalf("expected single general topic, got %+v", mastery)
	}
}

func TestWeakAreasUnionAndBoundary(t *testing.T) {
	attempts := []attemptRow{
		{WeakTopics: []string{"mechanics"}},
	}
	mastery := []models.TopicMastery{
		{Topic: "algebra", MasteryPercentage: 59.99},
		{Topic: "geometry", MasteryPercentage: 60.0},
		{Topic: "optics", MasteryPercentage: 95.0},
	}

	got := weakAreasFrom(attempts, mastery)
	want := []string{"algebra", "mechanics"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected weak areas %v, got %v", want, got)
	}
}

func TestRecommendationTiers(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		weakAreas []string
		avgScore  float64
		want      []string
	}{
		{
			name:      "struggling reader",
			completed: 1,
			total:     4,
			weakAreas: []string{"algebra", "geometry", "mechanics", "optics"},
			avgScore:  0.4,
			want: []string{
				"Focus on completing more chapters to build a stronger foundation",
				"Review fundamental concepts before attempting quizzes",
				"Strengthen understanding in: algebra, geometry, mechanics",
			},
		},
		{
			name:      "mid performer",
			completed: 3,
			total:     4,
			avgScore:  0.7,
			want:      []string{"Practice more numerical problems to improve accuracy"},
		},
		{
			name:      "strong performer",
			completed: 4,
			total:     4,
			avgScore:  0.9,
			want:      []string{"Excellent performance! Try harder difficulty levels"},
		},
		{
			name:     "no chapters yet",
			avgScore: 0.0,
			want:     []string{"Review fundamental concepts before attempting quizzes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recommendationsFor(tt.completed, tt.total, tt.weakAreas, tt.avgScore)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDifficultQuestionsThresholdAndTruncation(t *testing.T) {
	longPrompt := strings.Repeat("x", 150)
	attempts := []attemptRow{
		{Scores: []models.QuestionGrading{
			gradedItem("q1", "algebra", 0.0, 1.0),
			gradedItem("q2", "geometry", 1.0, 2.0),
			gradedItem("q3", "optics", 2.0, 2.0),
		}},
		{Scores: []models.QuestionGrading{
			gradedItem("q1", "algebra", 1.0, 1.0),
		}},
	}
	prompts := map[string]string{"q1": longPrompt, "q2": "Short prompt"}

	got := difficultQuestionsFrom(attempts, prompts)

	// q1 averages 0.5 and q2 exactly 0.5, both at the threshold and excluded.
	// Lower one score so q1 falls below it.
	if len(got) != 0 {
		t.Fatalf("expected no questions at the 0.5 boundary, got %+v", got)
	}

	attempts[1].Scores[0].Score = 0.0
	got = difficultQuestionsFrom(attempts, prompts)
	if len(got) != 1 {
		t.Fatalf("expected one difficult question, got %d", len(got))
	}
	if got[0].QID != "q1" || got[0].AvgScore != 0.0 || got[0].Attempts != 2 {
		t.Errorf("unexpected difficult question entry: %+v", got[0])
	}
	if len(got[0].QuestionText) != 103 || !strings.HasSuffix(got[0].QuestionText, "...") {
		t.Errorf("expected prompt truncated to 100 chars plus ellipsis, got %d chars", len(got[0].QuestionText))
	}
}

func TestDifficultQuestionsMissingPrompt(t *testing.T) {
	attempts := []attemptRow{
		{Scores: []models.QuestionGrading{gradedItem("q9", "algebra", 0.0, 1.0)}},
	}

	got := difficultQuestionsFrom(attempts, map[string]string{})
	if len(got) != 1 || got[0].QuestionText != "Question details not available" {
		t.Fatalf("expected placeholder prompt, got %+v", got)
	}
}

func TestCommonWeakTopicsOrdering(t *testing.T) {
	attempts := []attemptRow{
		{WeakTopics: []string{"algebra", "geometry"}},
		{WeakTopics: []string{"algebra"}},
		{WeakTopics: []string{"algebra", "mechanics"}},
	}

	got := commonWeakTopicsFrom(attempts)
	want := []models.WeakTopicFrequency{
		{Topic: "algebra", Count: 3},
		{Topic: "geometry", Count: 1},
		{Topic: "mechanics", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAvgNormalizedScore(t *testing.T) {
	attempts := []attemptRow{
		{TotalScore: 8.0, MaxScore: 10.0},
		{TotalScore: 3.0, MaxScore: 5.0},
		{TotalScore: 1.0, MaxScore: 0.0},
	}

	// Zero-max attempt is skipped: (0.8 + 0.6) / 2.
	if got := avgNormalizedScore(attempts); got != 0.7 {
		t.Errorf("expected 0.7, got %v", got)
	}
	if got := avgNormalizedScore(nil); got != 0 {
		t.Errorf("expected 0 for no attempts, got %v", got)
	}
}
