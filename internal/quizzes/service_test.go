package quizzes

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/chapterquiz/backend/internal/models"
)

func TestServeStripsReferenceAnswers(t *testing.T) {
	two := 2
	quiz := &models.Quiz{
		ID:         uuid.New(),
		Difficulty: models.DifficultyMedium,
		Questions: []models.QuizQuestion{
			{ID: "q1", Kind: models.KindMCQ, Prompt: "Pick one.",
				Options: []string{"a", "b", "c", "d"}, CorrectChoice: &two, Topic: "algebra", Points: 1.0},
			{ID: "q2", Kind: models.KindShort, Prompt: "Explain.",
				CorrectAnswer: "the secret reference answer", Topic: "algebra", Points: 2.0},
			{ID: "q3", Kind: models.KindNumerical, Prompt: "Calculate.",
				CorrectAnswer: "42.5", Topic: "geometry"},
		},
	}

	resp := Serve(quiz)

	if resp.QuizID != quiz.ID {
		t.Errorf("QuizID = %s, want %s", resp.QuizID, quiz.ID)
	}
	if resp.TotalQuestions != 3 {
		t.Errorf("TotalQuestions = %d, want 3", resp.TotalQuestions)
	}
	// q3 has no points set, so it defaults to 1.0: 1 + 2 + 1.
	if resp.TotalPoints != 4.0 {
		t.Errorf("TotalPoints = %f, want 4.0", resp.TotalPoints)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	body := string(raw)
	if strings.Contains(body, "secret reference") || strings.Contains(body, "42.5") {
		t.Errorf("served quiz leaks reference answers: %s", body)
	}
	if strings.Contains(body, "correct_choice") || strings.Contains(body, "correct_answer") {
		t.Errorf("served quiz leaks answer fields: %s", body)
	}
}

func TestServeKeepsQuestionOrderAndOptions(t *testing.T) {
	zero := 0
	quiz := &models.Quiz{
		Questions: []models.QuizQuestion{
			{ID: "a", Kind: models.KindMCQ, Options: []string{"w", "x", "y", "z"}, CorrectChoice: &zero, Points: 1},
			{ID: "b", Kind: models.KindShort, CorrectAnswer: "ref", Points: 1},
		},
	}

	resp := Serve(quiz)
	if resp.Questions[0].ID != "a" || resp.Questions[1].ID != "b" {
		t.Errorf("question order changed: %+v", resp.Questions)
	}
	if len(resp.Questions[0].Options) != 4 {
		t.Errorf("mcq options missing: %+v", resp.Questions[0])
	}
	if len(resp.Questions[1].Options) != 0 {
		t.Errorf("short question should have no options: %+v", resp.Questions[1])
	}
}
