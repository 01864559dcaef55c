package grading

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chapterquiz/backend/internal/models"
)

// stubOracle returns a fixed judgment and records every request. Safe for
// concurrent use since the grader fans judge calls out.
type stubOracle struct {
	mu       sync.Mutex
	calls    []JudgeRequest
	score    float64
	feedback string
	err      error
	delay    func(req JudgeRequest) time.Duration
}

func (o *stubOracle) Judge(ctx context.Context, req JudgeRequest) (Judgment, error) {
	o.mu.Lock()
	o.calls = append(o.calls, req)
	o.mu.Unlock()

	if o.delay != nil {
		time.Sleep(o.delay(req))
	}
	if o.err != nil {
		return Judgment{}, o.err
	}
	return Judgment{Score: o.score, Feedback: o.feedback}, nil
}

func (o *stubOracle) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

func intPtr(v int) *int { return &v }

func mcqQuestion(id, topic string, correct int, points float64) models.QuizQuestion {
	return models.QuizQuestion{
		ID:            id,
		Kind:          models.KindMCQ,
		Prompt:        "Which option is correct?",
		Options:       []string{"Option A", "Option B", "Option C", "Option D"},
		CorrectChoice: intPtr(correct),
		Topic:         topic,
		Points:        points,
	}
}

func TestGrade_MCQLetterNormalization(t *testing.T) {
	tests := []struct {
		name    string
		answer  any
		correct bool
	}{
		{"uppercase letter", "C", true},
		{"lowercase letter", "c", true},
		{"integer index", 2, true},
		{"json number index", float64(2), true},
		{"numeric string", "2", true},
		{"wrong letter", "A", false},
		{"wrong index", float64(0), false},
		{"garbage", "maybe", false},
	}

	oracle := &stubOracle{}
	grader := NewGrader(oracle)

	for _, tt := range tests {
		questions := []models.QuizQuestion{mcqQuestion("q1", "algebra", 2, 1.0)}
		result := grader.Grade(context.Background(), questions, map[string]any{"q1": tt.answer})

		entry := result.Breakdown[0]
		if entry.IsCorrect != tt.correct {
			t.Errorf("%s: IsCorrect = %v, want %v", tt.name, entry.IsCorrect, tt.correct)
		}
		wantScore := 0.0
		if tt.correct {
			wantScore = 1.0
		}
		if entry.Score != wantScore {
			t.Errorf("%s: Score = %f, want %f", tt.name, entry.Score, wantScore)
		}
	}

	if oracle.callCount() != 0 {
		t.Errorf("oracle called %d times for MCQ grading, want 0", oracle.callCount())
	}
}

func TestGrade_MCQIncorrectFeedbackNamesOption(t *testing.T) {
	grader := NewGrader(&stubOracle{})
	questions := []models.QuizQuestion{mcqQuestion("q1", "algebra", 1, 1.0)}

	result := grader.Grade(context.Background(), questions, map[string]any{"q1": "D"})
	if got := result.Breakdown[0].Feedback; got != "Incorrect. Correct answer: Option B" {
		t.Errorf("Feedback = %q", got)
	}

	// Out-of-bounds reference index reports "Unknown".
	bad := mcqQuestion("q2", "algebra", 9, 1.0)
	result = grader.Grade(context.Background(), []models.QuizQuestion{bad}, map[string]any{"q2": "A"})
	if got := result.Breakdown[0].Feedback; got != "Incorrect. Correct answer: Unknown" {
		t.Errorf("Feedback = %q", got)
	}
}

func TestGrade_NumericalTolerance(t *testing.T) {
	oracle := &stubOracle{score: 0.3, feedback: "Different method, wrong result"}
	grader := NewGrader(oracle)

	question := models.QuizQuestion{
		ID:            "n1",
		Kind:          models.KindNumerical,
		Prompt:        "Calculate the value.",
		CorrectAnswer: "100.0",
		Topic:         "mechanics",
		Points:        2.0,
	}

	// 101.5 is inside 2% of 100: full marks, no oracle call.
	result := grader.Grade(context.Background(), []models.QuizQuestion{question}, map[string]any{"n1": 101.5})
	if !result.Breakdown[0].IsCorrect {
		t.Error("101.5 should be within tolerance of 100")
	}
	if result.Breakdown[0].Score != 2.0 {
		t.Errorf("Score = %f, want 2.0 (full points)", result.Breakdown[0].Score)
	}
	if oracle.callCount() != 0 {
		t.Errorf("oracle called %d times for in-tolerance answer, want 0", oracle.callCount())
	}

	// 110 is outside tolerance, so the oracle decides.
	result = grader.Grade(context.Background(), []models.QuizQuestion{question}, map[string]any{"n1": 110})
	if oracle.callCount() != 1 {
		t.Fatalf("oracle called %d times for out-of-tolerance answer, want 1", oracle.callCount())
	}
	if result.Breakdown[0].IsCorrect {
		t.Error("oracle score 0.3 should not be correct")
	}
	if math.Abs(result.Breakdown[0].Score-0.6) > 1e-9 {
		t.Errorf("Score = %f, want 0.6 (0.3 × 2 points)", result.Breakdown[0].Score)
	}
}

func TestGrade_NumericalParseFailure(t *testing.T) {
	oracle := &stubOracle{}
	grader := NewGrader(oracle)

	question := models.QuizQuestion{
		ID: "n1", Kind: models.KindNumerical, CorrectAnswer: "42.5", Topic: "mechanics", Points: 1.0,
	}
	result := grader.Grade(context.Background(), []models.QuizQuestion{question}, map[string]any{"n1": "about forty"})

	entry := result.Breakdown[0]
	if entry.Score != 0.0 || entry.IsCorrect {
		t.Errorf("unparseable answer: Score = %f, IsCorrect = %v", entry.Score, entry.IsCorrect)
	}
	if entry.Feedback != "Invalid numerical format. Expected: 42.5" {
		t.Errorf("Feedback = %q", entry.Feedback)
	}
	if oracle.callCount() != 0 {
		t.Error("oracle should not be called for parse failures")
	}
}

func TestGrade_ShortAnswerOracle(t *testing.T) {
	oracle := &stubOracle{score: 0.85, feedback: "Covers the main points"}
	grader := NewGrader(oracle)

	question := models.QuizQuestion{
		ID: "s1", Kind: models.KindShort, Prompt: "Explain photosynthesis.",
		CorrectAnswer: "Plants convert light energy into chemical energy",
		Topic:         "biology", Points: 2.0,
	}
	result := grader.Grade(context.Background(), []models.QuizQuestion{question},
		map[string]any{"s1": "Plants turn sunlight into stored chemical energy"})

	entry := result.Breakdown[0]
	if !entry.IsCorrect {
		t.Error("oracle score 0.85 should be correct")
	}
	if math.Abs(entry.Score-1.7) > 1e-9 {
		t.Errorf("Score = %f, want 1.7", entry.Score)
	}
	if entry.Feedback != "Covers the main points" {
		t.Errorf("Feedback = %q", entry.Feedback)
	}

	if oracle.callCount() != 1 {
		t.Fatalf("oracle calls = %d, want 1", oracle.callCount())
	}
	req := oracle.calls[0]
	if req.QuestionType != "short" || req.Topic != "biology" {
		t.Errorf("oracle request = %+v", req)
	}
}

func TestGrade_ShortAnswerFallbackOnOracleFailure(t *testing.T) {
	oracle := &stubOracle{err: errors.New("quota exceeded")}
	grader := NewGrader(oracle)

	question := models.QuizQuestion{
		ID: "s1", Kind: models.KindShort,
		CorrectAnswer: "mitochondria produce cellular energy through respiration",
		Topic:         "biology", Points: 1.0,
	}

	// Every reference keyword longer than three characters is present.
	result := grader.Grade(context.Background(), []models.QuizQuestion{question},
		map[string]any{"s1": "the mitochondria produce cellular energy through respiration"})
	entry := result.Breakdown[0]
	if !entry.IsCorrect || entry.Feedback != "Good answer covering key points" {
		t.Errorf("full keyword match: IsCorrect = %v, Feedback = %q", entry.IsCorrect, entry.Feedback)
	}

	// No keywords present, lowest tier.
	result = grader.Grade(context.Background(), []models.QuizQuestion{question},
		map[string]any{"s1": "I do not know"})
	entry = result.Breakdown[0]
	if entry.IsCorrect || entry.Feedback != "Answer missing most key concepts" {
		t.Errorf("no keyword match: IsCorrect = %v, Feedback = %q", entry.IsCorrect, entry.Feedback)
	}
}

func TestGrade_FallbackWithNoKeywords(t *testing.T) {
	oracle := &stubOracle{err: errors.New("timeout")}
	grader := NewGrader(oracle)

	// Reference has no token longer than 3 chars.
	question := models.QuizQuestion{
		ID: "s1", Kind: models.KindShort, CorrectAnswer: "a b or c", Topic: "logic", Points: 1.0,
	}
	result := grader.Grade(context.Background(), []models.QuizQuestion{question},
		map[string]any{"s1": "something"})

	entry := result.Breakdown[0]
	if entry.Score != 0.5 || entry.Feedback != "Unable to grade automatically" {
		t.Errorf("Score = %f, Feedback = %q", entry.Score, entry.Feedback)
	}
}

func TestGrade_NumericalOracleFailureScoresZero(t *testing.T) {
	oracle := &stubOracle{err: errors.New("unavailable")}
	grader := NewGrader(oracle)

	question := models.QuizQuestion{
		ID: "n1", Kind: models.KindNumerical, CorrectAnswer: "100", Topic: "mechanics", Points: 1.0,
	}
	result := grader.Grade(context.Background(), []models.QuizQuestion{question}, map[string]any{"n1": 150})

	entry := result.Breakdown[0]
	if entry.Score != 0.0 || entry.IsCorrect {
		t.Errorf("Score = %f, IsCorrect = %v, want 0/false", entry.Score, entry.IsCorrect)
	}
}

func TestGrade_MissingAndBlankAnswers(t *testing.T) {
	oracle := &stubOracle{score: 1.0}
	grader := NewGrader(oracle)

	questions := []models.QuizQuestion{
		mcqQuestion("q1", "algebra", 0, 1.0),
		{ID: "q2", Kind: models.KindShort, CorrectAnswer: "anything", Topic: "algebra", Points: 1.0},
		{ID: "q3", Kind: models.KindNumerical, CorrectAnswer: "5", Topic: "algebra", Points: 1.0},
	}
	// q1 absent, q2 blank, q3 whitespace only.
	result := grader.Grade(context.Background(), questions, map[string]any{"q2": "", "q3": "   "})

	for i, entry := range result.Breakdown {
		if entry.Score != 0.0 || entry.IsCorrect {
			t.Errorf("entry %d: Score = %f, IsCorrect = %v", i, entry.Score, entry.IsCorrect)
		}
		if entry.Feedback != "No answer provided" {
			t.Errorf("entry %d: Feedback = %q", i, entry.Feedback)
		}
	}
	if oracle.callCount() != 0 {
		t.Errorf("oracle called %d times for missing answers, want 0", oracle.callCount())
	}
}

func TestGrade_UnknownQuestionKind(t *testing.T) {
	grader := NewGrader(&stubOracle{})
	questions := []models.QuizQuestion{
		{ID: "q1", Kind: "essay", CorrectAnswer: "n/a", Topic: "writing", Points: 3.0},
	}
	result := grader.Grade(context.Background(), questions, map[string]any{"q1": "my essay"})

	entry := result.Breakdown[0]
	if entry.Score != 0.0 || entry.Feedback != "Unknown question type" {
		t.Errorf("Score = %f, Feedback = %q", entry.Score, entry.Feedback)
	}
	if result.MaxScore != 3.0 {
		t.Errorf("MaxScore = %f, want 3.0 (unknown kinds still count toward max)", result.MaxScore)
	}
}

func TestGrade_WeakTopicBoundary(t *testing.T) {
	grader := NewGrader(&stubOracle{})

	// algebra: two of two correct (mean 1.0). geometry: exactly 3 of 5
	// correct (mean 0.6 — boundary, NOT weak). mechanics: 1 of 4 (0.25, weak).
	var questions []models.QuizQuestion
	answers := map[string]any{}
	add := func(id, topic string, correct bool) {
		questions = append(questions, mcqQuestion(id, topic, 0, 1.0))
		if correct {
			answers[id] = 0
		} else {
			answers[id] = 1
		}
	}
	add("a1", "algebra", true)
	add("a2", "algebra", true)
	add("g1", "geometry", true)
	add("g2", "geometry", true)
	add("g3", "geometry", true)
	add("g4", "geometry", false)
	add("g5", "geometry", false)
	add("m1", "mechanics", true)
	add("m2", "mechanics", false)
	add("m3", "mechanics", false)
	add("m4", "mechanics", false)

	result := grader.Grade(context.Background(), questions, answers)

	if !reflect.DeepEqual(result.WeakTopics, []string{"mechanics"}) {
		t.Errorf("WeakTopics = %v, want [mechanics] (0.6 boundary is not weak)", result.WeakTopics)
	}
}

func TestGrade_SumLawAndTotals(t *testing.T) {
	oracle := &stubOracle{score: 0.5, feedback: "partial"}
	grader := NewGrader(oracle)

	questions := []models.QuizQuestion{
		mcqQuestion("q1", "algebra", 1, 1.0),
		{ID: "q2", Kind: models.KindShort, CorrectAnswer: "definition here", Topic: "algebra", Points: 2.0},
		{ID: "q3", Kind: models.KindNumerical, CorrectAnswer: "10", Topic: "geometry", Points: 3.0},
	}
	answers := map[string]any{"q1": "B", "q2": "my answer", "q3": 10.1}

	result := grader.Grade(context.Background(), questions, answers)

	sum := 0.0
	for _, entry := range result.Breakdown {
		sum += entry.Score
		if entry.Score < 0 || entry.Score > entry.MaxScore {
			t.Errorf("entry %s: Score %f outside [0, %f]", entry.QID, entry.Score, entry.MaxScore)
		}
	}
	if math.Abs(result.TotalScore-sum) > 1e-9 {
		t.Errorf("TotalScore = %f, want sum of breakdown %f", result.TotalScore, sum)
	}
	if result.MaxScore != 6.0 {
		t.Errorf("MaxScore = %f, want 6.0", result.MaxScore)
	}
	// 1.0 + 0.5*2 + 1.0*3 = 5.0
	if math.Abs(result.TotalScore-5.0) > 1e-9 {
		t.Errorf("TotalScore = %f, want 5.0", result.TotalScore)
	}
}

func TestGrade_Idempotent(t *testing.T) {
	questions := []models.QuizQuestion{
		mcqQuestion("q1", "algebra", 2, 1.0),
		{ID: "q2", Kind: models.KindShort, CorrectAnswer: "chlorophyll absorbs light", Topic: "biology", Points: 2.0},
		{ID: "q3", Kind: models.KindNumerical, CorrectAnswer: "100", Topic: "mechanics", Points: 1.0},
	}
	answers := map[string]any{"q1": "C", "q2": "chlorophyll absorbs the light", "q3": 120}

	grader := NewGrader(&stubOracle{score: 0.75, feedback: "close enough"})
	first := grader.Grade(context.Background(), questions, answers)
	second := grader.Grade(context.Background(), questions, answers)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("grading is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestGrade_BreakdownPreservesOrderUnderConcurrency(t *testing.T) {
	// Later questions finish first; breakdown order must still match input.
	oracle := &stubOracle{
		score: 0.9, feedback: "ok",
		delay: func(req JudgeRequest) time.Duration {
			if req.Topic == "slow" {
				return 30 * time.Millisecond
			}
			return 0
		},
	}
	grader := NewGrader(oracle)

	questions := []models.QuizQuestion{
		{ID: "s1", Kind: models.KindShort, CorrectAnswer: "first", Topic: "slow", Points: 1.0},
		{ID: "s2", Kind: models.KindShort, CorrectAnswer: "second", Topic: "fast", Points: 1.0},
		{ID: "s3", Kind: models.KindShort, CorrectAnswer: "third", Topic: "fast", Points: 1.0},
	}
	answers := map[string]any{"s1": "a", "s2": "b", "s3": "c"}

	result := grader.Grade(context.Background(), questions, answers)

	for i, wantID := range []string{"s1", "s2", "s3"} {
		if result.Breakdown[i].QID != wantID {
			t.Errorf("breakdown[%d].QID = %s, want %s", i, result.Breakdown[i].QID, wantID)
		}
	}
}

func TestGrade_PartialFailureIsolation(t *testing.T) {
	// One question's oracle failure must not bleed into the others.
	oracle := &failOnceOracle{failTopic: "biology", score: 0.9}
	grader := NewGrader(oracle)

	questions := []models.QuizQuestion{
		{ID: "s1", Kind: models.KindShort, CorrectAnswer: "unrelated words entirely", Topic: "biology", Points: 1.0},
		{ID: "s2", Kind: models.KindShort, CorrectAnswer: "anything", Topic: "chemistry", Points: 1.0},
	}
	answers := map[string]any{"s1": "no overlap here", "s2": "good answer"}

	result := grader.Grade(context.Background(), questions, answers)

	if result.Breakdown[0].IsCorrect {
		t.Error("failed-oracle question should fall back, not succeed")
	}
	if !result.Breakdown[1].IsCorrect {
		t.Error("healthy question should grade normally despite sibling failure")
	}
}

type failOnceOracle struct {
	failTopic string
	score     float64
}

func (o *failOnceOracle) Judge(ctx context.Context, req JudgeRequest) (Judgment, error) {
	if req.Topic == o.failTopic {
		return Judgment{}, errors.New("simulated oracle outage")
	}
	return Judgment{Score: o.score, Feedback: "solid"}, nil
}

func TestOverallFeedbackTiers(t *testing.T) {
	tests := []struct {
		total, max float64
		wantPrefix string
	}{
		{9.5, 10, "Excellent work!"},
		{8, 10, "Good performance!"},
		{6.5, 10, "Fair performance."},
		{2, 10, "Needs improvement."},
		{0, 0, "Needs improvement."}, // divide-by-zero guard treats 0/0 as 0%
	}

	for _, tt := range tests {
		got := overallFeedback(tt.total, tt.max, nil, nil)
		if !strings.HasPrefix(got, tt.wantPrefix) {
			t.Errorf("overallFeedback(%f/%f) = %q, want prefix %q", tt.total, tt.max, got, tt.wantPrefix)
		}
	}
}

func TestOverallFeedbackIncludesTopicSentences(t *testing.T) {
	breakdown := []models.QuestionGrading{
		{Topic: "algebra", IsCorrect: false},
		{Topic: "geometry", IsCorrect: true},
		{Topic: "algebra", IsCorrect: false}, // dedup
	}
	got := overallFeedback(5, 10, []string{"algebra"}, breakdown)

	want := "Needs improvement. Focus on understanding core concepts. Focus on: algebra. Review topics: algebra."
	if got != want {
		t.Errorf("overallFeedback = %q, want %q", got, want)
	}
}
