package models

import (
	"time"

	"github.com/google/uuid"
)

type QuestionKind string

const (
	KindMCQ       QuestionKind = "mcq"
	KindShort     QuestionKind = "short"
	KindNumerical QuestionKind = "numerical"
)

var ValidQuestionKinds = map[QuestionKind]bool{
	KindMCQ:       true,
	KindShort:     true,
	KindNumerical: true,
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

// QuizQuestion is one generated question. The reference answer is keyed by
// kind: CorrectChoice holds the option index for mcq, CorrectAnswer holds
// the expected text for short/numerical.
type QuizQuestion struct {
	ID            string       `json:"q_id"`
	Kind          QuestionKind `json:"type"`
	Prompt        string       `json:"question"`
	Options       []string     `json:"options,omitempty"`
	CorrectChoice *int         `json:"correct_choice,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Topic         string       `json:"topic"`
	Points        float64      `json:"points"`
}

type Quiz struct {
	ID          uuid.UUID      `json:"id"`
	ChapterID   uuid.UUID      `json:"chapter_id"`
	Difficulty  Difficulty     `json:"difficulty"`
	Questions   []QuizQuestion `json:"questions"`
	VariantHash string         `json:"variant_hash"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ── Request Types ─────────────────────────────────────

type GenerateQuizRequest struct {
	Difficulty   Difficulty `json:"difficulty"`
	NumMCQ       int        `json:"num_mcq"`
	NumShort     int        `json:"num_short"`
	NumNumerical int        `json:"num_numerical"`
}

type QuizSubmission struct {
	Answers map[string]any `json:"answers"`
}

// ── Response Types ────────────────────────────────────

// ServedQuestion is a question with the reference answer stripped for serving.
type ServedQuestion struct {
	ID      string       `json:"q_id"`
	Kind    QuestionKind `json:"type"`
	Prompt  string       `json:"question"`
	Options []string     `json:"options,omitempty"`
	Topic   string       `json:"topic"`
	Points  float64      `json:"points"`
}

type QuizResponse struct {
	QuizID         uuid.UUID        `json:"quiz_id"`
	Questions      []ServedQuestion `json:"questions"`
	TotalQuestions int              `json:"total_questions"`
	TotalPoints    float64          `json:"total_points"`
}

// QuestionGrading is the per-question breakdown entry in a grading result.
type QuestionGrading struct {
	QID           string  `json:"q_id"`
	UserAnswer    any     `json:"user_answer"`
	CorrectAnswer any     `json:"correct_answer"`
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"max_score"`
	Feedback      string  `json:"feedback"`
	IsCorrect     bool    `json:"is_correct"`
	Topic         string  `json:"topic"`
}

type QuizGradingResponse struct {
	Score        float64           `json:"score"`
	MaxScore     float64           `json:"max_score"`
	ScoreDisplay string            `json:"score_display"`
	Percentage   float64           `json:"percentage"`
	Breakdown    []QuestionGrading `json:"breakdown"`
	WeakTopics   []string          `json:"weak_topics"`
	Feedback     string            `json:"feedback"`
}

type QuizAttempt struct {
	ID         uuid.UUID         `json:"id"`
	UserID     int64             `json:"user_id"`
	QuizID     uuid.UUID         `json:"quiz_id"`
	Answers    map[string]any    `json:"answers"`
	Scores     []QuestionGrading `json:"scores"`
	TotalScore float64           `json:"total_score"`
	MaxScore   float64           `json:"max_score"`
	WeakTopics []string          `json:"weak_topics"`
	CreatedAt  time.Time         `json:"created_at"`
}

type AttemptListResponse struct {
	Attempts []QuizAttempt `json:"attempts"`
	Total    int           `json:"total"`
}
