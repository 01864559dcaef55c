package models

import "github.com/google/uuid"

type TopicMastery struct {
	Topic             string  `json:"topic"`
	MasteryPercentage float64 `json:"mastery_percentage"`
	Attempts          int     `json:"attempts"`
	AvgScore          float64 `json:"avg_score"`
}

type ChapterProgressDetail struct {
	ChapterID        uuid.UUID `json:"chapter_id"`
	ChapterTitle     string    `json:"chapter_title"`
	ScrollProgress   float64   `json:"scroll_progress"`
	IsCompleted      bool      `json:"is_completed"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	QuizAttempts     int       `json:"quiz_attempts"`
	AvgQuizScore     float64   `json:"avg_quiz_score"`
}

type UserPerformance struct {
	UserID            int64                   `json:"user_id"`
	TotalChapters     int                     `json:"total_chapters"`
	CompletedChapters int                     `json:"completed_chapters"`
	TotalQuizAttempts int                     `json:"total_quiz_attempts"`
	OverallAvgScore   float64                 `json:"overall_avg_score"`
	TopicMastery      []TopicMastery          `json:"topic_mastery"`
	ChapterProgress   []ChapterProgressDetail `json:"chapter_progress"`
	WeakAreas         []string                `json:"weak_areas"`
	Recommendations   []string                `json:"recommendations"`
}

// DifficultQuestion is a question whose mean normalized score across all
// attempts falls below one half.
type DifficultQuestion struct {
	QID          string  `json:"q_id"`
	QuestionText string  `json:"question_text"`
	Topic        string  `json:"topic"`
	Attempts     int     `json:"attempts"`
	AvgScore     float64 `json:"avg_score"`
}

type WeakTopicFrequency struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

type ChapterAnalytics struct {
	ChapterID          uuid.UUID            `json:"chapter_id"`
	ChapterTitle       string               `json:"chapter_title"`
	TotalReaders       int                  `json:"total_readers"`
	CompletedReaders   int                  `json:"completed_readers"`
	CompletionRate     float64              `json:"completion_rate"`
	TotalAttempts      int                  `json:"total_attempts"`
	UniqueUsers        int                  `json:"unique_users"`
	AvgScore           float64              `json:"avg_score"`
	AvgCompletionTime  int                  `json:"avg_completion_time_seconds"`
	DifficultQuestions []DifficultQuestion  `json:"difficult_questions"`
	CommonWeakTopics   []WeakTopicFrequency `json:"common_weak_topics"`
}
