package models

import (
	"time"

	"github.com/google/uuid"
)

type ChapterStatus string

const (
	ChapterUploaded ChapterStatus = "uploaded"
	ChapterIndexed  ChapterStatus = "indexed"
	ChapterFailed   ChapterStatus = "failed"
)

// Chapter is an uploaded PDF chapter plus the metadata needed to generate
// quizzes against it: extracted topics, a stored-file handle, and a page
// estimate used by completion scoring.
type Chapter struct {
	ID             uuid.UUID     `json:"id"`
	Subject        string        `json:"subject"`
	ClassLevel     int           `json:"class_level"`
	Title          string        `json:"title"`
	FilePath       string        `json:"-"`
	FileSizeBytes  int64         `json:"file_size_bytes"`
	EstimatedPages int           `json:"estimated_pages"`
	Topics         []string      `json:"topics"`
	Status         ChapterStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}

type ChapterResponse struct {
	ChapterID      uuid.UUID     `json:"chapter_id"`
	Status         ChapterStatus `json:"status"`
	Title          string        `json:"title"`
	Topics         []string      `json:"topics"`
	EstimatedPages int           `json:"estimated_pages"`
}

type ChapterListResponse struct {
	Chapters []Chapter `json:"chapters"`
	Total    int       `json:"total"`
}

// UserProgress tracks one user's reading of one chapter.
type UserProgress struct {
	ID               uuid.UUID `json:"id"`
	UserID           int64     `json:"user_id"`
	ChapterID        uuid.UUID `json:"chapter_id"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	ScrollProgress   float64   `json:"scroll_progress"`
	IsCompleted      bool      `json:"is_completed"`
	CompletionMethod string    `json:"completion_method,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type ProgressUpdateRequest struct {
	TimeSpentSeconds int     `json:"time_spent_seconds"`
	ScrollPct        float64 `json:"scroll_pct"`
	Selections       int     `json:"selections"`
}

type ProgressResponse struct {
	Message       string  `json:"message"`
	IsCompleted   bool    `json:"is_completed"`
	CompletionPct float64 `json:"completion_pct"`
}

type ChapterStatusResponse struct {
	CompletionPct    float64 `json:"completion_pct"`
	IsCompleted      bool    `json:"is_completed"`
	MethodUsed       string  `json:"method_used"`
	TimeSpentSeconds int     `json:"time_spent_seconds"`
	ScrollProgress   float64 `json:"scroll_progress"`
}
