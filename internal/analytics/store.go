package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/chapterquiz/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// progressRow joins a user's reading state with its chapter title.
type progressRow struct {
	ChapterID        uuid.UUID
	ChapterTitle     string
	ScrollProgress   float64
	IsCompleted      bool
	TimeSpentSeconds int
}

func (s *Store) UserProgressRows(userID int64) ([]progressRow, error) {
	rows, err := s.db.Query(
		`SELECT p.chapter_id, c.title, p.scroll_progress, p.is_completed, p.time_spent_seconds
		 FROM user_progress p
		 JOIN chapters c ON c.id = p.chapter_id
		 WHERE p.user_id = $1
		 ORDER BY p.updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("user progress rows: %w", err)
	}
	defer rows.Close()

	var result []progressRow
	for rows.Next() {
		var r progressRow
		if err := rows.Scan(&r.ChapterID, &r.ChapterTitle, &r.ScrollProgress, &r.IsCompleted, &r.TimeSpentSeconds); err != nil {
			return nil, fmt.Errorf("scan progress row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// attemptRow is the slice of a quiz attempt analytics needs.
type attemptRow struct {
	UserID     int64
	QuizID     uuid.UUID
	ChapterID  uuid.UUID
	TotalScore float64
	MaxScore   float64
	Scores     []models.QuestionGrading
	WeakTopics []string
}

func (s *Store) AttemptsByUser(userID int64) ([]attemptRow, error) {
	return s.queryAttempts(
		`SELECT a.user_id, a.quiz_id, q.chapter_id, COALESCE(a.total_score, 0), COALESCE(a.max_score, 0),
		        COALESCE(a.scores, '[]'), COALESCE(a.weak_topics, '[]')
		 FROM quiz_attempts a
		 JOIN quizzes q ON q.id = a.quiz_id
		 WHERE a.user_id = $1`,
		userID,
	)
}

func (s *Store) AttemptsByChapter(chapterID uuid.UUID) ([]attemptRow, error) {
	return s.queryAttempts(
		`SELECT a.user_id, a.quiz_id, q.chapter_id, COALESCE(a.total_score, 0), COALESCE(a.max_score, 0),
		        COALESCE(a.scores, '[]'), COALESCE(a.weak_topics, '[]')
		 FROM quiz_attempts a
		 JOIN quizzes q ON q.id = a.quiz_id
		 WHERE q.chapter_id = $1`,
		chapterID,
	)
}

func (s *Store) queryAttempts(query string, arg interface{}) ([]attemptRow, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var result []attemptRow
	for rows.Next() {
		var r attemptRow
		var scoresJSON, weakJSON []byte
		if err := rows.Scan(&r.UserID, &r.QuizID, &r.ChapterID, &r.TotalScore, &r.MaxScore, &scoresJSON, &weakJSON); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal(scoresJSON, &r.Scores); err != nil {
			return nil, fmt.Errorf("decode scores: %w", err)
		}
		if err := json.Unmarshal(weakJSON, &r.WeakTopics); err != nil {
			return nil, fmt.Errorf("decode weak topics: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) ChapterTitle(chapterID uuid.UUID) (string, error) {
	var title string
	err := s.db.QueryRow(`SELECT title FROM chapters WHERE id = $1`, chapterID).Scan(&title)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("chapter title: %w", err)
	}
	return title, nil
}

// ChapterProgressStats returns reader counts and average completion time
// for one chapter.
func (s *Store) ChapterProgressStats(chapterID uuid.UUID) (total, completed int, avgCompletionSeconds float64, err error) {
	err = s.db.QueryRow(
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE is_completed),
		        COALESCE(AVG(time_spent_seconds) FILTER (WHERE is_completed), 0)
		 FROM user_progress WHERE chapter_id = $1`,
		chapterID,
	).Scan(&total, &completed, &avgCompletionSeconds)
	if err != nil {
		err = fmt.Errorf("chapter progress stats: %w", err)
	}
	return
}

// QuestionPrompts maps q_id to question text across all of a chapter's
// quizzes, for labelling difficult questions.
func (s *Store) QuestionPrompts(chapterID uuid.UUID) (map[string]string, error) {
	rows, err := s.db.Query(`SELECT questions FROM quizzes WHERE chapter_id = $1`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("question prompts: %w", err)
	}
	defer rows.Close()

	prompts := make(map[string]string)
	for rows.Next() {
		var questionsJSON []byte
		if err := rows.Scan(&questionsJSON); err != nil {
			return nil, fmt.Errorf("scan questions: %w", err)
		}
		var questions []models.QuizQuestion
		if err := json.Unmarshal(questionsJSON, &questions); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		for _, q := range questions {
			if _, seen := prompts[q.ID]; !seen {
				prompts[q.ID] = q.Prompt
			}
		}
	}
	return prompts, rows.Err()
}
