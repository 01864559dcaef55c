package quizzes

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

func (s *Store) CreateQuiz(q *models.Quiz) error {
	questionsJSON, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	err = s.db.QueryRow(
		`INSERT INTO quizzes (chapter_id, difficulty, questions, variant_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		q.ChapterID, q.Difficulty, questionsJSON, q.VariantHash,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

func (s *Store) GetQuiz(id uuid.UUID) (*models.Quiz, error) {
	return s.queryQuiz(`SELECT id, chapter_id, difficulty, questions, COALESCE(variant_hash, ''), created_at
	                    FROM quizzes WHERE id = $1`, id)
}

// GetQuizByVariant finds an existing quiz generated from identical
// parameters, so repeat requests reuse instead of regenerate.
func (s *Store) GetQuizByVariant(variantHash string) (*models.Quiz, error) {
	return s.queryQuiz(`SELECT id, chapter_id, difficulty, questions, COALESCE(variant_hash, ''), created_at
	                    FROM quizzes WHERE variant_hash = $1
	                    ORDER BY created_at DESC LIMIT 1`, variantHash)
}

func (s *Store) queryQuiz(query string, arg interface{}) (*models.Quiz, error) {
	var q models.Quiz
	var questionsJSON []byte

	err := s.db.QueryRow(query, arg).Scan(
		&q.ID, &q.ChapterID, &q.Difficulty, &questionsJSON, &q.VariantHash, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	if err := json.Unmarshal(questionsJSON, &q.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return &q, nil
}

func (s *Store) CreateAttempt(a *models.QuizAttempt) error {
	answersJSON, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	scoresJSON, err := json.Marshal(a.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	weakJSON, err := json.Marshal(a.WeakTopics)
	if err != nil {
		return fmt.Errorf("marshal weak topics: %w", err)
	}

	err = s.db.QueryRow(
		`INSERT INTO quiz_attempts (user_id, quiz_id, answers, scores, total_score, max_score, weak_topics)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		a.UserID, a.QuizID, answersJSON, scoresJSON, a.TotalScore, a.MaxScore, weakJSON,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create attempt: %w", err)
	}
	return nil
}

func (s *Store) ListAttemptsByUser(userID int64, limit int) ([]models.QuizAttempt, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, user_id, quiz_id, COALESCE(answers, '{}'), COALESCE(scores, '[]'),
		        COALESCE(total_score, 0), COALESCE(max_score, 0), COALESCE(weak_topics, '[]'), created_at
		 FROM quiz_attempts WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

func scanAttempts(rows *sql.Rows) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	for rows.Next() {
		var a models.QuizAttempt
		var answersJSON, scoresJSON, weakJSON []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.QuizID, &answersJSON, &scoresJSON,
			&a.TotalScore, &a.MaxScore, &weakJSON, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal(answersJSON, &a.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		if err := json.Unmarshal(scoresJSON, &a.Scores); err != nil {
			return nil, fmt.Errorf("decode scores: %w", err)
		}
		if err := json.Unmarshal(weakJSON, &a.WeakTopics); err != nil {
			return nil, fmt.Errorf("decode weak topics: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
