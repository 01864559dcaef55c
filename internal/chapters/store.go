package chapters

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

func (s *Store) CreateChapter(c *models.Chapter) error {
	topicsJSON, err := json.Marshal(c.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}

	err = s.db.QueryRow(
		`INSERT INTO chapters (subject, class_level, title, file_path, file_size_bytes, estimated_pages, topics, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		c.Subject, c.ClassLevel, c.Title, c.FilePath, c.FileSizeBytes, c.EstimatedPages, topicsJSON, c.Status,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create chapter: %w", err)
	}
	return nil
}

func (s *Store) GetChapter(id uuid.UUID) (*models.Chapter, error) {
	var c models.Chapter
	var topicsJSON []byte

	err := s.db.QueryRow(
		`SELECT id, COALESCE(subject, ''), COALESCE(class_level, 0), title, file_path,
		        file_size_bytes, estimated_pages, COALESCE(topics, '[]'), status, created_at
		 FROM chapters WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Subject, &c.ClassLevel, &c.Title, &c.FilePath,
		&c.FileSizeBytes, &c.EstimatedPages, &topicsJSON, &c.Status, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chapter: %w", err)
	}

	if err := json.Unmarshal(topicsJSON, &c.Topics); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	return &c, nil
}

func (s *Store) ListChapters(subject string, classLevel int) ([]models.Chapter, error) {
	query := `SELECT id, COALESCE(subject, ''), COALESCE(class_level, 0), title, file_path,
	                 file_size_bytes, estimated_pages, COALESCE(topics, '[]'), status, created_at
	          FROM chapters`
	var args []interface{}

	switch {
	case subject != "" && classLevel > 0:
		query += ` WHERE subject = $1 AND class_level = $2`
		args = append(args, subject, classLevel)
	case subject != "":
		query += ` WHERE subject = $1`
		args = append(args, subject)
	case classLevel > 0:
		query += ` WHERE class_level = $1`
		args = append(args, classLevel)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []models.Chapter
	for rows.Next() {
		var c models.Chapter
		var topicsJSON []byte
		if err := rows.Scan(&c.ID, &c.Subject, &c.ClassLevel, &c.Title, &c.FilePath,
			&c.FileSizeBytes, &c.EstimatedPages, &topicsJSON, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		if err := json.Unmarshal(topicsJSON, &c.Topics); err != nil {
			return nil, fmt.Errorf("decode topics: %w", err)
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

func (s *Store) UpdateChapterIndexed(id uuid.UUID, topics []string) error {
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE chapters SET topics = $1, status = $2 WHERE id = $3`,
		topicsJSON, models.ChapterIndexed, id,
	)
	return err
}

func (s *Store) MarkChapterFailed(id uuid.UUID) error {
	_, err := s.db.Exec(
		`UPDATE chapters SET status = $1 WHERE id = $2`,
		models.ChapterFailed, id,
	)
	return err
}

// UpsertProgress writes one user's latest reading state for a chapter.
func (s *Store) UpsertProgress(p *models.UserProgress) error {
	err := s.db.QueryRow(
		`INSERT INTO user_progress (user_id, chapter_id, time_spent_seconds, scroll_progress, is_completed, completion_method, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (user_id, chapter_id) DO UPDATE
		 SET time_spent_seconds = EXCLUDED.time_spent_seconds,
		     scroll_progress = EXCLUDED.scroll_progress,
		     is_completed = EXCLUDED.is_completed,
		     completion_method = EXCLUDED.completion_method,
		     updated_at = NOW()
		 RETURNING id, updated_at`,
		p.UserID, p.ChapterID, p.TimeSpentSeconds, p.ScrollProgress, p.IsCompleted, p.CompletionMethod,
	).Scan(&p.ID, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

func (s *Store) GetProgress(userID int64, chapterID uuid.UUID) (*models.UserProgress, error) {
	var p models.UserProgress
	err := s.db.QueryRow(
		`SELECT id, user_id, chapter_id, time_spent_seconds, scroll_progress, is_completed,
		        COALESCE(completion_method, ''), updated_at
		 FROM user_progress WHERE user_id = $1 AND chapter_id = $2`,
		userID, chapterID,
	).Scan(&p.ID, &p.UserID, &p.ChapterID, &p.TimeSpentSeconds, &p.ScrollProgress,
		&p.IsCompleted, &p.CompletionMethod, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return &p, nil
}
