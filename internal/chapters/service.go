package chapters

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/chapterquiz/backend/internal/ai"
	"github.com/chapterquiz/backend/internal/completion"
	"github.com/chapterquiz/backend/internal/models"
)

type Service struct {
	store     *Store
	aiService *ai.Service
	uploadDir string
}

func NewService(store *Store, aiService *ai.Service) *Service {
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Printf("WARN: [chapters] cannot create upload dir %s: %v", uploadDir, err)
	}

	return &Service{store: store, aiService: aiService, uploadDir: uploadDir}
}

// Upload persists a chapter PDF, estimates its page count from the file
// size, and indexes it by extracting topics from the content.
func (s *Service) Upload(ctx context.Context, pdf []byte, subject string, classLevel int, title string) (*models.Chapter, error) {
	storedName := uuid.New().String() + ".pdf"
	filePath := filepath.Join(s.uploadDir, storedName)
	if err := os.WriteFile(filePath, pdf, 0o644); err != nil {
		return nil, fmt.Errorf("save chapter file: %w", err)
	}

	chapter := &models.Chapter{
		Subject:        subject,
		ClassLevel:     classLevel,
		Title:          title,
		FilePath:       filePath,
		FileSizeBytes:  int64(len(pdf)),
		EstimatedPages: completion.EstimatePageCount(int64(len(pdf))),
		Status:         models.ChapterUploaded,
	}
	if err := s.store.CreateChapter(chapter); err != nil {
		os.Remove(filePath)
		return nil, err
	}

	topics := s.aiService.ExtractTopics(ctx, pdf)
	if err := s.store.UpdateChapterIndexed(chapter.ID, topics); err != nil {
		log.Printf("WARN: [chapters] failed to mark chapter %s indexed: %v", chapter.ID, err)
		s.store.MarkChapterFailed(chapter.ID)
		return nil, fmt.Errorf("index chapter: %w", err)
	}

	chapter.Topics = topics
	chapter.Status = models.ChapterIndexed
	log.Printf("[chapters] chapter created: %s (%d pages estimated)", chapter.ID, chapter.EstimatedPages)
	return chapter, nil
}

func (s *Service) Get(chapterID uuid.UUID) (*models.Chapter, error) {
	return s.store.GetChapter(chapterID)
}

func (s *Service) List(subject string, classLevel int) ([]models.Chapter, error) {
	return s.store.ListChapters(subject, classLevel)
}

// UpdateProgress records a reading session and re-derives completion from
// the multi-factor score.
func (s *Service) UpdateProgress(userID int64, chapterID uuid.UUID, req models.ProgressUpdateRequest) (*models.ProgressResponse, error) {
	chapter, err := s.store.GetChapter(chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, nil
	}

	verdict := completion.Estimate(req.TimeSpentSeconds, req.ScrollPct, req.Selections, chapter.EstimatedPages)

	progress := &models.UserProgress{
		UserID:           userID,
		ChapterID:        chapterID,
		TimeSpentSeconds: req.TimeSpentSeconds,
		ScrollProgress:   req.ScrollPct,
		IsCompleted:      verdict.IsCompleted,
		CompletionMethod: verdict.Method,
	}
	if err := s.store.UpsertProgress(progress); err != nil {
		return nil, err
	}

	log.Printf("[chapters] progress updated: user=%d chapter=%s completed=%v score=%.2f",
		userID, chapterID, verdict.IsCompleted, verdict.CompositeScore)

	return &models.ProgressResponse{
		Message:       "Progress updated successfully",
		IsCompleted:   verdict.IsCompleted,
		CompletionPct: round2(verdict.CompositeScore * 100),
	}, nil
}

// Status reports a user's current completion state for a chapter. With no
// recorded progress it returns an empty status rather than an error.
func (s *Service) Status(userID int64, chapterID uuid.UUID) (*models.ChapterStatusResponse, error) {
	chapter, err := s.store.GetChapter(chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, nil
	}

	progress, err := s.store.GetProgress(userID, chapterID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return &models.ChapterStatusResponse{MethodUsed: "no_progress"}, nil
	}

	// Selections are not persisted, so the recomputed score covers time and
	// scroll only; the stored method string has the full picture.
	verdict := completion.Estimate(progress.TimeSpentSeconds, progress.ScrollProgress, 0, chapter.EstimatedPages)

	method := progress.CompletionMethod
	if method == "" {
		method = verdict.Method
	}

	return &models.ChapterStatusResponse{
		CompletionPct:    round2(verdict.CompositeScore * 100),
		IsCompleted:      progress.IsCompleted,
		MethodUsed:       method,
		TimeSpentSeconds: progress.TimeSpentSeconds,
		ScrollProgress:   progress.ScrollProgress,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
