package analytics

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chapterquiz/backend/internal/models"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// UserPerformance aggregates a student's reading progress and quiz history
// into topic mastery, weak areas, and study recommendations.
func (s *Service) UserPerformance(userID int64) (*models.UserPerformance, error) {
	progress, err := s.store.UserProgressRows(userID)
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	attempts, err := s.store.AttemptsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("loading attempts: %w", err)
	}

	completed := 0
	for _, p := range progress {
		if p.IsCompleted {
			completed++
		}
	}

	attemptsByChapter := make(map[uuid.UUID][]attemptRow)
	for _, a := range attempts {
		attemptsByChapter[a.ChapterID] = append(attemptsByChapter[a.ChapterID], a)
	}

	chapterProgress := make([]models.ChapterProgressDetail, 0, len(progress))
	for _, p := range progress {
		detail := models.ChapterProgressDetail{
			ChapterID:        p.ChapterID,
			ChapterTitle:     p.ChapterTitle,
			ScrollProgress:   p.ScrollProgress,
			IsCompleted:      p.IsCompleted,
			TimeSpentSeconds: p.TimeSpentSeconds,
		}
		if chAttempts := attemptsByChapter[p.ChapterID]; len(chAttempts) > 0 {
			detail.QuizAttempts = len(chAttempts)
			detail.AvgQuizScore = round2(avgNormalizedScore(chAttempts) * 100)
		}
		chapterProgress = append(chapterProgress, detail)
	}

	mastery := topicMasteryFrom(attempts)
	weakAreas := weakAreasFrom(attempts, mastery)
	avgScore := avgNormalizedScore(attempts)

	return &models.UserPerformance{
		UserID:            userID,
		TotalChapters:     len(progress),
		CompletedChapters: completed,
		TotalQuizAttempts: len(attempts),
		OverallAvgScore:   round2(avgScore * 100),
		TopicMastery:      mastery,
		ChapterProgress:   chapterProgress,
		WeakAreas:         weakAreas,
		Recommendations:   recommendationsFor(completed, len(progress), weakAreas, avgScore),
	}, nil
}

// ChapterAnalytics aggregates class-wide results for one chapter. Returns
// nil when the chapter does not exist.
func (s *Service) ChapterAnalytics(chapterID uuid.UUID) (*models.ChapterAnalytics, error) {
	title, err := s.store.ChapterTitle(chapterID)
	if err != nil {
		return nil, fmt.Errorf("loading chapter: %w", err)
	}
	if title == "" {
		return nil, nil
	}

	totalReaders, completedReaders, avgTime, err := s.store.ChapterProgressStats(chapterID)
	if err != nil {
		return nil, fmt.Errorf("loading progress stats: %w", err)
	}
	attempts, err := s.store.AttemptsByChapter(chapterID)
	if err != nil {
		return nil, fmt.Errorf("loading attempts: %w", err)
	}
	prompts, err := s.store.QuestionPrompts(chapterID)
	if err != nil {
		return nil, fmt.Errorf("loading question prompts: %w", err)
	}

	users := make(map[int64]bool)
	for _, a := range attempts {
		users[a.UserID] = true
	}

	completionRate := 0.0
	if totalReaders > 0 {
		completionRate = round2(float64(completedReaders) / float64(totalReaders) * 100)
	}

	return &models.ChapterAnalytics{
		ChapterID:          chapterID,
		ChapterTitle:       title,
		TotalReaders:       totalReaders,
		CompletedReaders:   completedReaders,
		CompletionRate:     completionRate,
		TotalAttempts:      len(attempts),
		UniqueUsers:        len(users),
		AvgScore:           round2(avgNormalizedScore(attempts) * 100),
		AvgCompletionTime:  int(avgTime),
		DifficultQuestions: difficultQuestionsFrom(attempts, prompts),
		CommonWeakTopics:   commonWeakTopicsFrom(attempts),
	}, nil
}
