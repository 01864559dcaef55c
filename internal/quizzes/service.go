package quizzes

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/google/uuid"

	"github.com/chapterquiz/backend/internal/ai"
	"github.com/chapterquiz/backend/internal/cache"
	"github.com/chapterquiz/backend/internal/chapters"
	"github.com/chapterquiz/backend/internal/grading"
	"github.com/chapterquiz/backend/internal/models"
)

type Service struct {
	store        *Store
	chapterStore *chapters.Store
	aiService    *ai.Service
	cache        *cache.Cache
}

func NewService(store *Store, chapterStore *chapters.Store, aiService *ai.Service, quizCache *cache.Cache) *Service {
	return &Service{
		store:        store,
		chapterStore: chapterStore,
		aiService:    aiService,
		cache:        quizCache,
	}
}

// ErrChapterNotFound and ErrQuizNotFound let the handler map lookup misses
// to 404s without inspecting SQL errors.
var (
	ErrChapterNotFound = fmt.Errorf("chapter not found")
	ErrQuizNotFound    = fmt.Errorf("quiz not found")
)

// Generate returns a quiz for the chapter and parameters, in order of
// preference: Redis cache, database variant lookup, fresh model generation.
func (s *Service) Generate(ctx context.Context, chapterID uuid.UUID, req models.GenerateQuizRequest) (*models.Quiz, error) {
	chapter, err := s.chapterStore.GetChapter(chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, ErrChapterNotFound
	}

	cacheKey := cache.Key(chapterID, req.Difficulty, req.NumMCQ, req.NumShort, req.NumNumerical)
	variantHash := cache.VariantHash(chapterID, req.Difficulty, req.NumMCQ, req.NumShort, req.NumNumerical)

	if cached := s.cache.GetQuiz(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	if existing, err := s.store.GetQuizByVariant(variantHash); err != nil {
		return nil, err
	} else if existing != nil {
		log.Printf("[quizzes] reusing existing quiz %s for variant %s", existing.ID, variantHash[:12])
		s.cache.SetQuiz(ctx, cacheKey, existing)
		return existing, nil
	}

	log.Printf("[quizzes] generating new quiz for chapter %s (%s, %d/%d/%d)",
		chapterID, req.Difficulty, req.NumMCQ, req.NumShort, req.NumNumerical)

	pdf, err := os.ReadFile(chapter.FilePath)
	if err != nil {
		log.Printf("WARN: [quizzes] cannot read chapter file %s: %v", chapter.FilePath, err)
		pdf = nil
	}

	questions, err := s.aiService.GenerateQuiz(ctx, pdf, chapter.Title, chapter.Topics,
		req.Difficulty, req.NumMCQ, req.NumShort, req.NumNumerical)
	if err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		ChapterID:   chapterID,
		Difficulty:  req.Difficulty,
		Questions:   questions,
		VariantHash: variantHash,
	}
	if err := s.store.CreateQuiz(quiz); err != nil {
		return nil, err
	}

	log.Printf("[quizzes] quiz created: %s", quiz.ID)
	s.cache.SetQuiz(ctx, cacheKey, quiz)
	return quiz, nil
}

// Serve strips reference answers from a quiz for client delivery.
func Serve(quiz *models.Quiz) *models.QuizResponse {
	served := make([]models.ServedQuestion, 0, len(quiz.Questions))
	totalPoints := 0.0
	for _, q := range quiz.Questions {
		points := q.Points
		if points <= 0 {
			points = 1.0
		}
		totalPoints += points
		served = append(served, models.ServedQuestion{
			ID:      q.ID,
			Kind:    q.Kind,
			Prompt:  q.Prompt,
			Options: q.Options,
			Topic:   q.Topic,
			Points:  points,
		})
	}

	return &models.QuizResponse{
		QuizID:         quiz.ID,
		Questions:      served,
		TotalQuestions: len(served),
		TotalPoints:    totalPoints,
	}
}

func (s *Service) Get(quizID uuid.UUID) (*models.Quiz, error) {
	quiz, err := s.store.GetQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

// Submit grades a submission against the quiz, persists the attempt, and
// builds the scored response.
func (s *Service) Submit(ctx context.Context, userID int64, quizID uuid.UUID, submission models.QuizSubmission) (*models.QuizGradingResponse, error) {
	quiz, err := s.store.GetQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}

	chapter, err := s.chapterStore.GetChapter(quiz.ChapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, ErrChapterNotFound
	}

	var pdf []byte
	if chapter.FilePath != "" {
		if data, err := os.ReadFile(chapter.FilePath); err == nil {
			pdf = data
		} else {
			log.Printf("WARN: [quizzes] cannot read chapter file for grading context: %v", err)
		}
	}

	log.Printf("[quizzes] grading quiz %s for user %d", quizID, userID)

	grader := grading.NewGrader(s.aiService.OracleForChapter(pdf))
	result := grader.Grade(ctx, quiz.Questions, submission.Answers)

	attempt := &models.QuizAttempt{
		UserID:     userID,
		QuizID:     quizID,
		Answers:    submission.Answers,
		Scores:     result.Breakdown,
		TotalScore: result.TotalScore,
		MaxScore:   result.MaxScore,
		WeakTopics: result.WeakTopics,
	}
	if err := s.store.CreateAttempt(attempt); err != nil {
		return nil, err
	}

	log.Printf("[quizzes] attempt saved: %s, score: %.2f/%.2f", attempt.ID, result.TotalScore, result.MaxScore)

	percentage := 0.0
	if result.MaxScore > 0 {
		percentage = result.TotalScore / result.MaxScore * 100
	}

	return &models.QuizGradingResponse{
		Score:        round2(result.TotalScore),
		MaxScore:     round2(result.MaxScore),
		ScoreDisplay: fmt.Sprintf("%.1f/%.1f", result.TotalScore, result.MaxScore),
		Percentage:   round2(percentage),
		Breakdown:    result.Breakdown,
		WeakTopics:   result.WeakTopics,
		Feedback:     result.Feedback,
	}, nil
}

func (s *Service) ListAttempts(userID int64, limit int) ([]models.QuizAttempt, error) {
	return s.store.ListAttemptsByUser(userID, limit)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
