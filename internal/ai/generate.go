package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/chapterquiz/backend/internal/models"
)

// ExtractTopics asks the model for the main topics of a chapter PDF.
// Extraction failures degrade to a single generic topic rather than failing
// the upload.
func (s *Service) ExtractTopics(ctx context.Context, pdf []byte) []string {
	resp, err := s.llm.Generate(ctx, topicSystemPrompt(), buildTopicPrompt(), pdf)
	if err != nil {
		log.Printf("WARN: [ai] topic extraction failed: %v", err)
		return []string{"general_concepts"}
	}

	topics, err := ParseTopics(resp.Content)
	if err != nil || len(topics) == 0 {
		log.Printf("WARN: [ai] topic parsing failed: %v", err)
		return []string{"general_concepts"}
	}
	return topics
}

// GenerateQuiz produces a full question set for a chapter. A malformed JSON
// response falls back to placeholder questions; a response that parses but
// fails validation is a hard error so callers can retry.
func (s *Service) GenerateQuiz(ctx context.Context, pdf []byte, chapterTitle string, topics []string, difficulty models.Difficulty, numMCQ, numShort, numNumerical int) ([]models.QuizQuestion, error) {
	prompt := buildQuizPrompt(chapterTitle, topics, difficulty, numMCQ, numShort, numNumerical)

	resp, err := s.llm.Generate(ctx, quizSystemPrompt(), prompt, pdf)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	questions, err := ParseQuizResponse(resp.Content, numMCQ+numShort+numNumerical)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			return nil, fmt.Errorf("parse quiz response: %w", err)
		}
		log.Printf("WARN: [ai] quiz response unparseable, using fallback questions: %v", err)
		return FallbackQuestions(numMCQ, numShort, numNumerical), nil
	}

	return questions, nil
}
