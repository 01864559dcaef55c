package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chapterquiz/backend/internal/grading"
)

// judgment matches the JSON shape the judge prompt requests.
type judgment struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// chapterOracle judges answers with the chapter PDF attached as context, so
// the model can check claims against the source material.
type chapterOracle struct {
	llm LLMClient
	pdf []byte
}

// OracleForChapter returns a grading oracle bound to one chapter's PDF.
func (s *Service) OracleForChapter(pdf []byte) grading.Oracle {
	return &chapterOracle{llm: s.llm, pdf: pdf}
}

func (o *chapterOracle) Judge(ctx context.Context, req grading.JudgeRequest) (grading.Judgment, error) {
	prompt := buildJudgePrompt(req.Question, req.Topic, req.ReferenceAnswer, req.SubmittedAnswer)

	resp, err := o.llm.Generate(ctx, judgeSystemPrompt(), prompt, o.pdf)
	if err != nil {
		return grading.Judgment{}, fmt.Errorf("judge answer: %w", err)
	}

	var j judgment
	if err := json.Unmarshal([]byte(stripCodeFences(resp.Content)), &j); err != nil {
		return grading.Judgment{}, fmt.Errorf("parse judgment: %w", err)
	}
	if j.Feedback == "" {
		j.Feedback = "No feedback provided"
	}

	return grading.Judgment{Score: j.Score, Feedback: j.Feedback}, nil
}
