package ai

import (
	"fmt"
	"strings"

	"github.com/chapterquiz/backend/internal/models"
)

func quizSystemPrompt() string {
	return `You are an expert educator who writes rigorous quizzes from textbook chapters. You always respond with valid JSON and nothing else: no markdown fences, no preamble, no commentary.`
}

func topicSystemPrompt() string {
	return `You are an expert curriculum analyst. You always respond with valid JSON and nothing else.`
}

func judgeSystemPrompt() string {
	return `You are a fair, consistent grader of student quiz answers. You always respond with valid JSON and nothing else.`
}

func buildTopicPrompt() string {
	return `Analyze this educational chapter PDF and extract the main topics covered.
Return ONLY a JSON array of topic strings (5-10 topics maximum).
Format: ["topic1", "topic2", "topic3"]

Focus on key concepts, formulas, theorems, or main learning objectives.`
}

func buildQuizPrompt(chapterTitle string, topics []string, difficulty models.Difficulty, numMCQ, numShort, numNumerical int) string {
	return fmt.Sprintf(`You are creating a %s level quiz for the chapter %q.

Topics to cover: %s

Generate EXACTLY %d questions:

MCQ questions (%d):
- Multiple choice with 4 options
- One correct answer
- Realistic distractors based on common misconceptions

Short answer questions (%d):
- Require 2-3 sentence explanations
- Test conceptual understanding
- Include expected key points in the reference answer

Numerical problems (%d):
- Require calculations
- Based on chapter examples
- Reference answer is the final numeric value

Return ONLY a JSON array in this exact format (no markdown, no preamble):

[
  {"q_id": "q1", "type": "mcq", "question": "Question text here?", "options": ["Option A", "Option B", "Option C", "Option D"], "correct_answer": 0, "topic": "topic_name", "points": 1.0},
  {"q_id": "q2", "type": "short", "question": "Explain...", "correct_answer": "Expected answer with key points: point1, point2, point3", "topic": "topic_name", "points": 2.0},
  {"q_id": "q3", "type": "numerical", "question": "Calculate...", "correct_answer": "42.5", "topic": "topic_name", "points": 3.0}
]

Ensure questions come directly from chapter content and test real understanding.`,
		difficulty, chapterTitle, strings.Join(topics, ", "),
		numMCQ+numShort+numNumerical, numMCQ, numShort, numNumerical)
}

func buildJudgePrompt(question, topic, referenceAnswer, submittedAnswer string) string {
	return fmt.Sprintf(`You are grading a student's answer for this question from the chapter.

Question: %s
Topic: %s
Expected answer: %s
Student's answer: %s

Grade the student's answer on a scale of 0.0 to 1.0 based on:
1. Correctness of key concepts
2. Completeness
3. Understanding demonstrated

For numerical answers, allow a 2%% tolerance for rounding.

Return ONLY valid JSON (no markdown):
{"score": 0.85, "feedback": "Good understanding of main concept. Missing minor detail about..."}`,
		question, topic, referenceAnswer, submittedAnswer)
}
