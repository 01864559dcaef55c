package grading

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/chapterquiz/backend/internal/models"
	"golang.org/x/sync/errgroup"
)

// NumericalTolerance accepts numerical answers within ±2% of the reference.
const NumericalTolerance = 0.02

// CorrectThreshold is the oracle score at or above which a semantically
// graded answer counts as correct.
const CorrectThreshold = 0.7

// maxConcurrentJudges bounds in-flight oracle calls per grading run.
const maxConcurrentJudges = 4

// Oracle is the external semantic-judgment capability used for short-answer
// and out-of-tolerance numerical grading. Implementations may fail; the
// grader recovers per question and never aborts the whole quiz.
type Oracle interface {
	Judge(ctx context.Context, req JudgeRequest) (Judgment, error)
}

type JudgeRequest struct {
	Question        string
	ReferenceAnswer string
	SubmittedAnswer string
	QuestionType    string
	Topic           string
}

type Judgment struct {
	Score    float64 // in [0,1]
	Feedback string
}

// Result is a fully graded quiz submission.
type Result struct {
	TotalScore float64
	MaxScore   float64
	Breakdown  []models.QuestionGrading
	WeakTopics []string
	Feedback   string
}

// Grader grades heterogeneous question sets. Construct one per oracle; it
// holds no mutable state and is safe for concurrent use.
type Grader struct {
	oracle Oracle
}

func NewGrader(oracle Oracle) *Grader {
	return &Grader{oracle: oracle}
}

// outcome is a raw per-question grade before point scaling.
type outcome struct {
	score     float64 // in [0,1]
	feedback  string
	isCorrect bool
}

// Grade grades every question against the submitted answers. MCQ and
// in-tolerance numerical answers are settled deterministically; the rest go
// to the oracle, fanned out concurrently. The breakdown preserves input
// question order regardless of oracle completion order, and an oracle
// failure on one question never fails the others.
func (g *Grader) Grade(ctx context.Context, questions []models.QuizQuestion, answers map[string]any) *Result {
	outcomes := make([]outcome, len(questions))
	var pending []int

	for i, q := range questions {
		answer, ok := answers[q.ID]
		if !ok || isBlank(answer) {
			outcomes[i] = outcome{0.0, "No answer provided", false}
			continue
		}

		switch q.Kind {
		case models.KindMCQ:
			outcomes[i] = gradeMCQ(q, answer)
		case models.KindNumerical:
			out, settled := gradeNumericalLocal(q, answer)
			if settled {
				outcomes[i] = out
			} else {
				pending = append(pending, i)
			}
		case models.KindShort:
			pending = append(pending, i)
		default:
			outcomes[i] = outcome{0.0, "Unknown question type", false}
		}
	}

	if len(pending) > 0 {
		var eg errgroup.Group
		eg.SetLimit(maxConcurrentJudges)
		for _, i := range pending {
			q := questions[i]
			answer := answers[q.ID]
			idx := i
			eg.Go(func() error {
				outcomes[idx] = g.judgeOne(ctx, q, answer)
				return nil
			})
		}
		eg.Wait()
	}

	return aggregate(questions, answers, outcomes)
}

// judgeOne escalates a single question to the oracle, falling back to the
// per-kind deterministic path when the oracle fails.
func (g *Grader) judgeOne(ctx context.Context, q models.QuizQuestion, answer any) outcome {
	submitted := answerText(answer)

	judgment, err := g.oracle.Judge(ctx, JudgeRequest{
		Question:        q.Prompt,
		ReferenceAnswer: q.CorrectAnswer,
		SubmittedAnswer: submitted,
		QuestionType:    string(q.Kind),
		Topic:           q.Topic,
	})
	if err != nil {
		log.Printf("WARN: [grader] oracle failed for question %s: %v", q.ID, err)
		if q.Kind == models.KindNumerical {
			return outcome{0.0, "Automatic grading unavailable for this answer", false}
		}
		return fallbackKeywordGrading(q.CorrectAnswer, submitted)
	}

	score := clamp01(judgment.Score)
	return outcome{score, judgment.Feedback, score >= CorrectThreshold}
}

// gradeMCQ compares the submitted choice against the reference index after
// normalizing letters A-D to zero-based indices.
func gradeMCQ(q models.QuizQuestion, answer any) outcome {
	correctText := "Unknown"
	if q.CorrectChoice != nil && *q.CorrectChoice >= 0 && *q.CorrectChoice < len(q.Options) {
		correctText = q.Options[*q.CorrectChoice]
	}

	idx, ok := normalizeChoice(answer)
	if ok && q.CorrectChoice != nil && idx == *q.CorrectChoice {
		return outcome{1.0, "Correct!", true}
	}
	return outcome{0.0, "Incorrect. Correct answer: " + correctText, false}
}

// gradeNumericalLocal settles a numerical answer without the oracle when it
// can: parse failures score zero, in-tolerance answers score full marks.
// Returns settled=false when the answer parsed but fell outside tolerance,
// which escalates to the oracle (the student may have used an alternative
// method or rounding).
func gradeNumericalLocal(q models.QuizQuestion, answer any) (outcome, bool) {
	reference, refErr := strconv.ParseFloat(strings.TrimSpace(q.CorrectAnswer), 64)
	submitted, subErr := strconv.ParseFloat(strings.TrimSpace(answerText(answer)), 64)
	if refErr != nil || subErr != nil {
		return outcome{0.0, "Invalid numerical format. Expected: " + q.CorrectAnswer, false}, true
	}

	tolerance := math.Abs(reference * NumericalTolerance)
	if submitted >= reference-tolerance && submitted <= reference+tolerance {
		return outcome{1.0, fmt.Sprintf("Correct! (Answer: %s)", q.CorrectAnswer), true}, true
	}
	return outcome{}, false
}

// aggregate scales raw scores by points, groups raw scores by topic for
// weak-topic derivation, and synthesizes the overall feedback message.
func aggregate(questions []models.QuizQuestion, answers map[string]any, outcomes []outcome) *Result {
	breakdown := make([]models.QuestionGrading, 0, len(questions))
	totalScore := 0.0
	maxScore := 0.0

	topicScores := make(map[string][]float64)
	var topicOrder []string

	for i, q := range questions {
		points := q.Points
		if points <= 0 {
			points = 1.0
		}
		topic := q.Topic
		if topic == "" {
			topic = "general"
		}

		out := outcomes[i]
		weighted := out.score * points
		totalScore += weighted
		maxScore += points

		if _, seen := topicScores[topic]; !seen {
			topicOrder = append(topicOrder, topic)
		}
		topicScores[topic] = append(topicScores[topic], out.score)

		var correctAnswer any = q.CorrectAnswer
		if q.Kind == models.KindMCQ && q.CorrectChoice != nil {
			correctAnswer = *q.CorrectChoice
		}

		breakdown = append(breakdown, models.QuestionGrading{
			QID:           q.ID,
			UserAnswer:    answers[q.ID],
			CorrectAnswer: correctAnswer,
			Score:         weighted,
			MaxScore:      points,
			Feedback:      out.feedback,
			IsCorrect:     out.isCorrect,
			Topic:         topic,
		})
	}

	weakTopics := weakTopicsFrom(topicOrder, topicScores)

	return &Result{
		TotalScore: totalScore,
		MaxScore:   maxScore,
		Breakdown:  breakdown,
		WeakTopics: weakTopics,
		Feedback:   overallFeedback(totalScore, maxScore, weakTopics, breakdown),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
