package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// LLMClient is the interface all model client implementations satisfy.
// pdf is optional chapter context; implementations that cannot attach
// documents ignore it.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string, pdf []byte) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// Service wraps an LLMClient and adds chapter-specific methods: topic
// extraction, quiz generation, and answer judging.
type Service struct {
	llm   LLMClient
	model string
}

func NewService() *Service {
	var llm LLMClient
	model := "mock"

	if os.Getenv("USE_CLI_GENERATOR") == "true" {
		cliPath := os.Getenv("CLAUDE_CLI_PATH")
		if cliPath == "" {
			cliPath = "claude"
		}
		llm = NewCLIClient(cliPath)
		model = "claude-cli"
		log.Println("AI service using Claude CLI (local plan)")
	} else if os.Getenv("MOCK_GENERATOR") == "true" {
		llm = NewMockClient()
		log.Println("AI service using mock data")
	} else {
		model = os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-opus-4-5-20251101"
		}
		llm = NewAPIClient(model)
		log.Println("AI service using Anthropic API:", model)
	}

	return &Service{llm: llm, model: model}
}

// NewServiceWith builds a Service around an explicit client. Used by tests.
func NewServiceWith(llm LLMClient, model string) *Service {
	return &Service{llm: llm, model: model}
}

func (s *Service) ModelName() string {
	return s.model
}

// ── APIClient — Anthropic SDK (Production) ─────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string, pdf []byte) (*LLMResponse, error) {
	blocks := []anthropic.ContentBlockParamUnion{}
	if len(pdf) > 0 {
		blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
			Data: base64.StdEncoding.EncodeToString(pdf),
		}))
	}
	blocks = append(blocks, anthropic.NewTextBlock(userPrompt))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   8192,
		Temperature: param.NewOpt(0.7),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("Retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			time.Sleep(sleepDuration)
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient — Local Development ─────────────────────────

// MockClient answers every prompt from canned data so the full
// upload/generate/submit flow works without an API key. It keys off the
// prompt text to decide which shape to return.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string, pdf []byte) (*LLMResponse, error) {
	var content string
	switch {
	case strings.Contains(userPrompt, "extract the main topics"):
		content = `["forces and motion", "newton's laws", "friction", "momentum", "energy conservation"]`
	case strings.Contains(userPrompt, "grading a student's answer"):
		content = `{"score": 0.8, "feedback": "[Mock] Solid answer covering the main concept."}`
	default:
		content = buildMockQuizJSON()
	}

	return &LLMResponse{
		Content:      content,
		PromptTokens: 1500,
		OutputTokens: 2000,
	}, nil
}

func buildMockQuizJSON() string {
	topics := []string{"forces and motion", "newton's laws", "friction"}

	questions := "["
	id := 1
	for i := 0; i < 3; i++ {
		topic := topics[i%len(topics)]
		if i > 0 {
			questions += ","
		}
		questions += fmt.Sprintf(`{"q_id":"q%d","type":"mcq","question":"[Mock] Which statement about %s is correct?","options":["[Mock] Correct statement about %s","[Mock] Plausible misconception","[Mock] Unrelated claim","[Mock] Reversed relationship"],"correct_answer":0,"topic":"%s","points":1.0}`,
			id, topic, topic, topic)
		id++
	}
	for i := 0; i < 2; i++ {
		topic := topics[i%len(topics)]
		questions += fmt.Sprintf(`,{"q_id":"q%d","type":"short","question":"[Mock] Explain the key idea behind %s in two or three sentences.","correct_answer":"[Mock] Expected answer covering definition, mechanism, and a worked example about %s.","topic":"%s","points":2.0}`,
			id, topic, topic, topic)
		id++
	}
	questions += fmt.Sprintf(`,{"q_id":"q%d","type":"numerical","question":"[Mock] A 5 kg mass accelerates at 2 m/s². What net force acts on it?","correct_answer":"10","topic":"newton's laws","points":3.0}`, id)
	questions += "]"

	return questions
}
