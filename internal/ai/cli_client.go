package ai

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// CLIClient shells out to the claude CLI for local dev generation.
// Uses your existing Claude plan — no API key needed, no per-token charges.
// Document context is not supported over the CLI; prompts go text-only.
type CLIClient struct {
	cliPath string
}

func NewCLIClient(cliPath string) *CLIClient {
	return &CLIClient{cliPath: cliPath}
}

func (c *CLIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string, pdf []byte) (*LLMResponse, error) {
	if len(pdf) > 0 {
		log.Println("WARN: [ai] CLI client cannot attach PDF context, sending prompt only")
	}

	cmd := exec.CommandContext(ctx,
		c.cliPath,
		"--print",
		"--output-format", "text",
		"--system-prompt", systemPrompt,
		"--max-turns", "1",
	)

	cmd.Stdin = strings.NewReader(userPrompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	err := cmd.Run()
	if err != nil {
		return nil, fmt.Errorf("claude CLI error: %w\nstderr: %s", err, stderr.String())
	}

	responseText := strings.TrimSpace(stdout.String())
	if responseText == "" {
		return nil, fmt.Errorf("claude CLI returned empty response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: 0,
		OutputTokens: 0,
	}, nil
}
