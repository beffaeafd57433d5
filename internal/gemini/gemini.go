// Package gemini drafts note insights for ingestion batches using Google's
// Gemini models.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// summaryTemperature keeps batch summaries close to the source material.
const summaryTemperature = 0.2

// Client generates job summaries. The underlying model is constructed per
// call because the API key and model identifier are runtime settings.
type Client struct {
	newModel func(ctx context.Context, apiKey, model string) (llms.Model, error)
}

// NewClient creates a Gemini client.
func NewClient() *Client {
	return &Client{newModel: newGoogleAIModel}
}

func newGoogleAIModel(ctx context.Context, apiKey, model string) (llms.Model, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini model: %w", err)
	}
	return llm, nil
}

// GenerateJobSummary asks Gemini for a three-bullet summary of the batch.
func (c *Client) GenerateJobSummary(ctx context.Context, apiKey, model string, sourceFiles []string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("missing Gemini API key")
	}

	llm, err := c.newModel(ctx, strings.TrimSpace(apiKey), strings.TrimSpace(model))
	if err != nil {
		return "", err
	}

	response, err := llms.GenerateFromSinglePrompt(ctx, llm, buildSummaryPrompt(sourceFiles),
		llms.WithTemperature(summaryTemperature))
	if err != nil {
		return "", fmt.Errorf("generate job summary: %w", err)
	}
	return strings.TrimSpace(response), nil
}

func buildSummaryPrompt(sourceFiles []string) string {
	var b strings.Builder
	b.WriteString("Summarize this ingestion batch for an Obsidian note.\n")
	b.WriteString("Return exactly 3 concise bullet points (Portuguese).\n")
	b.WriteString("Source files:\n")
	for _, file := range sourceFiles {
		fmt.Fprintf(&b, "- %s\n", file)
	}
	return b.String()
}

// SummaryLines splits a generated summary into clean bullet lines.
func SummaryLines(summary string) []string {
	var lines []string
	for _, raw := range strings.Split(summary, "\n") {
		line := strings.TrimSpace(raw)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
