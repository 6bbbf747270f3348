// Package assist rewrites note content with an OpenAI chat model.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrEmptyText     = errors.New("text is required")
	ErrNoCompletion  = errors.New("model returned no completion")
)

type Action string

const (
	Enhance   Action = "enhance"
	Summarize Action = "summarize"
	Fix       Action = "fix"
)

var prompts = map[Action]string{
	Enhance: `Please enhance this text with beautiful formatting:
1. Use proper paragraphs and line breaks
2. Add section headers where appropriate
3. Format lists with bullet points
4. Improve readability with spacing
5. Maintain original meaning
6. Return as Markdown

Text to enhance:
`,
	Summarize: `Create a well-formatted summary:
1. Use ### for section headers
2. Format key points as a bulleted list
3. Include 1-2 sentence overview first
4. Keep concise but comprehensive
5. Return as Markdown

Text to summarize:
`,
	Fix: `Correct grammar and spelling while:
1. Preserving all formatting
2. Maintaining original structure
3. Improving readability
4. Returning the corrected text only

Text to correct:
`,
}

// ParseAction accepts the action names used by clients.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := prompts[a]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownAction, s)
	}
	return a, nil
}

type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Assistant struct {
	client completer
	model  string
}

func New(apiKey string) *Assistant {
	return &Assistant{client: openai.NewClient(apiKey), model: openai.GPT3Dot5Turbo}
}

// Process applies action to text and returns the model's Markdown.
func (a *Assistant) Process(ctx context.Context, action Action, text string) (string, error) {
	prompt, ok := prompts[action]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownAction, action)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt + text},
		},
		Temperature: 0.3,
		TopP:        0.9,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
