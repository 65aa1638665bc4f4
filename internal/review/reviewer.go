package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v3"
)

var ErrReviewerUnavailable = errors.New("reviewer unavailable")

// ReviewerSpec holds the tunable parts of the reviewer request, loaded from
// prompts/review.yaml.
type ReviewerSpec struct {
	System string `yaml:"system"`
	Style  struct {
		// nil means unset; an explicit 0 asks for greedy sampling
		Temperature *float32 `yaml:"temperature"`
		MaxTokens   int      `yaml:"max_tokens"`
		JSONMode    bool     `yaml:"json_mode"`
	} `yaml:"style"`
}

func LoadReviewerSpec(path string) (ReviewerSpec, error) {
	var spec ReviewerSpec
	b, err := os.ReadFile(path)
	if err != nil {
		return spec, err
	}
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return spec, fmt.Errorf("parse reviewer spec %s: %w", path, err)
	}
	return spec, nil
}

// Reviewer sends prompts to a chat completion backend.
type Reviewer struct {
	client  *openai.Client
	model   string
	spec    ReviewerSpec
	timeout time.Duration
}

func NewReviewer(client *openai.Client, model string, spec ReviewerSpec, timeout time.Duration) *Reviewer {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Reviewer{client: client, model: model, spec: spec, timeout: timeout}
}

// Review returns the raw completion text for p. Any transport failure,
// non-success status, timeout or empty reply is reported as
// ErrReviewerUnavailable.
func (r *Reviewer) Review(ctx context.Context, p Prompt) (string, error) {
	temp := float32(0.2)
	if t := r.spec.Style.Temperature; t != nil {
		temp = max(*t, 0)
	}
	if temp == 0 {
		// the request field is omitempty, a literal 0 would fall back to the API default
		temp = math.SmallestNonzeroFloat32
	}
	maxTok := r.spec.Style.MaxTokens
	if maxTok <= 0 {
		maxTok = 2000
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if sys := strings.TrimSpace(r.spec.System); sys != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: sys})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.Text})

	req := openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: temp,
		MaxTokens:   maxTok,
		Messages:    messages,
	}
	if r.spec.Style.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReviewerUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrReviewerUnavailable)
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrReviewerUnavailable)
	}
	return text, nil
}
