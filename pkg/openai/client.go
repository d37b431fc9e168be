package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"

	"github.com/askrelay/chatgpt-ask-service/pkg/domain"
)

const (
	modelName = "gpt-4o-mini"
	maxTokens = 4096

	systemPrompt         = "You are a helpful assistant."
	defaultImageQuestion = "What's in this image?"
)

type client struct {
	api     *openai.Client
	timeout time.Duration
}

func NewClient(token string, timeout time.Duration) (*client, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}
	return &client{
		api:     openai.NewClient(token),
		timeout: timeout,
	}, nil
}

// CreateChatStream opens a streamed chat completion for the prompt. An error
// here means no fragment has been produced yet, so the caller can still
// respond with a structured error.
func (c *client) CreateChatStream(ctx context.Context, prompt domain.Prompt) (domain.ChatStream, error) {
	cancelFn := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancelFn = context.WithTimeout(ctx, c.timeout)
	}

	req := openai.ChatCompletionRequest{
		Model:     modelName,
		Messages:  buildMessages(prompt),
		MaxTokens: maxTokens,
		Stream:    true,
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		cancelFn()
		return nil, fmt.Errorf("creating chat completion stream: %w", err)
	}

	return &chatStream{stream: stream, cancelFn: cancelFn}, nil
}

func buildMessages(prompt domain.Prompt) []openai.ChatCompletionMessage {
	switch prompt.Kind() {
	case domain.PromptKindVision:
		text, _ := lo.Coalesce(prompt.Question, defaultImageQuestion)
		return []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: text},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: prompt.ImageURL}},
				},
			},
		}
	default:
		return []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt.Question},
		}
	}
}

type chatStream struct {
	stream   *openai.ChatCompletionStream
	cancelFn context.CancelFunc
}

// Recv returns the next non-empty text fragment, in receipt order.
// It returns io.EOF when the upstream stream ends normally.
func (s *chatStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
}

func (s *chatStream) Close() error {
	s.cancelFn()
	return s.stream.Close()
}
