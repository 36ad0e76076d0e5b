package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAI generates replies with OpenAI's chat completion models, or any server that speaks the same API.
type OpenAI struct {
	model   string
	persona string

	params LLMParameters

	client *goopenai.Client

	logger *slog.Logger
}

// LLMParameters are optional sampling parameters passed to providers that support them.
type LLMParameters struct {
	Temperature *float32 `yaml:"temperature"`
	TopP        *float32 `yaml:"topP"`
	MaxTokens   *int     `yaml:"maxTokens"`
}

// NewOpenAI creates a new OpenAI instance. An empty baseURL means the public OpenAI API.
func NewOpenAI(apiKey, baseURL, model, persona string, params LLMParameters, logger *slog.Logger) OpenAI {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return OpenAI{
		model:   model,
		persona: persona,
		params:  params,
		client:  goopenai.NewClientWithConfig(cfg),
		logger:  logger.With(slog.String("module", "openai")),
	}
}

// GenerateReply sends the persona and userText as one user message and returns the first choice.
func (o OpenAI) GenerateReply(ctx context.Context, userText string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.chatRequest(userText, false))
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoCandidates
	}
	if resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyReply
	}

	return resp.Choices[0].Message.Content, nil
}

// Stream is like GenerateReply but yields the reply in chunks as the model produces them.
func (o OpenAI) Stream(ctx context.Context, userText string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream, err := o.client.CreateChatCompletionStream(ctx, o.chatRequest(userText, true))
		if err != nil {
			yield("", fmt.Errorf("error sending request: %w", err))
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				if errors.Is(err, context.Canceled) {
					return
				}
				yield("", fmt.Errorf("error receiving response: %w", err))
				return
			}

			if len(response.Choices) == 0 || response.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(response.Choices[0].Delta.Content, nil) {
				return
			}
		}
	}
}

func (o OpenAI) chatRequest(userText string, stream bool) goopenai.ChatCompletionRequest {
	req := goopenai.ChatCompletionRequest{
		Model: o.model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: combinedPrompt(o.persona, userText),
			},
		},
		Stream: stream,
	}

	if o.params.Temperature != nil {
		req.Temperature = *o.params.Temperature
	}
	if o.params.TopP != nil {
		req.TopP = *o.params.TopP
	}
	if o.params.MaxTokens != nil {
		req.MaxTokens = *o.params.MaxTokens
	}

	return req
}
