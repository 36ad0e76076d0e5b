package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"google.golang.org/genai"
)

// Gemini generates replies with Google's Gemini models through the genai SDK. The client is created once
// and shared by all requests.
type Gemini struct {
	model   string
	persona string

	client *genai.Client

	logger *slog.Logger
}

// GeminiOptions configures NewGemini. BaseURL is only needed to point the client somewhere other than
// the public Gemini API.
type GeminiOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

var (
	// ErrNoCandidates is returned when a provider answers without any candidate reply.
	ErrNoCandidates = errors.New("no response candidates")
	// ErrEmptyReply is returned when a provider's reply contains no text.
	ErrEmptyReply = errors.New("empty reply")
)

// NewGemini creates a Gemini client for the Gemini API backend.
func NewGemini(ctx context.Context, opts GeminiOptions, persona string, logger *slog.Logger) (Gemini, error) {
	if opts.APIKey == "" {
		return Gemini{}, errors.New("gemini api key is required")
	}
	model := opts.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions.BaseURL = opts.BaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return Gemini{}, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return Gemini{
		model:   model,
		persona: persona,
		client:  client,
		logger:  logger.With(slog.String("module", "gemini")),
	}, nil
}

// GenerateReply sends the persona and userText as one prompt and returns the model's text unchanged.
func (g Gemini) GenerateReply(ctx context.Context, userText string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(combinedPrompt(g.persona, userText)), nil)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyReply
	}

	g.logger.Debug("Generated reply", slog.Int("length", len(text)))
	return text, nil
}

// Stream is like GenerateReply but yields the reply in chunks as the model produces them.
func (g Gemini) Stream(ctx context.Context, userText string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		it := g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(combinedPrompt(g.persona, userText)), nil)
		for resp, err := range it {
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				yield("", fmt.Errorf("error receiving response: %w", err))
				return
			}

			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}
