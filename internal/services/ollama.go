package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// Ollama generates replies with a model served by an Ollama instance.
type Ollama struct {
	model   string
	persona string

	client *api.Client
}

// NewOllama creates an Ollama generator for the instance at host. An empty host means the client default.
func NewOllama(host, model, persona string) (Ollama, error) {
	var client *api.Client
	if host == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return Ollama{}, fmt.Errorf("failed to create ollama client: %w", err)
		}
		client = c
	} else {
		u, err := url.Parse(host)
		if err != nil {
			return Ollama{}, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		client = api.NewClient(u, &http.Client{})
	}

	return Ollama{
		model:   model,
		persona: persona,
		client:  client,
	}, nil
}

// GenerateReply sends the persona and userText as one prompt to the generate endpoint, without
// streaming, and returns the model's response.
func (o Ollama) GenerateReply(ctx context.Context, userText string) (string, error) {
	f := false
	req := api.GenerateRequest{
		Model:  o.model,
		Prompt: combinedPrompt(o.persona, userText),
		Stream: &f,
	}

	var reply string
	if err := o.client.Generate(ctx, &req, func(res api.GenerateResponse) error {
		reply += res.Response
		return nil
	}); err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// Stream is like GenerateReply but yields the reply in chunks as the model produces them.
func (o Ollama) Stream(ctx context.Context, userText string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		t := true
		req := api.GenerateRequest{
			Model:  o.model,
			Prompt: combinedPrompt(o.persona, userText),
			Stream: &t,
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		if err := o.client.Generate(ctx, &req, func(res api.GenerateResponse) error {
			if stopped || res.Response == "" {
				return nil
			}
			if !yield(res.Response, nil) {
				stopped = true
				cancel()
			}
			return nil
		}); err != nil {
			if stopped || errors.Is(err, context.Canceled) {
				return
			}
			yield("", fmt.Errorf("error sending request: %w", err))
		}
	}
}
