package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MegaGrindStone/portfolio-assistant/internal/services"
	goopenai "github.com/sashabaranov/go-openai"
)

const testPersona = "You are Can's assistant."

func TestOpenAIGenerateReply(t *testing.T) {
	temp := float32(0.2)

	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{
			name:   "Reply",
			status: http.StatusOK,
			body:   `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Can is a developer."},"finish_reason":"stop"}]}`,
			want:   "Can is a developer.",
		},
		{
			name:    "No choices",
			status:  http.StatusOK,
			body:    `{"id":"1","object":"chat.completion","choices":[]}`,
			wantErr: true,
		},
		{
			name:    "Provider error",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"message":"rate limited","type":"rate_limit"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got goopenai.ChatCompletionRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/chat/completions" {
					http.NotFound(w, r)
					return
				}
				if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			o := services.NewOpenAI("test-key", srv.URL+"/v1", "gpt-4o-mini", testPersona,
				services.LLMParameters{Temperature: &temp}, slog.New(slog.DiscardHandler))

			reply, err := o.GenerateReply(context.Background(), "Who is Can?")
			if tt.wantErr {
				if err == nil {
					t.Fatal("GenerateReply() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateReply() error = %v", err)
			}
			if reply != tt.want {
				t.Errorf("GenerateReply() = %q, want %q", reply, tt.want)
			}

			if got.Model != "gpt-4o-mini" {
				t.Errorf("request model = %q, want gpt-4o-mini", got.Model)
			}
			if got.Temperature != temp {
				t.Errorf("request temperature = %v, want %v", got.Temperature, temp)
			}
			if len(got.Messages) != 1 {
				t.Fatalf("request messages = %d, want 1", len(got.Messages))
			}
			if want := testPersona + "\n\nUser: Who is Can?"; got.Messages[0].Content != want {
				t.Errorf("request prompt = %q, want %q", got.Messages[0].Content, want)
			}
		})
	}
}

func TestOpenAIStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{"Can ", "", "builds apps."} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	o := services.NewOpenAI("test-key", srv.URL+"/v1", "gpt-4o-mini", testPersona,
		services.LLMParameters{}, slog.New(slog.DiscardHandler))

	var chunks []string
	for chunk, err := range o.Stream(context.Background(), "Hi") {
		if err != nil {
			t.Fatalf("Stream() error = %v", err)
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) != 2 || chunks[0] != "Can " || chunks[1] != "builds apps." {
		t.Errorf("Stream() chunks = %q, want [\"Can \" \"builds apps.\"]", chunks)
	}
}
