package chatbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MegaGrindStone/portfolio-assistant/internal/models"
)

// HTTPEndpoint is an Endpoint that posts to a running assistant server's chat route.
type HTTPEndpoint struct {
	url    string
	client *http.Client
}

// ChatPath is the route of the chat endpoint.
const ChatPath = "/api/chat"

// NewHTTPEndpoint creates an HTTPEndpoint for the server at baseURL. A nil client means
// http.DefaultClient; request deadlines come from the context passed to Send.
func NewHTTPEndpoint(baseURL string, client *http.Client) HTTPEndpoint {
	if client == nil {
		client = http.DefaultClient
	}
	return HTTPEndpoint{
		url:    strings.TrimRight(baseURL, "/") + ChatPath,
		client: client,
	}
}

// Send posts message and returns the reply. Transport errors, non-200 statuses, and bodies that are not
// a chat response are all reported as errors.
func (e HTTPEndpoint) Send(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(models.ChatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var status models.StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err == nil && status.Message != "" {
			return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, status.Message)
		}
		return "", fmt.Errorf("chat endpoint returned %d", resp.StatusCode)
	}

	var res struct {
		Response *string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	if res.Response == nil {
		return "", errors.New("response field is missing")
	}

	return *res.Response, nil
}
