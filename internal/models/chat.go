package models

import (
	"time"
)

// Message represents a single turn in a visitor's conversation with the assistant. Messages are only
// ever appended to a conversation, and their order is the order of insertion; CreatedAt is informational.
type Message struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// Role represents the author of a message.
type Role string

const (
	// RoleUser represents a message typed (or picked from a suggestion) by the visitor.
	RoleUser Role = "user"
	// RoleAssistant represents a message produced by the generation service, or the fixed apology
	// that replaces it when the request fails.
	RoleAssistant Role = "assistant"
)

// ChatRequest is the body accepted by the chat endpoints.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by the chat endpoint on success.
type ChatResponse struct {
	Response string `json:"response"`
}

// StatusResponse is the body returned by every endpoint on failure, and by the contact endpoint on
// success. Message is always safe to show to a visitor.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
