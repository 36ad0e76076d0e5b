package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MegaGrindStone/portfolio-assistant/internal/models"
	"github.com/tmaxmax/go-sse"
)

// SSE event types used by the streaming chat endpoint.
var (
	deltaSSEType = sse.Type("delta")
	doneSSEType  = sse.Type("done")
	errorSSEType = sse.Type("error")
)

// HandleChat answers a visitor's message with a single generated reply.
//
// The handler expects a POST with a JSON body {"message": string}; a blank message, malformed JSON, or a
// body over the size cap is rejected with a 4xx status. On success it responds 200 with
// {"response": string}. If generation fails, the provider's error is logged and the visitor receives a
// 500 with {"success": false, "message": "Failed to generate response"}. Nothing is retried.
func (m Main) HandleChat(w http.ResponseWriter, r *http.Request) {
	msg, err := m.chatMessage(w, r)
	if err != nil {
		m.logger.Warn("Rejected chat request", slog.String(errLoggerKey, err.Error()))
		m.writeRequestError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), m.requestTimeout)
	defer cancel()

	reply, err := m.generator.GenerateReply(ctx, msg)
	if err != nil {
		m.logger.Error("Failed to generate reply", slog.String(errLoggerKey, err.Error()))
		m.writeStatus(w, http.StatusInternalServerError, generationFailedMessage)
		return
	}

	m.writeJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}

// HandleChatStream is the streaming variant of HandleChat. It accepts the same body and relays the reply
// as server-sent events: a "delta" event per chunk of text, then a single "done" event.
//
// A failure before the first chunk is answered exactly like HandleChat's failure. Once the stream has
// started the status can no longer change, so a later failure is reported with an "error" event carrying
// the same generic message.
func (m Main) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	msg, err := m.chatMessage(w, r)
	if err != nil {
		m.logger.Warn("Rejected chat stream request", slog.String(errLoggerKey, err.Error()))
		m.writeRequestError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), m.requestTimeout)
	defer cancel()

	// The session is opened on the first chunk, so a failure before it can still get a JSON status.
	var sess *sse.Session
	for chunk, err := range m.generator.Stream(ctx, msg) {
		if err != nil {
			m.logger.Error("Failed to stream reply", slog.String(errLoggerKey, err.Error()))
			if sess == nil {
				m.writeStatus(w, http.StatusInternalServerError, generationFailedMessage)
				return
			}
			m.sendEvent(sess, errorSSEType, generationFailedMessage)
			return
		}

		if sess == nil {
			sess, err = sse.Upgrade(w, r)
			if err != nil {
				m.logger.Error("Failed to upgrade to sse", slog.String(errLoggerKey, err.Error()))
				m.writeStatus(w, http.StatusInternalServerError, internalErrorMessage)
				return
			}
		}
		if !m.sendEvent(sess, deltaSSEType, chunk) {
			return
		}
	}

	if sess == nil {
		m.logger.Error("Stream ended without any reply")
		m.writeStatus(w, http.StatusInternalServerError, generationFailedMessage)
		return
	}
	m.sendEvent(sess, doneSSEType, "end")
}

// chatMessage decodes and validates a chat request body, returning the trimmed message.
func (m Main) chatMessage(w http.ResponseWriter, r *http.Request) (string, error) {
	var req models.ChatRequest
	if err := m.decodeJSON(w, r, &req); err != nil {
		return "", err
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return "", badRequest("Message is required")
	}
	return msg, nil
}

func (m Main) sendEvent(sess *sse.Session, typ sse.EventType, data string) bool {
	e := &sse.Message{Type: typ}
	e.AppendData(data)

	if err := sess.Send(e); err != nil {
		m.logger.Error("Failed to send event", slog.String(errLoggerKey, err.Error()))
		return false
	}
	if err := sess.Flush(); err != nil {
		m.logger.Error("Failed to flush event", slog.String(errLoggerKey, err.Error()))
		return false
	}
	return true
}
