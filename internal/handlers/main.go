package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/MegaGrindStone/portfolio-assistant/internal/models"
	"golang.org/x/time/rate"
)

// Generator produces the assistant's reply to a visitor's message. Implementations hold their own
// provider client and persona and must be safe for concurrent use.
type Generator interface {
	GenerateReply(ctx context.Context, userText string) (string, error)
	Stream(ctx context.Context, userText string) iter.Seq2[string, error]
}

// ContactSender delivers a contact form submission to the site owner.
type ContactSender interface {
	SendContact(ctx context.Context, req models.ContactRequest) error
}

// Inbox records contact form submissions and the outcome of delivering them.
type Inbox interface {
	AddSubmission(ctx context.Context, sub models.ContactSubmission) (string, error)
	UpdateSubmission(ctx context.Context, sub models.ContactSubmission) error
}

// Main serves the assistant's HTTP API. It keeps no per-visitor state: every request is handled on its
// own, and the only shared resources are the read-only generator and contact collaborators and the
// rate limiter.
type Main struct {
	generator Generator
	contact   ContactSender
	inbox     Inbox

	requestTimeout time.Duration
	maxBodyBytes   int64
	limiter        *rateLimiter

	logger *slog.Logger
}

// Options tunes the limits Main enforces. Zero values select the defaults.
type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	// RatePerSecond is the sustained number of requests a single client may make to the API routes.
	// A negative value disables rate limiting.
	RatePerSecond float64
	RateBurst     int
}

const (
	errLoggerKey = "error"

	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 16 << 10
	defaultRatePerSecond  = 1
	defaultRateBurst      = 5

	generationFailedMessage = "Failed to generate response"
	sendFailedMessage       = "Failed to send email"
	internalErrorMessage    = "Internal server error"
)

// NewMain creates a Main that answers chat requests with generator and delivers contact submissions
// through contact, recording them in inbox.
func NewMain(generator Generator, contact ContactSender, inbox Inbox, opts Options, logger *slog.Logger) Main {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.RatePerSecond == 0 {
		opts.RatePerSecond = defaultRatePerSecond
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = defaultRateBurst
	}

	var limiter *rateLimiter
	if opts.RatePerSecond > 0 {
		limiter = newRateLimiter(rate.Limit(opts.RatePerSecond), opts.RateBurst)
	}

	return Main{
		generator:      generator,
		contact:        contact,
		inbox:          inbox,
		requestTimeout: opts.RequestTimeout,
		maxBodyBytes:   opts.MaxBodyBytes,
		limiter:        limiter,
		logger:         logger.With(slog.String("module", "handlers")),
	}
}

// Routes returns the API's handler: the chat, streaming chat and contact routes behind the rate limiter,
// the health check, and panic recovery around all of them.
func (m Main) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/chat", m.rateLimit(http.HandlerFunc(m.HandleChat)))
	mux.Handle("/api/chat/stream", m.rateLimit(http.HandlerFunc(m.HandleChatStream)))
	mux.Handle("/api/contact", m.rateLimit(http.HandlerFunc(m.HandleContact)))
	mux.HandleFunc("/healthz", m.HandleHealth)

	return m.recoverer(mux)
}

// HandleHealth reports that the server is up.
func (m Main) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		m.writeStatus(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	m.writeJSON(w, http.StatusOK, models.StatusResponse{Success: true, Message: "ok"})
}

// requestError is a client mistake detected at the HTTP boundary. Its message is safe to return.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(msg string) *requestError {
	return &requestError{status: http.StatusBadRequest, msg: msg}
}

// decodeJSON reads a single JSON object into v, rejecting bodies over the size cap, unknown fields, and
// trailing data.
func (m Main) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Method != http.MethodPost {
		return &requestError{status: http.StatusMethodNotAllowed, msg: "Method not allowed"}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, m.maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &requestError{status: http.StatusRequestEntityTooLarge, msg: "Request body is too large"}
		}
		return badRequest("Request body must be a JSON object")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("Request body must contain a single JSON object")
	}
	return nil
}

func (m Main) writeRequestError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		m.writeStatus(w, reqErr.status, reqErr.msg)
		return
	}
	m.writeStatus(w, http.StatusInternalServerError, internalErrorMessage)
}

func (m Main) writeStatus(w http.ResponseWriter, status int, msg string) {
	m.writeJSON(w, status, models.StatusResponse{Success: status < http.StatusBadRequest, Message: msg})
}

func (m Main) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.logger.Error("Failed to encode response", slog.String(errLoggerKey, err.Error()))
	}
}
