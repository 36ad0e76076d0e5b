// Package chatbox implements the assistant's conversation controller: the state a chat widget keeps for
// one visitor, the rules for accepting a submission, and the formatting applied to replies.
package chatbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MegaGrindStone/portfolio-assistant/internal/models"
	"github.com/google/uuid"
)

// Endpoint sends one visitor message to the chat endpoint and returns the reply text.
type Endpoint interface {
	Send(ctx context.Context, message string) (string, error)
}

// Widget owns a single transient conversation. Only one request can be outstanding at a time; further
// submissions are rejected until it completes. Nothing is persisted: the conversation lives as long as
// the Widget value.
type Widget struct {
	endpoint    Endpoint
	highlighter Highlighter
	timeout     time.Duration
	newID       func() string
	now         func() time.Time
	logger      *slog.Logger

	mu        sync.Mutex
	messages  []models.Message
	pending   bool
	draft     string
	open      bool
	observers []func(State)
	// seq numbers every change; notifyMu serializes delivery so a snapshot older than the last one
	// delivered is dropped.
	seq       uint64
	notifyMu  sync.Mutex
	delivered uint64
}

// State is a snapshot of a Widget's conversation.
type State struct {
	Messages []models.Message
	Pending  bool
	Draft    string
}

// Option configures a Widget.
type Option func(*Widget)

const (
	// ApologyMessage is appended in place of a reply whenever a request fails for any reason.
	ApologyMessage = "Sorry, I'm having trouble responding right now. Please try again."

	// DefaultTimeout bounds a single request to the endpoint.
	DefaultTimeout = 30 * time.Second
)

// Suggestions are the canned prompts a visitor can pick instead of typing.
var Suggestions = []string{
	"Who is Can?",
	"What projects has he built?",
	"What tech stack does he use?",
	"Tell me about his background",
}

var (
	// ErrInputRejected is the parent of every error returned for a submission that was not accepted.
	ErrInputRejected = errors.New("input rejected")
	// ErrEmptyInput is returned when the submitted text is empty or whitespace only.
	ErrEmptyInput = fmt.Errorf("%w: message is empty", ErrInputRejected)
	// ErrRequestPending is returned when a submission arrives while another is still outstanding.
	ErrRequestPending = fmt.Errorf("%w: a request is already pending", ErrInputRejected)
	// ErrUnknownSuggestion is returned by SelectSuggestion for an index outside Suggestions.
	ErrUnknownSuggestion = fmt.Errorf("%w: unknown suggestion", ErrInputRejected)
)

// WithHighlighter replaces the default name highlighter.
func WithHighlighter(h Highlighter) Option {
	return func(w *Widget) { w.highlighter = h }
}

// WithTimeout sets the per-request timeout. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(w *Widget) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithLogger sets the logger used to report failed requests.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Widget) { w.logger = logger }
}

// NewWidget creates an idle Widget with an empty conversation that talks to the given endpoint.
func NewWidget(endpoint Endpoint, opts ...Option) *Widget {
	w := &Widget{
		endpoint:    endpoint,
		highlighter: NewHighlighter(DefaultNames...),
		timeout:     DefaultTimeout,
		newID:       func() string { return uuid.New().String() },
		now:         time.Now,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(slog.String("module", "chatbox"))
	return w
}

// Submit sends text to the endpoint. The visitor's message is appended, the draft cleared and the
// Widget marked pending before Submit returns; the request itself runs in the background and the
// returned channel is closed once its reply (or the apology, on failure) has been appended.
//
// Submit returns ErrEmptyInput for blank text and ErrRequestPending while another request is
// outstanding; in both cases the conversation is left untouched.
func (w *Widget) Submit(ctx context.Context, text string) (<-chan struct{}, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	w.mu.Lock()
	if w.pending {
		w.mu.Unlock()
		return nil, ErrRequestPending
	}
	w.messages = append(w.messages, w.message(models.RoleUser, text))
	w.draft = ""
	w.pending = true
	state, seq := w.changed()
	w.mu.Unlock()

	w.notify(state, seq)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.complete(w.request(ctx, text))
	}()
	return done, nil
}

// SelectSuggestion submits Suggestions[i].
func (w *Widget) SelectSuggestion(ctx context.Context, i int) (<-chan struct{}, error) {
	if i < 0 || i >= len(Suggestions) {
		return nil, ErrUnknownSuggestion
	}
	return w.Submit(ctx, Suggestions[i])
}

// Clear empties the conversation. A pending request is not affected and its reply is still appended.
func (w *Widget) Clear() {
	w.mu.Lock()
	w.messages = nil
	state, seq := w.changed()
	w.mu.Unlock()

	w.notify(state, seq)
}

// OnChange registers fn to be called with a snapshot after every change to the messages or the pending
// flag. Callbacks run synchronously, outside the Widget's lock, on the goroutine that made the change.
// They are never called concurrently and never see a state older than one already delivered. A callback
// must not call Submit, SelectSuggestion or Clear.
func (w *Widget) OnChange(fn func(State)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, fn)
}

// SetDraft stores the visitor's uncommitted input.
func (w *Widget) SetDraft(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = text
}

// Draft returns the visitor's uncommitted input.
func (w *Widget) Draft() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Messages returns a copy of the conversation in insertion order.
func (w *Widget) Messages() []models.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot().Messages
}

// Pending reports whether a request is outstanding.
func (w *Widget) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// State returns a snapshot of the conversation.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

// Open marks the widget as shown.
func (w *Widget) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open = true
}

// Close marks the widget as hidden. The conversation is kept.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.open = false
}

// IsOpen reports whether the widget is shown.
func (w *Widget) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

func (w *Widget) request(ctx context.Context, text string) string {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	reply, err := w.endpoint.Send(ctx, text)
	if err != nil {
		w.logger.Error("Failed to get reply", slog.String("error", err.Error()))
		return ApologyMessage
	}
	return w.highlighter.Highlight(reply)
}

func (w *Widget) complete(content string) {
	w.mu.Lock()
	w.messages = append(w.messages, w.message(models.RoleAssistant, content))
	w.pending = false
	state, seq := w.changed()
	w.mu.Unlock()

	w.notify(state, seq)
}

func (w *Widget) message(role models.Role, content string) models.Message {
	return models.Message{
		ID:        w.newID(),
		Role:      role,
		Content:   content,
		CreatedAt: w.now(),
	}
}

// snapshot must be called with w.mu held.
func (w *Widget) snapshot() State {
	msgs := make([]models.Message, len(w.messages))
	copy(msgs, w.messages)
	return State{
		Messages: msgs,
		Pending:  w.pending,
		Draft:    w.draft,
	}
}

// changed must be called with w.mu held.
func (w *Widget) changed() (State, uint64) {
	w.seq++
	return w.snapshot(), w.seq
}

func (w *Widget) notify(state State, seq uint64) {
	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()
	if seq <= w.delivered {
		return
	}
	w.delivered = seq

	w.mu.Lock()
	observers := make([]func(State), len(w.observers))
	copy(observers, w.observers)
	w.mu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}
