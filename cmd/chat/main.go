package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/MegaGrindStone/portfolio-assistant/internal/chatbox"
	"github.com/MegaGrindStone/portfolio-assistant/internal/models"
	"github.com/joho/godotenv"
)

const (
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

func main() {
	_ = godotenv.Load()

	defaultServer := os.Getenv("ASSISTANT_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}

	server := flag.String("server", defaultServer, "base URL of the assistant server")
	timeout := flag.Duration("timeout", chatbox.DefaultTimeout, "timeout for a single reply")
	plain := flag.Bool("plain", false, "mark highlighted names with * instead of terminal bold")
	debug := flag.Bool("debug", false, "log failed requests to stderr")
	flag.Parse()

	logger := slog.New(slog.DiscardHandler)
	if *debug {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := chatbox.NewWidget(chatbox.NewHTTPEndpoint(*server, nil),
		chatbox.WithTimeout(*timeout),
		chatbox.WithLogger(logger))

	t := terminal{out: os.Stdout, plain: *plain}
	w.OnChange(t.render)
	w.Open()

	t.greet()
	if err := t.run(ctx, w, os.Stdin); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type terminal struct {
	out   io.Writer
	plain bool

	// printed counts the messages already written, so a render only prints what is new.
	printed int
}

func (t *terminal) greet() {
	fmt.Fprintln(t.out, "Ask me anything about Can. Commands: /suggest [n], /clear, /quit")
	for i, s := range chatbox.Suggestions {
		fmt.Fprintf(t.out, "  %d. %s\n", i+1, s)
	}
}

func (t *terminal) run(ctx context.Context, w *chatbox.Widget, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(t.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		var (
			done <-chan struct{}
			err  error
		)
		switch {
		case line == "/quit":
			w.Close()
			return nil
		case line == "/clear":
			w.Clear()
			continue
		case strings.HasPrefix(line, "/suggest"):
			arg := strings.TrimSpace(strings.TrimPrefix(line, "/suggest"))
			if arg == "" {
				t.greet()
				continue
			}
			n, convErr := strconv.Atoi(arg)
			if convErr != nil {
				fmt.Fprintf(t.out, "not a suggestion number: %q\n", arg)
				continue
			}
			done, err = w.SelectSuggestion(ctx, n-1)
		default:
			w.SetDraft(line)
			done, err = w.Submit(ctx, w.Draft())
		}

		if errors.Is(err, chatbox.ErrEmptyInput) {
			continue
		}
		if err != nil {
			fmt.Fprintln(t.out, err)
			continue
		}

		if !t.wait(ctx, done) {
			return nil
		}
	}
}

// wait blocks until the reply is in, printing a progress marker every second.
func (t *terminal) wait(ctx context.Context, done <-chan struct{}) bool {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-done:
			return true
		case <-ctx.Done():
			return false
		case <-tick.C:
			fmt.Fprint(t.out, ".")
		}
	}
}

func (t *terminal) render(s chatbox.State) {
	if len(s.Messages) < t.printed {
		// Cleared.
		t.printed = 0
		if len(s.Messages) == 0 {
			fmt.Fprintln(t.out, "(conversation cleared)")
			return
		}
	}

	for _, msg := range s.Messages[t.printed:] {
		if msg.Role == models.RoleUser {
			continue
		}
		fmt.Fprintf(t.out, "\nassistant: %s\n", t.format(msg.Content))
	}
	t.printed = len(s.Messages)

	if s.Pending {
		fmt.Fprint(t.out, "thinking")
	}
}

func (t *terminal) format(content string) string {
	var sb strings.Builder
	for _, seg := range chatbox.Segments(content) {
		switch {
		case !seg.Bold:
			sb.WriteString(seg.Text)
		case t.plain:
			sb.WriteString("*" + seg.Text + "*")
		default:
			sb.WriteString(ansiBold + seg.Text + ansiReset)
		}
	}
	return sb.String()
}
