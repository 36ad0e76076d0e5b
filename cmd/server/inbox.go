package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/MegaGrindStone/portfolio-assistant/internal/services"
)

// listInbox prints the contact submissions recorded at path, newest first.
func listInbox(ctx context.Context, out io.Writer, path string) error {
	inbox, err := services.NewBoltDB(path)
	if err != nil {
		return err
	}
	defer inbox.Close()

	subs, err := inbox.Submissions(ctx)
	if err != nil {
		return fmt.Errorf("error reading inbox: %w", err)
	}

	w := bufio.NewWriter(out)
	if len(subs) == 0 {
		fmt.Fprintln(w, "Inbox is empty")
	}
	for i, sub := range subs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%s] %s  %s <%s>\n", sub.CreatedAt.Local().Format(time.DateTime), sub.Status, sub.Name, sub.Email)
		fmt.Fprintf(w, "Subject: %s\n", sub.Subject)
		if sub.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", sub.Error)
		}
		fmt.Fprintln(w, sub.Message)
	}
	return w.Flush()
}
