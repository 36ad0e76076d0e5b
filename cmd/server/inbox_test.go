package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MegaGrindStone/portfolio-assistant/internal/models"
	"github.com/MegaGrindStone/portfolio-assistant/internal/services"
)

func TestListInbox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.db")
	ctx := context.Background()

	db, err := services.NewBoltDB(path)
	if err != nil {
		t.Fatalf("NewBoltDB() error = %v", err)
	}
	now := time.Now()
	for _, sub := range []models.ContactSubmission{
		{ID: "1", Name: "Ada", Email: "ada@example.com", Subject: "First", Message: "Hello from Ada",
			Status: models.ContactStatusSent, CreatedAt: now},
		{ID: "2", Name: "Grace", Email: "grace@example.com", Subject: "Second", Message: "Hello from Grace",
			Status: models.ContactStatusFailed, Error: "smtp: connection refused", CreatedAt: now},
	} {
		if _, err := db.AddSubmission(ctx, sub); err != nil {
			t.Fatalf("AddSubmission() error = %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var out strings.Builder
	if err := listInbox(ctx, &out, path); err != nil {
		t.Fatalf("listInbox() error = %v", err)
	}
	got := out.String()

	for _, want := range []string{
		"sent  Ada <ada@example.com>",
		"Subject: First",
		"Hello from Ada",
		"failed  Grace <grace@example.com>",
		"Error: smtp: connection refused",
		"Hello from Grace",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("listInbox() output should contain %q\n%s", want, got)
		}
	}
	if strings.Index(got, "Grace") > strings.Index(got, "Ada") {
		t.Errorf("listInbox() should print the newest submission first\n%s", got)
	}
}

func TestListInboxEmpty(t *testing.T) {
	var out strings.Builder
	if err := listInbox(context.Background(), &out, filepath.Join(t.TempDir(), "inbox.db")); err != nil {
		t.Fatalf("listInbox() error = %v", err)
	}
	if got := out.String(); got != "Inbox is empty\n" {
		t.Errorf("listInbox() = %q, want the empty notice", got)
	}
}
