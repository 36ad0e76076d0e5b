package services_test

import (
	"strings"
	"testing"
	"time"

	"github.com/MegaGrindStone/portfolio-assistant/internal/services"
)

func TestNewPersona(t *testing.T) {
	now := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		override string
		contains []string
		exact    string
	}{
		{
			name:     "Embedded template",
			contains: []string{"Can Whardana Saragih's personal AI assistant", "December 30, 2001", "Currently 25 years old", "Feronicha Charly"},
		},
		{
			name:     "Blank override falls back to template",
			override: "  \n\t",
			contains: []string{"Currently 25 years old"},
		},
		{
			name:     "Override",
			override: "You are a terse assistant.",
			exact:    "You are a terse assistant.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := services.NewPersona(tt.override, now)
			if err != nil {
				t.Fatalf("NewPersona() error = %v", err)
			}
			if tt.exact != "" && got != tt.exact {
				t.Errorf("NewPersona() = %q, want %q", got, tt.exact)
			}
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("NewPersona() should contain %q", s)
				}
			}
			if strings.Contains(got, "{{") {
				t.Error("NewPersona() left template actions unrendered")
			}
		})
	}
}
