package services

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	portfolioassistant "github.com/MegaGrindStone/portfolio-assistant"
)

// PersonaFacts holds the values substituted into the persona template.
type PersonaFacts struct {
	Name      string
	BirthYear int
	Age       int
}

const (
	personaName      = "Can Whardana Saragih"
	personaBirthYear = 2001
)

// ErrEmptyPersona is returned when the persona preamble would be blank.
var ErrEmptyPersona = errors.New("persona preamble is empty")

// NewPersona returns the persona preamble that every provider prepends to the visitor's message. A
// non-blank override is used as is; otherwise the embedded template is rendered with the subject's age
// as of now.
func NewPersona(override string, now time.Time) (string, error) {
	if strings.TrimSpace(override) != "" {
		return override, nil
	}

	tmpl, err := template.New("persona").Parse(portfolioassistant.PersonaTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse persona template: %w", err)
	}

	var sb strings.Builder
	err = tmpl.Execute(&sb, PersonaFacts{
		Name:      personaName,
		BirthYear: personaBirthYear,
		Age:       now.Year() - personaBirthYear,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render persona template: %w", err)
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyPersona
	}
	return sb.String(), nil
}

// combinedPrompt joins the persona and the visitor's text into the single prompt sent to a provider.
func combinedPrompt(persona, userText string) string {
	return persona + "\n\nUser: " + userText
}
