package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/MegaGrindStone/portfolio-assistant/internal/models"
	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// HandleContact records a contact form submission in the inbox and hands it to the mail service.
//
// The body must be a JSON object with non-blank name, email, subject and message fields, and the email
// must look like an address; otherwise the first problem found is returned with a 400. The outcome of
// delivery is stored with the submission. Delivery failures are answered with a 500 and the generic
// "Failed to send email" message.
func (m Main) HandleContact(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if err := m.decodeJSON(w, r, &req); err != nil {
		m.logger.Warn("Rejected contact request", slog.String(errLoggerKey, err.Error()))
		m.writeRequestError(w, err)
		return
	}

	req = models.ContactRequest{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if err := validateContact(req); err != nil {
		m.writeRequestError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), m.requestTimeout)
	defer cancel()

	now := time.Now()
	sub := models.ContactSubmission{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    models.ContactStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	subID, err := m.inbox.AddSubmission(ctx, sub)
	if err != nil {
		m.logger.Error("Failed to record contact submission", slog.String(errLoggerKey, err.Error()))
		m.writeStatus(w, http.StatusInternalServerError, sendFailedMessage)
		return
	}
	sub.ID = subID

	sendErr := m.contact.SendContact(ctx, req)

	sub.Status = models.ContactStatusSent
	if sendErr != nil {
		sub.Status = models.ContactStatusFailed
		sub.Error = sendErr.Error()
	}
	sub.UpdatedAt = time.Now()
	// The submission's outcome is recorded even if the request context has already expired.
	if err := m.inbox.UpdateSubmission(context.WithoutCancel(ctx), sub); err != nil {
		m.logger.Error("Failed to update contact submission",
			slog.String("id", sub.ID),
			slog.String(errLoggerKey, err.Error()))
	}

	if sendErr != nil {
		m.logger.Error("Failed to send contact email",
			slog.String("id", sub.ID),
			slog.String(errLoggerKey, sendErr.Error()))
		m.writeStatus(w, http.StatusInternalServerError, sendFailedMessage)
		return
	}

	m.logger.Info("Contact email sent", slog.String("id", sub.ID))
	m.writeStatus(w, http.StatusOK, "Email sent successfully!")
}

func validateContact(req models.ContactRequest) error {
	switch {
	case req.Name == "":
		return badRequest("Name is required")
	case req.Email == "":
		return badRequest("Email is required")
	case !emailPattern.MatchString(req.Email), !replyToAccepted(req.Email):
		return badRequest("Please enter a valid email address")
	case req.Subject == "":
		return badRequest("Subject is required")
	case req.Message == "":
		return badRequest("Message is required")
	}
	return nil
}

// replyToAccepted reports whether the mailer will take addr as the Reply-To of the contact e-mail.
func replyToAccepted(addr string) bool {
	return mail.NewMsg().ReplyTo(addr) == nil
}
