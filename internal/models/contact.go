package models

import "time"

// ContactRequest is the body accepted by the contact endpoint.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactSubmission is a contact form entry as recorded in the inbox, together with the outcome of
// handing it to the mail service.
type ContactSubmission struct {
	ID      string
	Name    string
	Email   string
	Subject string
	Message string

	Status ContactStatus
	// Error holds the delivery error text when Status is ContactStatusFailed.
	Error string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactStatus is the delivery state of a contact submission.
type ContactStatus string

const (
	ContactStatusPending ContactStatus = "pending"
	ContactStatusSent    ContactStatus = "sent"
	ContactStatusFailed  ContactStatus = "failed"
)
