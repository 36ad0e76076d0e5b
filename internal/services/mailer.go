package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MegaGrindStone/portfolio-assistant/internal/models"
	chromahtml "github.com/alecthomas/chroma/formatters/html"
	"github.com/wneessen/go-mail"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
)

// MailSender delivers composed messages. *mail.Client satisfies it.
type MailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPOptions configures the SMTP relay used for contact messages.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Timeout  time.Duration
}

// Mailer turns contact form submissions into e-mails addressed to the site owner. Delivery is entirely
// up to the SMTP relay; Mailer does not retry.
type Mailer struct {
	from string
	to   string

	sender MailSender
	md     goldmark.Markdown
}

const contactSubjectPrefix = "Portfolio Contact: "

// NewMailer creates a Mailer that sends through the SMTP relay described by opts, using PLAIN
// authentication over a mandatory STARTTLS connection.
func NewMailer(opts SMTPOptions) (Mailer, error) {
	if opts.Host == "" {
		return Mailer{}, errors.New("smtp host is required")
	}

	clientOpts := []mail.Option{
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	}
	if opts.Port != 0 {
		clientOpts = append(clientOpts, mail.WithPort(opts.Port))
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(opts.Username),
			mail.WithPassword(opts.Password),
		)
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, mail.WithTimeout(opts.Timeout))
	}

	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return Mailer{}, fmt.Errorf("failed to create smtp client: %w", err)
	}

	from := opts.From
	if from == "" {
		from = opts.Username
	}
	to := opts.To
	if to == "" {
		to = from
	}
	return NewMailerWithSender(from, to, client), nil
}

// NewMailerWithSender creates a Mailer that hands composed messages to sender.
func NewMailerWithSender(from, to string, sender MailSender) Mailer {
	return Mailer{
		from:   from,
		to:     to,
		sender: sender,
		// Mail clients strip <style> blocks, so code is highlighted with inline styles.
		md: goldmark.New(goldmark.WithExtensions(
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(chromahtml.WithClasses(false)),
			),
		)),
	}
}

// SendContact composes and sends the e-mail for a contact form submission.
func (m Mailer) SendContact(ctx context.Context, req models.ContactRequest) error {
	msg, err := m.Compose(req)
	if err != nil {
		return err
	}

	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// Compose builds the e-mail for a contact form submission: a plain-text body with an HTML alternative,
// addressed to the site owner with Reply-To set to the visitor.
func (m Mailer) Compose(req models.ContactRequest) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(m.to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if err := msg.ReplyTo(req.Email); err != nil {
		return nil, fmt.Errorf("invalid reply-to address: %w", err)
	}
	msg.Subject(contactSubjectPrefix + req.Subject)
	msg.SetDate()
	msg.SetMessageID()

	msg.SetBodyString(mail.TypeTextPlain, contactPlainBody(req))

	html, err := m.HTMLBody(req)
	if err != nil {
		return nil, err
	}
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	return msg, nil
}

// HTMLBody renders the HTML alternative of the contact e-mail. The visitor's message is treated as
// Markdown; fenced code blocks are syntax highlighted.
func (m Mailer) HTMLBody(req models.ContactRequest) (string, error) {
	var html bytes.Buffer
	if err := m.md.Convert([]byte(contactMarkdownBody(req)), &html); err != nil {
		return "", fmt.Errorf("failed to render html body: %w", err)
	}
	return html.String(), nil
}

func contactPlainBody(req models.ContactRequest) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\nSubject: %s\n\nMessage:\n%s\n\n---\nSent from Can Saragih Portfolio Website",
		req.Name, req.Email, req.Subject, req.Message)
}

// contactMarkdownBody is rendered with goldmark's default options, which omit raw HTML, so markup typed
// by a visitor never reaches the HTML part.
func contactMarkdownBody(req models.ContactRequest) string {
	return fmt.Sprintf(`## New Message from Portfolio Website

**Name:** %s
**Email:** %s
**Subject:** %s

### Message:

%s

---

*This message was sent from your portfolio website contact form.*
`, req.Name, req.Email, req.Subject, req.Message)
}

// ErrMailDisabled is returned by DisabledMailer.
var ErrMailDisabled = errors.New("mail delivery is not configured")

// DisabledMailer stands in for Mailer when no SMTP relay is configured. Every submission fails with
// ErrMailDisabled, but is still recorded in the inbox by the caller.
type DisabledMailer struct{}

// SendContact always returns ErrMailDisabled.
func (DisabledMailer) SendContact(context.Context, models.ContactRequest) error {
	return ErrMailDisabled
}
