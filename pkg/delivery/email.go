package delivery

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/classkit/pkg/notification"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailConfig holds the Postmark sender configuration.
type EmailConfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	ReplyToEmail         string `env:"REPLY_TO_EMAIL"`
}

// RecipientDirectory resolves a recipient id to an email address. The
// notification store keeps user ids only, so the address comes from the
// user system at send time and stays current when users change it.
type RecipientDirectory interface {
	EmailAddress(ctx context.Context, recipientID string) (string, error)
}

// EmailSender delivers notifications over Postmark's transactional API.
type EmailSender struct {
	client    *postmark.Client
	directory RecipientDirectory
	config    EmailConfig
}

// NewEmailSender creates a Postmark-backed email sender. All tokens are
// required so a misconfigured service fails at startup, not at first send.
func NewEmailSender(cfg EmailConfig, directory RecipientDirectory) (*EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if cfg.ReplyToEmail != "" && !emailRegex.MatchString(cfg.ReplyToEmail) {
		return nil, fmt.Errorf("%w: ReplyToEmail must be a valid email address", ErrInvalidConfig)
	}
	if directory == nil {
		return nil, fmt.Errorf("%w: recipient directory is required", ErrInvalidConfig)
	}

	return &EmailSender{
		client:    postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		directory: directory,
		config:    cfg,
	}, nil
}

// MustNewEmailSender creates an email sender that panics on invalid config.
func MustNewEmailSender(cfg EmailConfig, directory RecipientDirectory) *EmailSender {
	s, err := NewEmailSender(cfg, directory)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *EmailSender) Channel() notification.Channel { return notification.ChannelEmail }

// Send resolves the recipient's address and sends the notification body as a
// transactional email. The Postmark message id becomes the tracking id.
func (s *EmailSender) Send(ctx context.Context, n notification.Notification) (string, error) {
	addr, err := s.directory.EmailAddress(ctx, n.RecipientID)
	if err != nil {
		return "", errors.Join(ErrNoEmailAddress, err)
	}
	if !emailRegex.MatchString(addr) {
		return "", fmt.Errorf("%w: %q", ErrNoEmailAddress, addr)
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       s.config.SenderEmail,
		ReplyTo:    s.config.ReplyToEmail,
		To:         addr,
		Subject:    n.Title,
		Tag:        string(n.Type),
		HTMLBody:   emailBody(n),
		TextBody:   n.Message,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
		Metadata:   map[string]string{"notification_id": n.ID},
	})
	if err != nil {
		return "", errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return "", errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return resp.MessageID, nil
}

func emailBody(n notification.Notification) string {
	body := fmt.Sprintf("<h2>%s</h2><p>%s</p>",
		html.EscapeString(n.Title),
		html.EscapeString(n.Message),
	)
	if n.Context.URL != "" {
		body += fmt.Sprintf(`<p><a href="%s">View details</a></p>`, html.EscapeString(n.Context.URL))
	}
	return body
}

var _ Sender = (*EmailSender)(nil)
