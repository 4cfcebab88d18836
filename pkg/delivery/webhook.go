package delivery

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/classkit/pkg/notification"
)

// WebhookConfig holds the outbound webhook sender configuration.
type WebhookConfig struct {
	EndpointURL   string        `env:"WEBHOOK_ENDPOINT_URL,required"`
	SigningSecret string        `env:"WEBHOOK_SIGNING_SECRET,required"`
	Timeout       time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
}

// WebhookSender delivers notifications as signed HTTP POST requests to an
// external endpoint. Payloads are signed with HMAC-SHA256 bound to a
// timestamp so receivers can reject replays.
type WebhookSender struct {
	config WebhookConfig
	client *http.Client
}

// webhookPayload is the JSON body posted to the endpoint.
type webhookPayload struct {
	ID           string                `json:"id"`
	EventType    string                `json:"event_type"`
	RecipientID  string                `json:"recipient_id"`
	SenderID     string                `json:"sender_id,omitempty"`
	Priority     notification.Priority `json:"priority"`
	Title        string                `json:"title"`
	Message      string                `json:"message"`
	ShortMessage string                `json:"short_message,omitempty"`
	Context      notification.Context  `json:"context,omitzero"`
	CreatedAt    time.Time             `json:"created_at"`
}

// NewWebhookSender creates a webhook sender for the configured endpoint.
func NewWebhookSender(cfg WebhookConfig) (*WebhookSender, error) {
	if cfg.EndpointURL == "" {
		return nil, fmt.Errorf("%w: EndpointURL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(cfg.EndpointURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: EndpointURL must be an absolute URL", ErrInvalidConfig)
	}
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("%w: SigningSecret is required", ErrInvalidConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &WebhookSender{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (s *WebhookSender) Channel() notification.Channel { return notification.ChannelWebhook }

// Send posts the notification to the endpoint. Any non-2xx response marks the
// delivery failed; the generated webhook id becomes the tracking id.
func (s *WebhookSender) Send(ctx context.Context, n notification.Notification) (string, error) {
	payload, err := json.Marshal(webhookPayload{
		ID:           n.ID,
		EventType:    string(n.Type),
		RecipientID:  n.RecipientID,
		SenderID:     n.SenderID,
		Priority:     n.Priority,
		Title:        n.Title,
		Message:      n.Message,
		ShortMessage: n.ShortMessage,
		Context:      n.Context,
		CreatedAt:    n.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	webhookID := uuid.New().String()
	timestamp := time.Now().Unix()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.EndpointURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signPayload(s.config.SigningSecret, timestamp, payload))
	req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(timestamp, 10))
	req.Header.Set("X-Webhook-ID", webhookID)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWebhookDeliveryFailed, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: endpoint returned %d", ErrWebhookDeliveryFailed, resp.StatusCode)
	}
	return webhookID, nil
}

// signPayload computes HMAC-SHA256(secret, timestamp + "." + payload). The
// timestamp binding prevents replay of captured requests.
func signPayload(secret string, timestamp int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.%s", timestamp, payload)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyWebhookSignature validates a received payload against its signature
// headers. Receivers should reject requests older than maxAge.
func VerifyWebhookSignature(secret string, payload []byte, signature string, timestamp int64, maxAge time.Duration) error {
	if maxAge > 0 {
		age := time.Since(time.Unix(timestamp, 0))
		if age > maxAge {
			return fmt.Errorf("%w: signature timestamp too old: %v", ErrWebhookDeliveryFailed, age)
		}
		if age < -time.Minute {
			return fmt.Errorf("%w: signature timestamp is in the future", ErrWebhookDeliveryFailed)
		}
	}
	expected := signPayload(secret, timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: signature mismatch", ErrWebhookDeliveryFailed)
	}
	return nil
}

var _ Sender = (*WebhookSender)(nil)
