package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/config"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
)

// EmailSender posts messages to a transactional email provider's HTTP API.
type EmailSender struct {
	endpoint   string
	apiKey     string
	from       string
	httpClient *http.Client
}

func NewEmailSender(cfg config.EmailProvider) *EmailSender {
	return &EmailSender{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		from:       cfg.From,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *EmailSender) Channel() domain.NotificationChannel {
	return domain.ChannelEmail
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (s *EmailSender) Send(ctx context.Context, recipient domain.Recipient, msg domain.RenderedMessage) error {
	payload, err := json.Marshal(emailRequest{
		From:    s.from,
		To:      []string{recipient.Email},
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}
	return nil
}
