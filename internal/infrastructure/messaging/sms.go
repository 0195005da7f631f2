package messaging

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/config"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
)

// SMSSender posts messages to a Twilio-style form-encoded messages endpoint.
type SMSSender struct {
	endpoint   string
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
}

func NewSMSSender(cfg config.SMSProvider) *SMSSender {
	return &SMSSender{
		endpoint:   cfg.Endpoint,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.From,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SMSSender) Channel() domain.NotificationChannel {
	return domain.ChannelSMS
}

func (s *SMSSender) Send(ctx context.Context, recipient domain.Recipient, msg domain.RenderedMessage) error {
	form := url.Values{}
	form.Set("From", s.from)
	form.Set("To", recipient.Phone)
	form.Set("Body", msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}
	return nil
}
