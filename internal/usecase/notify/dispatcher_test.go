package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
)

type recordingSender struct {
	channel domain.NotificationChannel
	fail    bool
	sent    []domain.RenderedMessage
}

func (s *recordingSender) Channel() domain.NotificationChannel { return s.channel }

func (s *recordingSender) Send(ctx context.Context, recipient domain.Recipient, msg domain.RenderedMessage) error {
	if s.fail {
		return errors.New("provider unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func testEvent(kind domain.NotificationKind, mutate func(*domain.RewardTemplate)) *domain.RewardEvent {
	tpl := &domain.RewardTemplate{
		ID:         "tpl-1",
		MerchantID: "merchant-1",
		Tier:       domain.TierGold,
		RewardType: domain.RewardDiscount,
		IsActive:   true,
		CreatedAt:  time.Now().Add(-48 * time.Hour),
		Value: domain.RewardValue{
			Title:       "Gold anniversary discount",
			Description: "15% off your next order.",
		},
	}
	if mutate != nil {
		mutate(tpl)
	}
	return &domain.RewardEvent{Kind: kind, Template: tpl}
}

func newTestDispatcher(senders ...domain.ChannelSender) *Dispatcher {
	return NewDispatcher(senders, DefaultTemplates(), nil, time.Second)
}

func TestDispatchRendersPlaceholders(t *testing.T) {
	email := &recordingSender{channel: domain.ChannelEmail}
	d := newTestDispatcher(email)

	event := testEvent(domain.KindRewardActivated, nil)
	d.Dispatch(context.Background(), event, domain.Recipient{
		CustomerID: "cust-1",
		Name:       "Lena",
		Email:      "lena@example.com",
	})

	require.Len(t, email.sent, 1)
	msg := email.sent[0]
	assert.Equal(t, "Your gold reward is ready", msg.Subject)
	assert.Contains(t, msg.Body, "Hi Lena")
	assert.Contains(t, msg.Body, "Gold anniversary discount")
	assert.Contains(t, msg.Body, "15% off your next order.")
	assert.Equal(t, domain.KindRewardActivated, msg.Kind)
	assert.Equal(t, "merchant-1", msg.MerchantID)
}

func TestDispatchTitleFallback(t *testing.T) {
	email := &recordingSender{channel: domain.ChannelEmail}
	d := newTestDispatcher(email)

	event := testEvent(domain.KindRewardActivated, func(tpl *domain.RewardTemplate) {
		tpl.Value.Title = ""
		tpl.RewardType = domain.RewardFreeShipping
	})
	d.Dispatch(context.Background(), event, domain.Recipient{Name: "Lena", Email: "lena@example.com"})

	require.Len(t, email.sent, 1)
	assert.Contains(t, email.sent[0].Body, "Gold free shipping reward")
}

func TestDispatchWarningIncludesDaysLeft(t *testing.T) {
	email := &recordingSender{channel: domain.ChannelEmail}
	d := newTestDispatcher(email)

	event := testEvent(domain.KindExpiryWarning, nil)
	event.DaysUntilExpiry = 2
	d.Dispatch(context.Background(), event, domain.Recipient{Name: "Lena", Email: "lena@example.com"})

	require.Len(t, email.sent, 1)
	assert.Contains(t, email.sent[0].Subject, "expires in 2 days")
	assert.Contains(t, email.sent[0].Body, "expires in 2 days")
}

func TestDispatchChannelFailureIsIsolated(t *testing.T) {
	email := &recordingSender{channel: domain.ChannelEmail, fail: true}
	inApp := &recordingSender{channel: domain.ChannelInApp}
	d := newTestDispatcher(email, inApp)

	event := testEvent(domain.KindRewardExpired, nil)
	d.Dispatch(context.Background(), event, domain.Recipient{Name: "Lena", Email: "lena@example.com"})

	// Default channels are email + in_app; the email failure must not block in_app.
	require.Len(t, inApp.sent, 1)
	assert.Contains(t, inApp.sent[0].Body, "has expired")
}

func TestDispatchSkipsChannelWithoutContact(t *testing.T) {
	email := &recordingSender{channel: domain.ChannelEmail}
	sms := &recordingSender{channel: domain.ChannelSMS}
	d := newTestDispatcher(email, sms)

	event := testEvent(domain.KindRewardActivated, func(tpl *domain.RewardTemplate) {
		tpl.Value.Channels = []domain.NotificationChannel{domain.ChannelEmail, domain.ChannelSMS}
	})
	// Recipient has an email address but no phone number.
	d.Dispatch(context.Background(), event, domain.Recipient{Name: "Lena", Email: "lena@example.com"})

	assert.Len(t, email.sent, 1)
	assert.Empty(t, sms.sent)
}

func TestDispatchHonorsTemplateChannels(t *testing.T) {
	email := &recordingSender{channel: domain.ChannelEmail}
	inApp := &recordingSender{channel: domain.ChannelInApp}
	d := newTestDispatcher(email, inApp)

	event := testEvent(domain.KindRewardActivated, func(tpl *domain.RewardTemplate) {
		tpl.Value.Channels = []domain.NotificationChannel{domain.ChannelInApp}
	})
	d.Dispatch(context.Background(), event, domain.Recipient{Name: "Lena", Email: "lena@example.com"})

	assert.Empty(t, email.sent)
	assert.Len(t, inApp.sent, 1)
}
