package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/metrics"
)

// defaultChannels apply when a template declares none.
var defaultChannels = []domain.NotificationChannel{domain.ChannelEmail, domain.ChannelInApp}

type Dispatcher struct {
	senders   map[domain.NotificationChannel]domain.ChannelSender
	templates Templates
	metrics   *metrics.RewardMetrics
	timeout   time.Duration
}

func NewDispatcher(senders []domain.ChannelSender, templates Templates, m *metrics.RewardMetrics, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	byChannel := make(map[domain.NotificationChannel]domain.ChannelSender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}
	return &Dispatcher{
		senders:   byChannel,
		templates: templates,
		metrics:   m,
		timeout:   timeout,
	}
}

// Dispatch renders the event's message and attempts every channel declared on
// the template. Channel failures are isolated: one failing provider never
// prevents the remaining channels from being tried.
func (d *Dispatcher) Dispatch(ctx context.Context, event *domain.RewardEvent, recipient domain.Recipient) {
	tpl, ok := d.templates[event.Kind]
	if !ok {
		slog.Error("no message template for notification kind", "kind", event.Kind)
		return
	}
	msg := render(tpl, eventVars(event, recipient))
	msg.Kind = event.Kind
	msg.MerchantID = event.Template.MerchantID

	channels := event.Template.Value.Channels
	if len(channels) == 0 {
		channels = defaultChannels
	}

	for _, channel := range channels {
		sender, ok := d.senders[channel]
		if !ok {
			slog.Warn("no sender configured for channel", "channel", channel)
			continue
		}
		if !hasContact(channel, recipient) {
			slog.Warn("recipient lacks contact for channel",
				"channel", channel,
				"customer_id", recipient.CustomerID,
				"kind", event.Kind,
			)
			if d.metrics != nil {
				d.metrics.NotificationsSkippedTotal.WithLabelValues(string(channel), string(event.Kind)).Inc()
			}
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := sender.Send(sendCtx, recipient, msg)
		cancel()

		status := "ok"
		if err != nil {
			status = "error"
			slog.Error("notification send failed",
				"channel", channel,
				"kind", event.Kind,
				"template_id", event.Template.ID,
				"error", err.Error(),
			)
		}
		if d.metrics != nil {
			d.metrics.NotificationsSentTotal.WithLabelValues(string(channel), string(event.Kind), status).Inc()
		}
	}
}

func hasContact(channel domain.NotificationChannel, r domain.Recipient) bool {
	switch channel {
	case domain.ChannelEmail:
		return r.Email != ""
	case domain.ChannelSMS:
		return r.Phone != ""
	default:
		return true
	}
}
