package notify

import "github.com/Bernadoadk/qr-flow-reward-service/internal/domain"

type MessageTemplate struct {
	Subject string
	Body    string
}

// Templates maps a transition kind to its message text. The map is built once
// at startup and injected into the dispatcher; it is never mutated afterwards.
type Templates map[domain.NotificationKind]MessageTemplate

// DefaultTemplates returns the built-in message set. Placeholders are
// substituted from the event: customer_name, reward_title, reward_description,
// tier, reward_type and, for warnings, days_left.
func DefaultTemplates() Templates {
	return Templates{
		domain.KindRewardActivated: {
			Subject: "Your {{tier}} reward is ready",
			Body: "Hi {{customer_name}}, your reward \"{{reward_title}}\" is now active. " +
				"{{reward_description}}",
		},
		domain.KindExpiryWarning: {
			Subject: "Your {{tier}} reward expires in {{days_left}} days",
			Body: "Hi {{customer_name}}, your reward \"{{reward_title}}\" expires in " +
				"{{days_left}} days. Use it before it's gone.",
		},
		domain.KindRewardExpired: {
			Subject: "Your {{tier}} reward has expired",
			Body: "Hi {{customer_name}}, your reward \"{{reward_title}}\" ({{reward_type}}) " +
				"has expired. Keep scanning to unlock the next one.",
		},
	}
}
