package domain

import "context"

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelInApp NotificationChannel = "in_app"
)

type NotificationKind string

const (
	KindRewardActivated NotificationKind = "reward_activated"
	KindExpiryWarning   NotificationKind = "expiry_warning"
	KindRewardExpired   NotificationKind = "reward_expired"
)

// Recipient is a customer eligible for a reward's tier. Contact fields may be
// empty; channels missing their contact skip the recipient.
type Recipient struct {
	CustomerID string
	Name       string
	Email      string
	Phone      string
}

// RewardEvent is a lifecycle transition detected by the scheduler.
type RewardEvent struct {
	Kind            NotificationKind
	Template        *RewardTemplate
	DaysUntilExpiry int
}

type RenderedMessage struct {
	Subject string
	Body    string
	// Delivery metadata carried alongside the text.
	Kind       NotificationKind
	MerchantID string
}

// ChannelSender delivers one rendered message on one channel.
type ChannelSender interface {
	Channel() NotificationChannel
	Send(ctx context.Context, recipient Recipient, msg RenderedMessage) error
}

// RecipientSource lists the customers qualifying for a tier; backed by the
// host's customer store.
type RecipientSource interface {
	ListRecipients(ctx context.Context, merchantID string, tier Tier) ([]Recipient, error)
}
