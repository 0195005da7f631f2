package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RewardMetrics covers lifecycle transitions, notification fan-out and
// commerce sync outcomes.
type RewardMetrics struct {
	RewardsActivatedTotal prometheus.CounterVec
	RewardsExpiredTotal   prometheus.CounterVec
	ExpiryWarningsTotal   prometheus.CounterVec

	UsageRecordedTotal prometheus.CounterVec

	NotificationsSentTotal    prometheus.CounterVec
	NotificationsSkippedTotal prometheus.CounterVec

	CommerceSyncsTotal   prometheus.CounterVec
	CommerceSyncDuration prometheus.HistogramVec

	SchedulerTickDuration      prometheus.HistogramVec
	SchedulerTemplateErrsTotal prometheus.CounterVec
}

func NewRewardMetrics() *RewardMetrics {
	return &RewardMetrics{
		RewardsActivatedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewards_activated_total",
				Help: "Reward templates that reached the active state",
			},
			[]string{"merchant_id", "tier", "reward_type"},
		),

		RewardsExpiredTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewards_expired_total",
				Help: "Reward templates deactivated after expiry",
			},
			[]string{"merchant_id", "tier", "reward_type"},
		),

		ExpiryWarningsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reward_expiry_warnings_total",
				Help: "Expiration warnings emitted by the scheduler",
			},
			[]string{"merchant_id", "tier", "reward_type"},
		),

		UsageRecordedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reward_usage_recorded_total",
				Help: "Successful reward redemptions",
			},
			[]string{"merchant_id", "tier", "reward_type"},
		),

		NotificationsSentTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reward_notifications_sent_total",
				Help: "Notification channel attempts by outcome",
			},
			[]string{"channel", "kind", "status"},
		),

		NotificationsSkippedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reward_notifications_skipped_total",
				Help: "Recipients skipped for a channel due to missing contact",
			},
			[]string{"channel", "kind"},
		),

		CommerceSyncsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commerce_syncs_total",
				Help: "Commerce platform sync attempts by result",
			},
			[]string{"merchant_id", "reward_type", "result"},
		),

		CommerceSyncDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "commerce_sync_duration_seconds",
				Help:    "Duration of a single template sync",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"reward_type"},
		),

		SchedulerTickDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scheduler_tick_duration_seconds",
				Help:    "Duration of a per-merchant scheduler tick",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"merchant_id"},
		),

		SchedulerTemplateErrsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_template_errors_total",
				Help: "Templates skipped in a tick due to evaluation or transition errors",
			},
			[]string{"merchant_id", "stage"},
		),
	}
}
