package models

import "time"

type RewardTemplateModel struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	MerchantID string `gorm:"index:idx_merchant_tier_type,unique;index:idx_merchant_active"`
	Tier       string `gorm:"index:idx_merchant_tier_type,unique"`
	RewardType string `gorm:"index:idx_merchant_tier_type,unique"`
	// Value is the configuration bag: the type-specific variant plus runtime
	// counters and sync bookkeeping.
	Value     string `gorm:"type:jsonb"`
	IsActive  bool   `gorm:"index:idx_merchant_active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RewardTemplateModel) TableName() string {
	return "reward_templates"
}

// InAppNotificationModel stores in-app inbox entries written by the in-app
// notification channel.
type InAppNotificationModel struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	MerchantID string `gorm:"index"`
	CustomerID string `gorm:"index"`
	Kind       string
	Subject    string
	Body       string
	ReadAt     *time.Time
	CreatedAt  time.Time
}

func (InAppNotificationModel) TableName() string {
	return "in_app_notifications"
}
