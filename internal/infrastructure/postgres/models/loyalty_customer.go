package models

import "time"

// LoyaltyCustomerModel is the merchant's customer roster with the tier each
// customer has earned; the notification fan-out reads recipients from it.
type LoyaltyCustomerModel struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	MerchantID string `gorm:"index:idx_customer_merchant"`
	Name       string
	Email      string
	Phone      string
	Tier       string `gorm:"index:idx_customer_merchant"`
	Points     int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (LoyaltyCustomerModel) TableName() string {
	return "loyalty_customers"
}
