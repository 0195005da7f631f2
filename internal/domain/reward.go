package domain

import "time"

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// tierRank orders tiers for qualification checks (bronze lowest).
var tierRank = map[Tier]int{
	TierBronze:   0,
	TierSilver:   1,
	TierGold:     2,
	TierPlatinum: 3,
}

func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Rank returns the tier position in the loyalty ladder, -1 for unknown tiers.
func (t Tier) Rank() int {
	rank, ok := tierRank[t]
	if !ok {
		return -1
	}
	return rank
}

type RewardType string

const (
	RewardDiscount         RewardType = "discount"
	RewardFreeShipping     RewardType = "free_shipping"
	RewardExclusiveProduct RewardType = "exclusive_product"
	RewardEarlyAccess      RewardType = "early_access"
)

func (rt RewardType) Valid() bool {
	switch rt {
	case RewardDiscount, RewardFreeShipping, RewardExclusiveProduct, RewardEarlyAccess:
		return true
	}
	return false
}

// RewardTemplate is the unit of configuration for the loyalty program.
// One template exists per (merchant, tier, reward type); lifecycle state is
// derived from it on every read, never stored.
type RewardTemplate struct {
	ID         string
	MerchantID string
	Tier       Tier
	RewardType RewardType
	Value      RewardValue
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type RewardTemplateRepository interface {
	Upsert(template *RewardTemplate) error
	GetByID(merchantID, templateID string) (*RewardTemplate, error)
	ListByMerchant(merchantID string) ([]*RewardTemplate, error)
	ListActiveByMerchant(merchantID string) ([]*RewardTemplate, error)
	ListMerchantIDs() ([]string, error)
	SetActive(templateID string, active bool) error
	IncrementUsage(templateID string) error
	MergeValueFields(templateID string, fields map[string]interface{}) error
}
