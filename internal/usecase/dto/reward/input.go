package rewarddto

import "github.com/Bernadoadk/qr-flow-reward-service/internal/domain"

type UpsertTemplateInput struct {
	MerchantID string             `json:"merchant_id"`
	Tier       domain.Tier        `json:"tier"`
	RewardType domain.RewardType  `json:"reward_type"`
	Value      domain.RewardValue `json:"value"`
	IsActive   bool               `json:"is_active"`
}

type SetActiveInput struct {
	MerchantID string `json:"merchant_id"`
	TemplateID string `json:"template_id"`
	Active     bool   `json:"active"`
}
