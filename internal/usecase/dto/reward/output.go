package rewarddto

import (
	"time"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
)

type TemplateOutput struct {
	ID         string             `json:"id"`
	MerchantID string             `json:"merchant_id"`
	Tier       domain.Tier        `json:"tier"`
	RewardType domain.RewardType  `json:"reward_type"`
	Value      domain.RewardValue `json:"value"`
	IsActive   bool               `json:"is_active"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`

	State *StateOutput `json:"state,omitempty"`
}

type StateOutput struct {
	ActivationDate   time.Time               `json:"activation_date"`
	ExpirationDate   *time.Time              `json:"expiration_date,omitempty"`
	IsExpired        bool                    `json:"is_expired"`
	IsActive         bool                    `json:"is_active"`
	RemainingUses    *int                    `json:"remaining_uses,omitempty"`
	CanBeUsed        bool                    `json:"can_be_used"`
	ActivationStatus domain.ActivationStatus `json:"activation_status"`
	SyncStatus       domain.SyncStatus       `json:"sync_status"`
	DaysUntilExpiry  *int                    `json:"days_until_expiry,omitempty"`
}

func ToTemplateOutput(t *domain.RewardTemplate, state *domain.LifecycleState) *TemplateOutput {
	out := &TemplateOutput{
		ID:         t.ID,
		MerchantID: t.MerchantID,
		Tier:       t.Tier,
		RewardType: t.RewardType,
		Value:      t.Value,
		IsActive:   t.IsActive,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	if state != nil {
		out.State = ToStateOutput(state)
	}
	return out
}

func ToStateOutput(s *domain.LifecycleState) *StateOutput {
	return &StateOutput{
		ActivationDate:   s.ActivationDate,
		ExpirationDate:   s.ExpirationDate,
		IsExpired:        s.IsExpired,
		IsActive:         s.IsActive,
		RemainingUses:    s.RemainingUses,
		CanBeUsed:        s.CanBeUsed,
		ActivationStatus: s.ActivationStatus,
		SyncStatus:       s.SyncStatus,
		DaysUntilExpiry:  s.DaysUntilExpiry,
	}
}
