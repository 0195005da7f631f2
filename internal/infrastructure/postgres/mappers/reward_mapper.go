package mappers

import (
	"encoding/json"
	"fmt"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/postgres/models"
)

func ToDomainRewardTemplate(model *models.RewardTemplateModel) (*domain.RewardTemplate, error) {
	var value domain.RewardValue
	if model.Value != "" {
		if err := json.Unmarshal([]byte(model.Value), &value); err != nil {
			return nil, fmt.Errorf("unmarshal value bag of template %s: %w", model.ID, err)
		}
	}
	return &domain.RewardTemplate{
		ID:         model.ID,
		MerchantID: model.MerchantID,
		Tier:       domain.Tier(model.Tier),
		RewardType: domain.RewardType(model.RewardType),
		Value:      value,
		IsActive:   model.IsActive,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}, nil
}

func ToGORMRewardTemplate(t *domain.RewardTemplate) (*models.RewardTemplateModel, error) {
	value, err := json.Marshal(&t.Value)
	if err != nil {
		return nil, fmt.Errorf("marshal value bag of template %s: %w", t.ID, err)
	}
	return &models.RewardTemplateModel{
		ID:         t.ID,
		MerchantID: t.MerchantID,
		Tier:       string(t.Tier),
		RewardType: string(t.RewardType),
		Value:      string(value),
		IsActive:   t.IsActive,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}, nil
}
