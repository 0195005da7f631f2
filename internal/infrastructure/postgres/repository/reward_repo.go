package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/postgres/mappers"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/postgres/models"
)

type DefaultRewardTemplateRepository struct {
	DB *gorm.DB
}

func NewDefaultRewardTemplateRepository(db *gorm.DB) *DefaultRewardTemplateRepository {
	return &DefaultRewardTemplateRepository{DB: db}
}

// Upsert writes the template keyed on (merchant_id, tier, reward_type). On
// conflict the configuration and switch are replaced while id and created_at
// stay with the original row. Runtime counters and sync bookkeeping inside
// the value bag are engine-owned and carried forward from the stored row, so
// a merchant edit never resets usage_count or orphans the external resource.
// The template is updated in place with the persisted identity.
func (r *DefaultRewardTemplateRepository) Upsert(t *domain.RewardTemplate) error {
	var existing models.RewardTemplateModel
	err := r.DB.First(&existing,
		"merchant_id = ? AND tier = ? AND reward_type = ?",
		t.MerchantID, string(t.Tier), string(t.RewardType),
	).Error
	switch {
	case err == nil:
		prev, mErr := mappers.ToDomainRewardTemplate(&existing)
		if mErr != nil {
			return mErr
		}
		t.Value.CarryRuntime(&prev.Value)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return err
	}

	model, err := mappers.ToGORMRewardTemplate(t)
	if err != nil {
		return err
	}

	err = r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "merchant_id"}, {Name: "tier"}, {Name: "reward_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      model.Value,
			"is_active":  model.IsActive,
			"updated_at": time.Now(),
		}),
	}).Create(model).Error
	if err != nil {
		return err
	}

	// Re-read to pick up the surviving id and timestamps after a conflict.
	var persisted models.RewardTemplateModel
	err = r.DB.First(&persisted,
		"merchant_id = ? AND tier = ? AND reward_type = ?",
		model.MerchantID, model.Tier, model.RewardType,
	).Error
	if err != nil {
		return err
	}

	stored, err := mappers.ToDomainRewardTemplate(&persisted)
	if err != nil {
		return err
	}
	*t = *stored
	return nil
}

func (r *DefaultRewardTemplateRepository) GetByID(merchantID, templateID string) (*domain.RewardTemplate, error) {
	var model models.RewardTemplateModel
	err := r.DB.First(&model, "id = ? AND merchant_id = ?", templateID, merchantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, err
	}
	return mappers.ToDomainRewardTemplate(&model)
}

func (r *DefaultRewardTemplateRepository) ListByMerchant(merchantID string) ([]*domain.RewardTemplate, error) {
	var rows []*models.RewardTemplateModel
	if err := r.DB.Where("merchant_id = ?", merchantID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.toDomainList(rows)
}

func (r *DefaultRewardTemplateRepository) ListActiveByMerchant(merchantID string) ([]*domain.RewardTemplate, error) {
	var rows []*models.RewardTemplateModel
	if err := r.DB.Where("merchant_id = ? AND is_active = ?", merchantID, true).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.toDomainList(rows)
}

func (r *DefaultRewardTemplateRepository) ListMerchantIDs() ([]string, error) {
	var ids []string
	err := r.DB.Model(&models.RewardTemplateModel{}).
		Distinct("merchant_id").
		Order("merchant_id").
		Pluck("merchant_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *DefaultRewardTemplateRepository) SetActive(templateID string, active bool) error {
	res := r.DB.Model(&models.RewardTemplateModel{}).
		Where("id = ?", templateID).
		Updates(map[string]interface{}{"is_active": active, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}

// IncrementUsage bumps usage_count inside the jsonb bag atomically in SQL, so
// concurrent redemptions never lose counts.
func (r *DefaultRewardTemplateRepository) IncrementUsage(templateID string) error {
	res := r.DB.Model(&models.RewardTemplateModel{}).
		Where("id = ?", templateID).
		Updates(map[string]interface{}{
			"value": gorm.Expr(
				`jsonb_set(value::jsonb, '{usage_count}', (COALESCE((value::jsonb->>'usage_count')::int, 0) + 1)::text::jsonb)`,
			),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTemplateNotFound
	}
	return nil
}

// MergeValueFields merges the given keys into the jsonb bag without touching
// the rest of the document, so a merchant edit and a sync write-back cannot
// clobber each other. The write is guarded by the row's updated_at and
// retried once on contention before surfacing a conflict.
func (r *DefaultRewardTemplateRepository) MergeValueFields(templateID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := r.tryMergeValueFields(templateID, fields)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("merge value fields of template %s: %w", templateID, domain.ErrConflict)
}

func (r *DefaultRewardTemplateRepository) tryMergeValueFields(templateID string, fields map[string]interface{}) (bool, error) {
	var row models.RewardTemplateModel
	err := r.DB.Select("id", "value", "updated_at").First(&row, "id = ?", templateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, domain.ErrTemplateNotFound
		}
		return false, err
	}

	bag := map[string]interface{}{}
	if row.Value != "" {
		if err := json.Unmarshal([]byte(row.Value), &bag); err != nil {
			return false, fmt.Errorf("unmarshal value bag of template %s: %w", templateID, err)
		}
	}
	for k, v := range fields {
		bag[k] = v
	}
	merged, err := json.Marshal(bag)
	if err != nil {
		return false, err
	}

	res := r.DB.Model(&models.RewardTemplateModel{}).
		Where("id = ? AND updated_at = ?", templateID, row.UpdatedAt).
		Updates(map[string]interface{}{"value": string(merged), "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *DefaultRewardTemplateRepository) toDomainList(rows []*models.RewardTemplateModel) ([]*domain.RewardTemplate, error) {
	templates := make([]*domain.RewardTemplate, 0, len(rows))
	for _, row := range rows {
		t, err := mappers.ToDomainRewardTemplate(row)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}
