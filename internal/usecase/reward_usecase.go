package usecase

import (
	"time"

	"github.com/google/uuid"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/metrics"
	rewarddto "github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/dto/reward"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/lifecycle"
)

type RewardUsecase interface {
	UpsertTemplate(input *rewarddto.UpsertTemplateInput) (*rewarddto.TemplateOutput, error)
	GetTemplate(merchantID, templateID string) (*rewarddto.TemplateOutput, error)
	ListTemplates(merchantID string) ([]*rewarddto.TemplateOutput, error)
	Evaluate(merchantID, templateID string) (*domain.LifecycleState, error)
	RecordUsage(merchantID, templateID string) error
	SetActive(input *rewarddto.SetActiveInput) error
}

type DefaultRewardUsecase struct {
	Repo    domain.RewardTemplateRepository
	Metrics *metrics.RewardMetrics

	now func() time.Time
}

func NewDefaultRewardUsecase(repo domain.RewardTemplateRepository, m *metrics.RewardMetrics) *DefaultRewardUsecase {
	return &DefaultRewardUsecase{
		Repo:    repo,
		Metrics: m,
		now:     time.Now,
	}
}

// UpsertTemplate validates the configuration bag and writes the template
// keyed on (merchant, tier, reward type). Validation failures reject the
// whole write.
func (uc *DefaultRewardUsecase) UpsertTemplate(input *rewarddto.UpsertTemplateInput) (*rewarddto.TemplateOutput, error) {
	if err := ValidateValue(input.RewardType, &input.Value); err != nil {
		return nil, err
	}
	if !input.Tier.Valid() {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{
			{Field: "tier", Message: "must be one of bronze, silver, gold, platinum"},
		}}
	}

	template := &domain.RewardTemplate{
		ID:         uuid.NewString(),
		MerchantID: input.MerchantID,
		Tier:       input.Tier,
		RewardType: input.RewardType,
		Value:      input.Value,
		IsActive:   input.IsActive,
	}
	if err := uc.Repo.Upsert(template); err != nil {
		return nil, err
	}

	state, err := lifecycle.Calculate(template, uc.now())
	if err != nil {
		return nil, err
	}
	return rewarddto.ToTemplateOutput(template, state), nil
}

func (uc *DefaultRewardUsecase) GetTemplate(merchantID, templateID string) (*rewarddto.TemplateOutput, error) {
	template, err := uc.Repo.GetByID(merchantID, templateID)
	if err != nil {
		return nil, err
	}
	state, err := lifecycle.Calculate(template, uc.now())
	if err != nil {
		return nil, err
	}
	return rewarddto.ToTemplateOutput(template, state), nil
}

func (uc *DefaultRewardUsecase) ListTemplates(merchantID string) ([]*rewarddto.TemplateOutput, error) {
	templates, err := uc.Repo.ListByMerchant(merchantID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	outputs := make([]*rewarddto.TemplateOutput, 0, len(templates))
	for _, t := range templates {
		state, err := lifecycle.Calculate(t, now)
		if err != nil {
			// Malformed rows are listed without derived state rather than
			// failing the whole listing.
			outputs = append(outputs, rewarddto.ToTemplateOutput(t, nil))
			continue
		}
		outputs = append(outputs, rewarddto.ToTemplateOutput(t, state))
	}
	return outputs, nil
}

func (uc *DefaultRewardUsecase) Evaluate(merchantID, templateID string) (*domain.LifecycleState, error) {
	template, err := uc.Repo.GetByID(merchantID, templateID)
	if err != nil {
		return nil, err
	}
	return lifecycle.Calculate(template, uc.now())
}

// RecordUsage increments the usage counter after re-deriving usability at
// call time. The increment is atomic in the store.
func (uc *DefaultRewardUsecase) RecordUsage(merchantID, templateID string) error {
	template, err := uc.Repo.GetByID(merchantID, templateID)
	if err != nil {
		return err
	}
	state, err := lifecycle.Calculate(template, uc.now())
	if err != nil {
		return err
	}
	if !state.CanBeUsed {
		return domain.ErrRewardNotUsable
	}
	if err := uc.Repo.IncrementUsage(template.ID); err != nil {
		return err
	}
	if uc.Metrics != nil {
		uc.Metrics.UsageRecordedTotal.WithLabelValues(template.MerchantID, string(template.Tier), string(template.RewardType)).Inc()
	}
	return nil
}

func (uc *DefaultRewardUsecase) SetActive(input *rewarddto.SetActiveInput) error {
	template, err := uc.Repo.GetByID(input.MerchantID, input.TemplateID)
	if err != nil {
		return err
	}
	return uc.Repo.SetActive(template.ID, input.Active)
}
