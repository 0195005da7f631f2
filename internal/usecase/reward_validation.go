package usecase

import (
	"fmt"
	"regexp"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
)

var codePrefixPattern = regexp.MustCompile(`^[A-Z0-9_]+$`)

// ValidateValue checks a configuration bag against the schema of its reward
// type. It returns a ValidationError carrying every field error at once;
// nothing is persisted when validation fails.
func ValidateValue(rewardType domain.RewardType, v *domain.RewardValue) error {
	var fields []domain.FieldError

	add := func(field, format string, args ...interface{}) {
		fields = append(fields, domain.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch rewardType {
	case domain.RewardDiscount:
		cfg := v.Discount
		if cfg == nil {
			add("discount", "configuration is required for reward type %q", rewardType)
			break
		}
		if cfg.Scope != domain.ScopeOrder && cfg.Scope != domain.ScopeProduct {
			add("discount_scope", "must be %q or %q", domain.ScopeOrder, domain.ScopeProduct)
		}
		if cfg.Percentage < 1 || cfg.Percentage > 100 {
			add("percentage", "must be between 1 and 100")
		}
		if cfg.CodePrefix == "" || !codePrefixPattern.MatchString(cfg.CodePrefix) {
			add("code_prefix", "must match [A-Z0-9_]+")
		}
		if cfg.Scope == domain.ScopeProduct && len(cfg.TargetProducts) == 0 && len(cfg.TargetCollections) == 0 {
			add("target_products", "product-scoped discounts need target_products or target_collections")
		}

	case domain.RewardFreeShipping:
		cfg := v.FreeShipping
		if cfg == nil {
			add("free_shipping", "configuration is required for reward type %q", rewardType)
			break
		}
		switch cfg.EligibleZones {
		case domain.ZoneAll, domain.ZoneLocal, domain.ZoneInternational:
		default:
			add("eligible_zones", "must be one of all, local, international")
		}
		if cfg.MinimumOrderAmount < 0 {
			add("minimum_order_amount", "must be >= 0")
		}
		if cfg.RequiresCode && cfg.CodePrefix != "" && !codePrefixPattern.MatchString(cfg.CodePrefix) {
			add("code_prefix", "must match [A-Z0-9_]+")
		}

	case domain.RewardExclusiveProduct:
		cfg := v.ExclusiveProduct
		if cfg == nil {
			add("exclusive_product", "configuration is required for reward type %q", rewardType)
			break
		}
		if cfg.AccessType != domain.AccessOffered && cfg.AccessType != domain.AccessExclusive {
			add("access_type", "must be %q or %q", domain.AccessOffered, domain.AccessExclusive)
		}
		if cfg.AccessLogic != domain.AccessHidden && cfg.AccessLogic != domain.AccessTagFilter {
			add("access_logic", "must be %q or %q", domain.AccessHidden, domain.AccessTagFilter)
		}

	case domain.RewardEarlyAccess:
		cfg := v.EarlyAccess
		if cfg == nil {
			add("early_access", "configuration is required for reward type %q", rewardType)
			break
		}
		if cfg.EventType == "" {
			add("event_type", "is required")
		}
		if cfg.AccessStartDate.IsZero() || cfg.AccessEndDate.IsZero() {
			add("access_start_date", "start and end dates are required")
		} else if !cfg.AccessStartDate.Before(cfg.AccessEndDate) {
			add("access_start_date", "must be before access_end_date")
		}

	default:
		add("reward_type", "unknown reward type %q", rewardType)
	}

	// Shared fields, identical for every variant.
	if v.DurationDays != nil && *v.DurationDays <= 0 {
		fields = append(fields, domain.FieldError{Field: "duration_days", Message: "must be a positive integer when set"})
	}
	if v.MaxUses != nil && *v.MaxUses <= 0 {
		fields = append(fields, domain.FieldError{Field: "max_uses", Message: "must be a positive integer when set"})
	}
	if v.ActivationDelayDays < 0 || v.ActivationDelayDays > 30 {
		fields = append(fields, domain.FieldError{Field: "activation_delay_days", Message: "must be between 0 and 30"})
	}
	if v.UsageCount < 0 {
		fields = append(fields, domain.FieldError{Field: "usage_count", Message: "must be >= 0"})
	}
	for _, ch := range v.Channels {
		switch ch {
		case domain.ChannelEmail, domain.ChannelSMS, domain.ChannelInApp:
		default:
			fields = append(fields, domain.FieldError{Field: "notification_channels", Message: fmt.Sprintf("unknown channel %q", ch)})
		}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
