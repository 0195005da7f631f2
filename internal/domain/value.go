package domain

import "time"

type DiscountScope string

const (
	ScopeOrder   DiscountScope = "order"
	ScopeProduct DiscountScope = "product"
)

type DiscountConfig struct {
	Scope             DiscountScope `json:"discount_scope"`
	Percentage        int           `json:"percentage"`
	CodePrefix        string        `json:"code_prefix"`
	TargetProducts    []string      `json:"target_products,omitempty"`
	TargetCollections []string      `json:"target_collections,omitempty"`
}

type ShippingZone string

const (
	ZoneAll           ShippingZone = "all"
	ZoneLocal         ShippingZone = "local"
	ZoneInternational ShippingZone = "international"
)

type FreeShippingConfig struct {
	EligibleZones      ShippingZone `json:"eligible_zones"`
	MinimumOrderAmount float64      `json:"minimum_order_amount"`
	RequiresCode       bool         `json:"requires_code,omitempty"`
	CodePrefix         string       `json:"code_prefix,omitempty"`
}

type AccessType string

const (
	AccessOffered   AccessType = "offered"
	AccessExclusive AccessType = "exclusive"
)

type AccessLogic string

const (
	AccessHidden    AccessLogic = "hidden_from_non_members"
	AccessTagFilter AccessLogic = "public_with_tag_filter"
)

type ExclusiveProductConfig struct {
	AccessType  AccessType  `json:"access_type"`
	AccessLogic AccessLogic `json:"access_logic"`
	ProductIDs  []string    `json:"product_ids,omitempty"`
}

type EarlyAccessConfig struct {
	EventType       string    `json:"event_type"`
	AccessStartDate time.Time `json:"access_start_date"`
	AccessEndDate   time.Time `json:"access_end_date"`
}

// RewardValue is the configuration bag attached to a template. Exactly one
// variant pointer is set, matching the template's RewardType; the remaining
// fields are shared runtime counters and sync bookkeeping written back by the
// scheduler and the commerce sync adapter. JSON tags double as the field names
// used for field-level merges into the jsonb column.
type RewardValue struct {
	Discount         *DiscountConfig         `json:"discount,omitempty"`
	FreeShipping     *FreeShippingConfig     `json:"free_shipping,omitempty"`
	ExclusiveProduct *ExclusiveProductConfig `json:"exclusive_product,omitempty"`
	EarlyAccess      *EarlyAccessConfig      `json:"early_access,omitempty"`

	// Merchant-facing display text used in notifications.
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Shared runtime fields. Absent DurationDays means a permanent reward,
	// absent MaxUses means unbounded usage.
	DurationDays        *int                  `json:"duration_days,omitempty"`
	MaxUses             *int                  `json:"max_uses,omitempty"`
	ActivationDelayDays int                   `json:"activation_delay_days"`
	UsageCount          int                   `json:"usage_count"`
	Channels            []NotificationChannel `json:"notification_channels,omitempty"`
	ActivationNotified  bool                  `json:"activation_notified,omitempty"`

	// Sync bookkeeping, owned by the commerce sync adapter.
	ExternalResourceID string     `json:"external_resource_id,omitempty"`
	DiscountCode       string     `json:"discount_code,omitempty"`
	CustomerTag        string     `json:"customer_tag,omitempty"`
	LastSync           *time.Time `json:"last_sync,omitempty"`
	SyncStatus         SyncStatus `json:"sync_status,omitempty"`
	SyncError          string     `json:"sync_error,omitempty"`
}

// CarryRuntime copies the engine-owned runtime counters and sync bookkeeping
// from the previously stored bag. A merchant re-submitting a template replaces
// configuration only; these fields belong to the engine and survive the write.
func (v *RewardValue) CarryRuntime(prev *RewardValue) {
	v.UsageCount = prev.UsageCount
	v.ActivationNotified = prev.ActivationNotified
	v.ExternalResourceID = prev.ExternalResourceID
	v.DiscountCode = prev.DiscountCode
	v.CustomerTag = prev.CustomerTag
	v.LastSync = prev.LastSync
	v.SyncStatus = prev.SyncStatus
	v.SyncError = prev.SyncError
}

// Variant returns the config matching the reward type, nil when the bag does
// not carry it.
func (v *RewardValue) Variant(rt RewardType) interface{} {
	switch rt {
	case RewardDiscount:
		if v.Discount == nil {
			return nil
		}
		return v.Discount
	case RewardFreeShipping:
		if v.FreeShipping == nil {
			return nil
		}
		return v.FreeShipping
	case RewardExclusiveProduct:
		if v.ExclusiveProduct == nil {
			return nil
		}
		return v.ExclusiveProduct
	case RewardEarlyAccess:
		if v.EarlyAccess == nil {
			return nil
		}
		return v.EarlyAccess
	}
	return nil
}
