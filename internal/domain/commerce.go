package domain

import (
	"context"
	"time"
)

type ExternalResourceKind string

const (
	ResourceDiscountCode ExternalResourceKind = "discount_code"
	ResourceShippingCode ExternalResourceKind = "shipping_code"
	ResourceCustomerTag  ExternalResourceKind = "customer_tag"
)

// ExternalResourceRef identifies the concrete resource a template resolved to
// on the commerce platform.
type ExternalResourceRef struct {
	Kind ExternalResourceKind
	ID   string
	Code string
	Tag  string
}

type ResourceStatus string

const (
	ResourceActive   ResourceStatus = "active"
	ResourceExpired  ResourceStatus = "expired"
	ResourceDisabled ResourceStatus = "disabled"
	ResourceDeleted  ResourceStatus = "deleted"
)

type DiscountCodeRequest struct {
	Code              string
	Percentage        int
	StartsAt          time.Time
	EndsAt            *time.Time
	TargetProducts    []string
	TargetCollections []string
}

type ShippingCodeRequest struct {
	Code               string
	MinimumOrderAmount float64
	EligibleZones      ShippingZone
	StartsAt           time.Time
	EndsAt             *time.Time
}

// CommerceClient is the engine's contract with the external commerce platform.
type CommerceClient interface {
	CreateDiscountCode(ctx context.Context, req *DiscountCodeRequest) (*ExternalResourceRef, error)
	CreateShippingCode(ctx context.Context, req *ShippingCodeRequest) (*ExternalResourceRef, error)
	EnsureCustomerTag(ctx context.Context, tag string) (*ExternalResourceRef, error)
	ResourceStatus(ctx context.Context, ref *ExternalResourceRef) (ResourceStatus, error)
}

// CommerceClientProvider hands out a client authenticated for one merchant's
// shop. Injected per call rather than held as ambient state.
type CommerceClientProvider interface {
	ClientFor(ctx context.Context, merchantID string) (CommerceClient, error)
}
