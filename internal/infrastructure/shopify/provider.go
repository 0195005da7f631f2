package shopify

import (
	"context"
	"fmt"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/config"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
)

// StaticClientProvider serves a single-shop deployment from config. A
// multi-tenant host replaces this with a provider that looks up each
// merchant's shop credentials.
type StaticClientProvider struct {
	cfg config.Shopify
}

func NewStaticClientProvider(cfg config.Shopify) *StaticClientProvider {
	return &StaticClientProvider{cfg: cfg}
}

func (p *StaticClientProvider) ClientFor(ctx context.Context, merchantID string) (domain.CommerceClient, error) {
	if p.cfg.ShopDomain == "" || p.cfg.AccessToken == "" {
		return nil, fmt.Errorf("no shopify credentials configured for merchant %s", merchantID)
	}
	return NewClient(p.cfg.ShopDomain, p.cfg.APIVersion, p.cfg.AccessToken, p.cfg.Timeout), nil
}
