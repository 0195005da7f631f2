package commercesync

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jaevor/go-nanoid"
	"golang.org/x/sync/errgroup"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/metrics"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/lifecycle"
)

const codeSuffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type SyncUsecase interface {
	SyncTemplate(ctx context.Context, merchantID, templateID string) (*domain.ExternalResourceRef, error)
	SyncAllForMerchant(ctx context.Context, merchantID string) (*SummaryReport, error)
	ResourceStatus(ctx context.Context, merchantID, templateID string) (domain.ResourceStatus, error)
}

type TemplateSyncResult struct {
	TemplateID string                      `json:"template_id"`
	RewardType domain.RewardType           `json:"reward_type"`
	Resource   *domain.ExternalResourceRef `json:"resource,omitempty"`
	Skipped    bool                        `json:"skipped,omitempty"`
	Error      string                      `json:"error,omitempty"`
}

type SummaryReport struct {
	MerchantID string               `json:"merchant_id"`
	Total      int                  `json:"total"`
	Synced     int                  `json:"synced"`
	Skipped    int                  `json:"skipped"`
	Failed     int                  `json:"failed"`
	Results    []TemplateSyncResult `json:"results"`
}

type DefaultSyncUsecase struct {
	Repo     domain.RewardTemplateRepository
	Commerce domain.CommerceClientProvider
	Metrics  *metrics.RewardMetrics

	callTimeout time.Duration
	workers     int
	genSuffix   func() string
	now         func() time.Time
}

func NewDefaultSyncUsecase(
	repo domain.RewardTemplateRepository,
	commerce domain.CommerceClientProvider,
	m *metrics.RewardMetrics,
	callTimeout time.Duration,
	workers int,
) *DefaultSyncUsecase {
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}
	if workers <= 0 {
		workers = 4
	}
	gen, err := nanoid.CustomASCII(codeSuffixAlphabet, 6)
	if err != nil {
		// Static alphabet and length; only reachable on a programming error.
		log.Fatalf("failed to init code suffix generator: %v", err)
	}
	return &DefaultSyncUsecase{
		Repo:        repo,
		Commerce:    commerce,
		Metrics:     m,
		callTimeout: callTimeout,
		workers:     workers,
		genSuffix:   gen,
		now:         time.Now,
	}
}

// SyncTemplate reconciles one template with the commerce platform. It is
// idempotent: a template that already carries an external resource id whose
// resource is still active is a no-op returning the same ref. On failure the
// previously synced resource reference is never touched.
func (uc *DefaultSyncUsecase) SyncTemplate(ctx context.Context, merchantID, templateID string) (*domain.ExternalResourceRef, error) {
	template, err := uc.Repo.GetByID(merchantID, templateID)
	if err != nil {
		return nil, err
	}

	client, err := uc.Commerce.ClientFor(ctx, merchantID)
	if err != nil {
		return nil, &domain.TransientError{Op: "commerce client", Err: err}
	}

	if existing := existingRef(template); existing != nil {
		status, err := uc.resourceStatus(ctx, client, existing)
		if err == nil && status == domain.ResourceActive {
			return existing, nil
		}
		// Resource gone or inert: fall through and recreate.
	}

	started := uc.now()
	ref, err := uc.createResource(ctx, client, template)
	if uc.Metrics != nil {
		uc.Metrics.CommerceSyncDuration.WithLabelValues(string(template.RewardType)).Observe(time.Since(started).Seconds())
	}
	if err != nil {
		uc.recordResult(template, "error")
		// Record the failure but leave the previous resource reference intact.
		if mergeErr := uc.Repo.MergeValueFields(template.ID, map[string]interface{}{
			"sync_status": string(domain.SyncErrored),
			"sync_error":  err.Error(),
		}); mergeErr != nil {
			log.Printf("failed to record sync error for template %s: %v\n", template.ID, mergeErr)
		}
		return nil, &domain.TransientError{Op: "commerce sync", Err: err}
	}

	fields := map[string]interface{}{
		"external_resource_id": ref.ID,
		"last_sync":            uc.now().UTC().Format(time.RFC3339),
		"sync_status":          string(domain.SyncSynced),
		"sync_error":           "",
	}
	if ref.Code != "" {
		fields["discount_code"] = ref.Code
	}
	if ref.Tag != "" {
		fields["customer_tag"] = ref.Tag
	}
	if err := uc.Repo.MergeValueFields(template.ID, fields); err != nil {
		return nil, err
	}

	uc.recordResult(template, "ok")
	return ref, nil
}

// SyncAllForMerchant syncs every template of the merchant with bounded
// concurrency, continuing past individual failures.
func (uc *DefaultSyncUsecase) SyncAllForMerchant(ctx context.Context, merchantID string) (*SummaryReport, error) {
	templates, err := uc.Repo.ListByMerchant(merchantID)
	if err != nil {
		return nil, err
	}

	results := make([]TemplateSyncResult, len(templates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, t := range templates {
		i, t := i, t
		g.Go(func() error {
			res := TemplateSyncResult{TemplateID: t.ID, RewardType: t.RewardType}
			if !t.IsActive {
				res.Skipped = true
			} else {
				ref, err := uc.SyncTemplate(gctx, merchantID, t.ID)
				if err != nil {
					res.Error = err.Error()
				} else {
					res.Resource = ref
				}
			}
			results[i] = res
			return nil
		})
	}
	// Workers never return errors; failures live in the per-template results.
	_ = g.Wait()

	report := &SummaryReport{MerchantID: merchantID, Total: len(templates), Results: results}
	for _, r := range results {
		switch {
		case r.Skipped:
			report.Skipped++
		case r.Error != "":
			report.Failed++
		default:
			report.Synced++
		}
	}
	return report, nil
}

// ResourceStatus re-queries the external resource backing a template.
func (uc *DefaultSyncUsecase) ResourceStatus(ctx context.Context, merchantID, templateID string) (domain.ResourceStatus, error) {
	template, err := uc.Repo.GetByID(merchantID, templateID)
	if err != nil {
		return "", err
	}
	ref := existingRef(template)
	if ref == nil {
		return domain.ResourceDeleted, nil
	}
	client, err := uc.Commerce.ClientFor(ctx, merchantID)
	if err != nil {
		return "", &domain.TransientError{Op: "commerce client", Err: err}
	}
	return uc.resourceStatus(ctx, client, ref)
}

func (uc *DefaultSyncUsecase) resourceStatus(ctx context.Context, client domain.CommerceClient, ref *domain.ExternalResourceRef) (domain.ResourceStatus, error) {
	callCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
	defer cancel()
	return client.ResourceStatus(callCtx, ref)
}

func (uc *DefaultSyncUsecase) createResource(ctx context.Context, client domain.CommerceClient, t *domain.RewardTemplate) (*domain.ExternalResourceRef, error) {
	state, err := lifecycle.Calculate(t, uc.now())
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
	defer cancel()

	switch t.RewardType {
	case domain.RewardDiscount:
		cfg := t.Value.Discount
		if cfg == nil {
			return nil, fmt.Errorf("template %s has no discount config", t.ID)
		}
		return client.CreateDiscountCode(callCtx, &domain.DiscountCodeRequest{
			Code:              uc.buildCode(cfg.CodePrefix, t.Tier),
			Percentage:        cfg.Percentage,
			StartsAt:          state.ActivationDate,
			EndsAt:            state.ExpirationDate,
			TargetProducts:    cfg.TargetProducts,
			TargetCollections: cfg.TargetCollections,
		})

	case domain.RewardFreeShipping:
		cfg := t.Value.FreeShipping
		if cfg == nil {
			return nil, fmt.Errorf("template %s has no free_shipping config", t.ID)
		}
		if !cfg.RequiresCode {
			return client.EnsureCustomerTag(callCtx, customerTag(t))
		}
		prefix := cfg.CodePrefix
		if prefix == "" {
			prefix = "FREESHIP"
		}
		return client.CreateShippingCode(callCtx, &domain.ShippingCodeRequest{
			Code:               uc.buildCode(prefix, t.Tier),
			MinimumOrderAmount: cfg.MinimumOrderAmount,
			EligibleZones:      cfg.EligibleZones,
			StartsAt:           state.ActivationDate,
			EndsAt:             state.ExpirationDate,
		})

	case domain.RewardExclusiveProduct, domain.RewardEarlyAccess:
		// Access grants resolve to a customer tag, not a checkout code.
		return client.EnsureCustomerTag(callCtx, customerTag(t))
	}

	return nil, fmt.Errorf("template %s has unknown reward type %q", t.ID, t.RewardType)
}

// buildCode formats a customer-facing code as {prefix}_{TIER}_{random6}.
func (uc *DefaultSyncUsecase) buildCode(prefix string, tier domain.Tier) string {
	return fmt.Sprintf("%s_%s_%s", prefix, strings.ToUpper(string(tier)), uc.genSuffix())
}

func customerTag(t *domain.RewardTemplate) string {
	return fmt.Sprintf("loyalty-%s-%s", t.Tier, strings.ReplaceAll(string(t.RewardType), "_", "-"))
}

func existingRef(t *domain.RewardTemplate) *domain.ExternalResourceRef {
	v := &t.Value
	if v.ExternalResourceID == "" {
		return nil
	}
	ref := &domain.ExternalResourceRef{ID: v.ExternalResourceID, Code: v.DiscountCode, Tag: v.CustomerTag}
	switch {
	case v.CustomerTag != "":
		ref.Kind = domain.ResourceCustomerTag
	case t.RewardType == domain.RewardFreeShipping:
		ref.Kind = domain.ResourceShippingCode
	default:
		ref.Kind = domain.ResourceDiscountCode
	}
	return ref
}

func (uc *DefaultSyncUsecase) recordResult(t *domain.RewardTemplate, result string) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.CommerceSyncsTotal.WithLabelValues(t.MerchantID, string(t.RewardType), result).Inc()
}
