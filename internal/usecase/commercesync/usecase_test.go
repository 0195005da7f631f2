package commercesync

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
)

type fakeRepo struct {
	mu        sync.Mutex
	templates map[string]*domain.RewardTemplate
	merges    map[string][]map[string]interface{}
}

func newFakeRepo(templates ...*domain.RewardTemplate) *fakeRepo {
	m := make(map[string]*domain.RewardTemplate, len(templates))
	for _, t := range templates {
		m[t.ID] = t
	}
	return &fakeRepo{templates: m, merges: make(map[string][]map[string]interface{})}
}

func (r *fakeRepo) Upsert(t *domain.RewardTemplate) error { return nil }

func (r *fakeRepo) GetByID(merchantID, templateID string) (*domain.RewardTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[templateID]
	if !ok || t.MerchantID != merchantID {
		return nil, domain.ErrTemplateNotFound
	}
	return t, nil
}

func (r *fakeRepo) ListByMerchant(merchantID string) ([]*domain.RewardTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.RewardTemplate
	for _, t := range r.templates {
		if t.MerchantID == merchantID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListActiveByMerchant(merchantID string) ([]*domain.RewardTemplate, error) {
	return r.ListByMerchant(merchantID)
}

func (r *fakeRepo) ListMerchantIDs() ([]string, error) { return nil, nil }

func (r *fakeRepo) SetActive(templateID string, active bool) error { return nil }

func (r *fakeRepo) IncrementUsage(templateID string) error { return nil }

func (r *fakeRepo) MergeValueFields(templateID string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merges[templateID] = append(r.merges[templateID], fields)
	// Reflect sync bookkeeping onto the in-memory template the way the jsonb
	// merge would.
	t := r.templates[templateID]
	if id, ok := fields["external_resource_id"].(string); ok {
		t.Value.ExternalResourceID = id
	}
	if code, ok := fields["discount_code"].(string); ok {
		t.Value.DiscountCode = code
	}
	if tag, ok := fields["customer_tag"].(string); ok {
		t.Value.CustomerTag = tag
	}
	if status, ok := fields["sync_status"].(string); ok {
		t.Value.SyncStatus = domain.SyncStatus(status)
	}
	return nil
}

type fakeCommerceClient struct {
	mu sync.Mutex

	discountCalls []*domain.DiscountCodeRequest
	shippingCalls []*domain.ShippingCodeRequest
	tagCalls      []string

	failCreate bool
	status     domain.ResourceStatus
	nextID     int
}

func (c *fakeCommerceClient) CreateDiscountCode(ctx context.Context, req *domain.DiscountCodeRequest) (*domain.ExternalResourceRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCreate {
		return nil, errors.New("rate limited")
	}
	c.discountCalls = append(c.discountCalls, req)
	c.nextID++
	return &domain.ExternalResourceRef{Kind: domain.ResourceDiscountCode, ID: "rule-" + req.Code, Code: req.Code}, nil
}

func (c *fakeCommerceClient) CreateShippingCode(ctx context.Context, req *domain.ShippingCodeRequest) (*domain.ExternalResourceRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCreate {
		return nil, errors.New("rate limited")
	}
	c.shippingCalls = append(c.shippingCalls, req)
	return &domain.ExternalResourceRef{Kind: domain.ResourceShippingCode, ID: "rule-" + req.Code, Code: req.Code}, nil
}

func (c *fakeCommerceClient) EnsureCustomerTag(ctx context.Context, tag string) (*domain.ExternalResourceRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failCreate {
		return nil, errors.New("rate limited")
	}
	c.tagCalls = append(c.tagCalls, tag)
	return &domain.ExternalResourceRef{Kind: domain.ResourceCustomerTag, ID: "tag:" + tag, Tag: tag}, nil
}

func (c *fakeCommerceClient) ResourceStatus(ctx context.Context, ref *domain.ExternalResourceRef) (domain.ResourceStatus, error) {
	if c.status == "" {
		return domain.ResourceActive, nil
	}
	return c.status, nil
}

type fakeProvider struct{ client *fakeCommerceClient }

func (p *fakeProvider) ClientFor(ctx context.Context, merchantID string) (domain.CommerceClient, error) {
	return p.client, nil
}

func discountTemplate(id string) *domain.RewardTemplate {
	return &domain.RewardTemplate{
		ID:         id,
		MerchantID: "merchant-1",
		Tier:       domain.TierGold,
		RewardType: domain.RewardDiscount,
		IsActive:   true,
		CreatedAt:  time.Now().Add(-24 * time.Hour),
		Value: domain.RewardValue{
			Discount: &domain.DiscountConfig{Scope: domain.ScopeOrder, Percentage: 10, CodePrefix: "GOLD"},
		},
	}
}

func newTestUsecase(repo *fakeRepo, client *fakeCommerceClient) *DefaultSyncUsecase {
	return NewDefaultSyncUsecase(repo, &fakeProvider{client: client}, nil, time.Second, 2)
}

func TestSyncDiscountCodeFormat(t *testing.T) {
	repo := newFakeRepo(discountTemplate("tpl-1"))
	client := &fakeCommerceClient{}
	uc := newTestUsecase(repo, client)

	ref, err := uc.SyncTemplate(context.Background(), "merchant-1", "tpl-1")
	require.NoError(t, err)

	assert.Equal(t, domain.ResourceDiscountCode, ref.Kind)
	assert.Regexp(t, regexp.MustCompile(`^GOLD_GOLD_[A-Z0-9]{6}$`), ref.Code)

	require.Len(t, repo.merges["tpl-1"], 1)
	fields := repo.merges["tpl-1"][0]
	assert.Equal(t, ref.ID, fields["external_resource_id"])
	assert.Equal(t, string(domain.SyncSynced), fields["sync_status"])
	assert.NotEmpty(t, fields["last_sync"])
}

func TestSyncIsIdempotentWhileResourceActive(t *testing.T) {
	repo := newFakeRepo(discountTemplate("tpl-1"))
	client := &fakeCommerceClient{}
	uc := newTestUsecase(repo, client)

	first, err := uc.SyncTemplate(context.Background(), "merchant-1", "tpl-1")
	require.NoError(t, err)
	second, err := uc.SyncTemplate(context.Background(), "merchant-1", "tpl-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, client.discountCalls, 1)
}

func TestSyncRecreatesWhenResourceGone(t *testing.T) {
	repo := newFakeRepo(discountTemplate("tpl-1"))
	client := &fakeCommerceClient{}
	uc := newTestUsecase(repo, client)

	_, err := uc.SyncTemplate(context.Background(), "merchant-1", "tpl-1")
	require.NoError(t, err)

	client.status = domain.ResourceDeleted
	_, err = uc.SyncTemplate(context.Background(), "merchant-1", "tpl-1")
	require.NoError(t, err)

	assert.Len(t, client.discountCalls, 2)
}

func TestSyncFailurePreservesPreviousResource(t *testing.T) {
	tpl := discountTemplate("tpl-1")
	tpl.Value.ExternalResourceID = "rule-old"
	tpl.Value.DiscountCode = "GOLD_GOLD_OLD111"
	repo := newFakeRepo(tpl)
	client := &fakeCommerceClient{failCreate: true, status: domain.ResourceDeleted}
	uc := newTestUsecase(repo, client)

	_, err := uc.SyncTemplate(context.Background(), "merchant-1", "tpl-1")
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))

	// Only the error bookkeeping changed; the old resource reference stays.
	assert.Equal(t, "rule-old", tpl.Value.ExternalResourceID)
	require.Len(t, repo.merges["tpl-1"], 1)
	fields := repo.merges["tpl-1"][0]
	assert.Equal(t, string(domain.SyncErrored), fields["sync_status"])
	_, touched := fields["external_resource_id"]
	assert.False(t, touched)
}

func TestSyncFreeShippingWithoutCodeResolvesToTag(t *testing.T) {
	tpl := &domain.RewardTemplate{
		ID:         "tpl-ship",
		MerchantID: "merchant-1",
		Tier:       domain.TierSilver,
		RewardType: domain.RewardFreeShipping,
		IsActive:   true,
		CreatedAt:  time.Now().Add(-24 * time.Hour),
		Value: domain.RewardValue{
			FreeShipping: &domain.FreeShippingConfig{EligibleZones: domain.ZoneAll, MinimumOrderAmount: 50},
		},
	}
	repo := newFakeRepo(tpl)
	client := &fakeCommerceClient{}
	uc := newTestUsecase(repo, client)

	ref, err := uc.SyncTemplate(context.Background(), "merchant-1", "tpl-ship")
	require.NoError(t, err)

	assert.Equal(t, domain.ResourceCustomerTag, ref.Kind)
	assert.Equal(t, "loyalty-silver-free-shipping", ref.Tag)
	assert.Empty(t, client.shippingCalls)
}

func TestSyncFreeShippingWithCode(t *testing.T) {
	tpl := &domain.RewardTemplate{
		ID:         "tpl-ship",
		MerchantID: "merchant-1",
		Tier:       domain.TierSilver,
		RewardType: domain.RewardFreeShipping,
		IsActive:   true,
		CreatedAt:  time.Now().Add(-24 * time.Hour),
		Value: domain.RewardValue{
			FreeShipping: &domain.FreeShippingConfig{
				EligibleZones:      domain.ZoneLocal,
				MinimumOrderAmount: 50,
				RequiresCode:       true,
			},
		},
	}
	repo := newFakeRepo(tpl)
	client := &fakeCommerceClient{}
	uc := newTestUsecase(repo, client)

	ref, err := uc.SyncTemplate(context.Background(), "merchant-1", "tpl-ship")
	require.NoError(t, err)

	assert.Equal(t, domain.ResourceShippingCode, ref.Kind)
	assert.Regexp(t, regexp.MustCompile(`^FREESHIP_SILVER_[A-Z0-9]{6}$`), ref.Code)
	require.Len(t, client.shippingCalls, 1)
	assert.Equal(t, 50.0, client.shippingCalls[0].MinimumOrderAmount)
}

func TestSyncAccessGrantsResolveToTags(t *testing.T) {
	early := &domain.RewardTemplate{
		ID:         "tpl-early",
		MerchantID: "merchant-1",
		Tier:       domain.TierPlatinum,
		RewardType: domain.RewardEarlyAccess,
		IsActive:   true,
		CreatedAt:  time.Now().Add(-24 * time.Hour),
		Value: domain.RewardValue{
			EarlyAccess: &domain.EarlyAccessConfig{
				EventType:       "drop",
				AccessStartDate: time.Now(),
				AccessEndDate:   time.Now().Add(48 * time.Hour),
			},
		},
	}
	repo := newFakeRepo(early)
	client := &fakeCommerceClient{}
	uc := newTestUsecase(repo, client)

	ref, err := uc.SyncTemplate(context.Background(), "merchant-1", "tpl-early")
	require.NoError(t, err)

	assert.Equal(t, domain.ResourceCustomerTag, ref.Kind)
	assert.Equal(t, "loyalty-platinum-early-access", ref.Tag)
}

func TestSyncAllContinuesPastFailures(t *testing.T) {
	good := discountTemplate("tpl-good")
	broken := discountTemplate("tpl-broken")
	broken.Value.Discount = nil // malformed config, create fails
	inactive := discountTemplate("tpl-off")
	inactive.IsActive = false

	repo := newFakeRepo(good, broken, inactive)
	client := &fakeCommerceClient{}
	uc := newTestUsecase(repo, client)

	report, err := uc.SyncAllForMerchant(context.Background(), "merchant-1")
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Skipped)
}

func TestSyncUnknownTemplate(t *testing.T) {
	uc := newTestUsecase(newFakeRepo(), &fakeCommerceClient{})
	_, err := uc.SyncTemplate(context.Background(), "merchant-1", "missing")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}
