package scheduler

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/commercesync"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/notify"
)

func intPtr(v int) *int { return &v }

type fakeRepo struct {
	mu        sync.Mutex
	templates []*domain.RewardTemplate

	deactivated []string
	merges      map[string][]map[string]interface{}
}

func newFakeRepo(templates ...*domain.RewardTemplate) *fakeRepo {
	return &fakeRepo{templates: templates, merges: make(map[string][]map[string]interface{})}
}

func (r *fakeRepo) Upsert(t *domain.RewardTemplate) error { return nil }

func (r *fakeRepo) GetByID(merchantID, templateID string) (*domain.RewardTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.ID == templateID && t.MerchantID == merchantID {
			return t, nil
		}
	}
	return nil, domain.ErrTemplateNotFound
}

func (r *fakeRepo) ListByMerchant(merchantID string) ([]*domain.RewardTemplate, error) {
	return r.ListActiveByMerchant(merchantID)
}

func (r *fakeRepo) ListActiveByMerchant(merchantID string) ([]*domain.RewardTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.RewardTemplate
	for _, t := range r.templates {
		if t.MerchantID == merchantID && t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListMerchantIDs() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	for _, t := range r.templates {
		seen[t.MerchantID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeRepo) SetActive(templateID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.ID == templateID {
			t.IsActive = active
			if !active {
				r.deactivated = append(r.deactivated, templateID)
			}
			return nil
		}
	}
	return domain.ErrTemplateNotFound
}

func (r *fakeRepo) IncrementUsage(templateID string) error { return nil }

func (r *fakeRepo) MergeValueFields(templateID string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merges[templateID] = append(r.merges[templateID], fields)
	return nil
}

type sentMessage struct {
	Kind      domain.NotificationKind
	Recipient string
	Body      string
}

type fakeSender struct {
	mu      sync.Mutex
	channel domain.NotificationChannel
	sent    []sentMessage
	fail    bool
}

func (s *fakeSender) Channel() domain.NotificationChannel { return s.channel }

func (s *fakeSender) Send(ctx context.Context, recipient domain.Recipient, msg domain.RenderedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return assert.AnError
	}
	s.sent = append(s.sent, sentMessage{Kind: msg.Kind, Recipient: recipient.CustomerID, Body: msg.Body})
	return nil
}

func (s *fakeSender) kinds() []domain.NotificationKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]domain.NotificationKind, len(s.sent))
	for i, m := range s.sent {
		kinds[i] = m.Kind
	}
	return kinds
}

type fakeRecipients struct{ recipients []domain.Recipient }

func (f *fakeRecipients) ListRecipients(ctx context.Context, merchantID string, tier domain.Tier) ([]domain.Recipient, error) {
	return f.recipients, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []domain.Message
}

func (p *fakePublisher) Publish(topic string, msgs ...domain.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msgs...)
	return nil
}

type fakeSync struct {
	mu     sync.Mutex
	synced []string
}

func (f *fakeSync) SyncTemplate(ctx context.Context, merchantID, templateID string) (*domain.ExternalResourceRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synced = append(f.synced, templateID)
	return &domain.ExternalResourceRef{Kind: domain.ResourceDiscountCode, ID: "r-1"}, nil
}

func (f *fakeSync) SyncAllForMerchant(ctx context.Context, merchantID string) (*commercesync.SummaryReport, error) {
	return &commercesync.SummaryReport{MerchantID: merchantID}, nil
}

func (f *fakeSync) ResourceStatus(ctx context.Context, merchantID, templateID string) (domain.ResourceStatus, error) {
	return domain.ResourceActive, nil
}

func template(id string, createdAt time.Time, mutate func(*domain.RewardTemplate)) *domain.RewardTemplate {
	t := &domain.RewardTemplate{
		ID:         id,
		MerchantID: "merchant-1",
		Tier:       domain.TierGold,
		RewardType: domain.RewardDiscount,
		IsActive:   true,
		CreatedAt:  createdAt,
		Value: domain.RewardValue{
			Discount: &domain.DiscountConfig{Scope: domain.ScopeOrder, Percentage: 10, CodePrefix: "GOLD"},
		},
	}
	if mutate != nil {
		mutate(t)
	}
	return t
}

func newTestScheduler(repo *fakeRepo, sender *fakeSender, pub *fakePublisher, now time.Time) *DefaultSchedulerUsecase {
	dispatcher := notify.NewDispatcher(
		[]domain.ChannelSender{sender},
		notify.DefaultTemplates(),
		nil,
		time.Second,
	)
	s := NewDefaultSchedulerUsecase(
		repo,
		dispatcher,
		nil,
		&fakeRecipients{recipients: []domain.Recipient{{CustomerID: "cust-1", Name: "Ada", Email: "ada@example.com"}}},
		pub,
		nil,
		"reward-lifecycle-events",
		1, // sequential workers keep event order deterministic in tests
	)
	s.now = func() time.Time { return now }
	return s
}

func TestTickActivationNotifiesOnceAndSyncs(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tpl := template("tpl-act", now.Add(-time.Hour), nil)
	repo := newFakeRepo(tpl)
	sender := &fakeSender{channel: domain.ChannelEmail}
	pub := &fakePublisher{}

	s := newTestScheduler(repo, sender, pub, now)
	syncUC := &fakeSync{}
	s.Sync = syncUC

	require.NoError(t, s.RunMerchantTick(context.Background(), "merchant-1"))

	assert.Equal(t, []domain.NotificationKind{domain.KindRewardActivated}, sender.kinds())
	assert.Equal(t, []string{"tpl-act"}, syncUC.synced)
	require.Len(t, repo.merges["tpl-act"], 1)
	assert.Equal(t, true, repo.merges["tpl-act"][0]["activation_notified"])

	// Second tick: the persisted flag suppresses a repeat notification.
	require.NoError(t, s.RunMerchantTick(context.Background(), "merchant-1"))
	assert.Len(t, sender.kinds(), 1)
	assert.Len(t, syncUC.synced, 1)
}

func TestTickPendingTemplateNotActivated(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tpl := template("tpl-pending", now.Add(-time.Hour), func(tpl *domain.RewardTemplate) {
		tpl.Value.ActivationDelayDays = 5
	})
	repo := newFakeRepo(tpl)
	sender := &fakeSender{channel: domain.ChannelEmail}

	s := newTestScheduler(repo, sender, &fakePublisher{}, now)
	require.NoError(t, s.RunMerchantTick(context.Background(), "merchant-1"))

	assert.Empty(t, sender.kinds())
	assert.Empty(t, repo.merges["tpl-pending"])
}

func TestTickExpirationFlipsSwitch(t *testing.T) {
	now := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	tpl := template("tpl-exp", now.Add(-10*24*time.Hour), func(tpl *domain.RewardTemplate) {
		tpl.Value.DurationDays = intPtr(3)
		tpl.Value.ActivationNotified = true
	})
	repo := newFakeRepo(tpl)
	sender := &fakeSender{channel: domain.ChannelEmail}
	pub := &fakePublisher{}

	s := newTestScheduler(repo, sender, pub, now)
	require.NoError(t, s.RunMerchantTick(context.Background(), "merchant-1"))

	assert.Equal(t, []string{"tpl-exp"}, repo.deactivated)
	assert.False(t, tpl.IsActive)
	assert.Equal(t, []domain.NotificationKind{domain.KindRewardExpired}, sender.kinds())
	assert.Len(t, pub.messages, 1)
}

func TestTickWarningDoesNotFlipSwitch(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	// Expires at created+3d = now+2d.
	tpl := template("tpl-warn", now.Add(-24*time.Hour), func(tpl *domain.RewardTemplate) {
		tpl.Value.DurationDays = intPtr(3)
		tpl.Value.ActivationNotified = true
	})
	repo := newFakeRepo(tpl)
	sender := &fakeSender{channel: domain.ChannelEmail}

	s := newTestScheduler(repo, sender, &fakePublisher{}, now)
	require.NoError(t, s.RunMerchantTick(context.Background(), "merchant-1"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, domain.KindExpiryWarning, sender.sent[0].Kind)
	assert.Contains(t, sender.sent[0].Body, "2 days")
	assert.Empty(t, repo.deactivated)
	assert.True(t, tpl.IsActive)

	// Same tick later the same day: the identical days-left value is not
	// warned again.
	require.NoError(t, s.RunMerchantTick(context.Background(), "merchant-1"))
	assert.Len(t, sender.sent, 1)
}

func TestTickPassOrderingIsStable(t *testing.T) {
	now := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	activating := template("tpl-a", now.Add(-time.Hour), nil)
	expiring := template("tpl-b", now.Add(-10*24*time.Hour), func(tpl *domain.RewardTemplate) {
		tpl.Value.DurationDays = intPtr(3)
		tpl.Value.ActivationNotified = true
	})
	warning := template("tpl-c", now.Add(-24*time.Hour), func(tpl *domain.RewardTemplate) {
		tpl.Value.DurationDays = intPtr(3)
		tpl.Value.ActivationNotified = true
	})
	repo := newFakeRepo(expiring, warning, activating)
	sender := &fakeSender{channel: domain.ChannelEmail}

	s := newTestScheduler(repo, sender, &fakePublisher{}, now)
	require.NoError(t, s.RunMerchantTick(context.Background(), "merchant-1"))

	assert.Equal(t, []domain.NotificationKind{
		domain.KindRewardActivated,
		domain.KindRewardExpired,
		domain.KindExpiryWarning,
	}, sender.kinds())
}

func TestTickBatchResilience(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	templates := make([]*domain.RewardTemplate, 0, 10)
	for i := 0; i < 9; i++ {
		templates = append(templates, template(string(rune('a'+i))+"-tpl", now.Add(-time.Hour), nil))
	}
	// One malformed row: no id, fails evaluation.
	broken := template("", now.Add(-time.Hour), nil)
	templates = append(templates, broken)

	repo := newFakeRepo(templates...)
	sender := &fakeSender{channel: domain.ChannelEmail}

	s := newTestScheduler(repo, sender, &fakePublisher{}, now)
	require.NoError(t, s.RunMerchantTick(context.Background(), "merchant-1"))

	// The other nine templates still received their activation transition.
	assert.Len(t, sender.kinds(), 9)
}

func TestMerchantTickSkipsWhileInFlight(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tpl := template("tpl-act", now.Add(-time.Hour), nil)
	repo := newFakeRepo(tpl)
	sender := &fakeSender{channel: domain.ChannelEmail}

	s := newTestScheduler(repo, sender, &fakePublisher{}, now)

	// Simulate a tick still running for the merchant.
	s.inFlight.Store("merchant-1", struct{}{})
	require.NoError(t, s.RunMerchantTick(context.Background(), "merchant-1"))
	assert.Empty(t, sender.kinds())

	// Once the running tick finishes, the next one proceeds.
	s.inFlight.Delete("merchant-1")
	require.NoError(t, s.RunMerchantTick(context.Background(), "merchant-1"))
	assert.Len(t, sender.kinds(), 1)
}

func TestRunTickSweepsEveryMerchant(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := template("tpl-m1", now.Add(-time.Hour), nil)
	second := template("tpl-m2", now.Add(-time.Hour), func(tpl *domain.RewardTemplate) {
		tpl.MerchantID = "merchant-2"
	})
	repo := newFakeRepo(first, second)
	sender := &fakeSender{channel: domain.ChannelEmail}

	s := newTestScheduler(repo, sender, &fakePublisher{}, now)
	require.NoError(t, s.RunTick(context.Background()))

	assert.Len(t, sender.kinds(), 2)
}
