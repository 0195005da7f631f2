package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/lifecycle"
)

// evaluated pairs a template with its derived state for this tick.
type evaluated struct {
	template *domain.RewardTemplate
	state    *domain.LifecycleState
}

func (s *DefaultSchedulerUsecase) RunTick(ctx context.Context) error {
	merchantIDs, err := s.Repo.ListMerchantIDs()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for _, merchantID := range merchantIDs {
		merchantID := merchantID
		g.Go(func() error {
			if err := s.RunMerchantTick(gctx, merchantID); err != nil {
				slog.Error("merchant tick failed", "merchant_id", merchantID, "error", err.Error())
			}
			// One merchant failing never aborts the sweep.
			return nil
		})
	}
	return g.Wait()
}

// RunMerchantTick evaluates every active template and applies transitions in
// three ordered passes: activation, expiration, expiry warning. The pass
// order is stable; a template failing in one pass is skipped there and still
// considered by the later passes. At most one tick runs per merchant at a
// time; a call overlapping a running tick is a no-op.
func (s *DefaultSchedulerUsecase) RunMerchantTick(ctx context.Context, merchantID string) error {
	if _, running := s.inFlight.LoadOrStore(merchantID, struct{}{}); running {
		slog.Warn("merchant tick already in flight, skipped", "merchant_id", merchantID)
		return nil
	}
	defer s.inFlight.Delete(merchantID)

	started := s.now()
	defer func() {
		if s.Metrics != nil {
			s.Metrics.SchedulerTickDuration.WithLabelValues(merchantID).Observe(time.Since(started).Seconds())
		}
	}()

	templates, err := s.Repo.ListActiveByMerchant(merchantID)
	if err != nil {
		return err
	}

	now := s.now()
	batch := make([]evaluated, 0, len(templates))
	for _, t := range templates {
		state, err := lifecycle.Calculate(t, now)
		if err != nil {
			// Malformed row: logged with context and skipped for this tick.
			slog.Error("template evaluation failed",
				"merchant_id", merchantID,
				"template_id", t.ID,
				"reward_type", t.RewardType,
				"error", err.Error(),
			)
			s.countError(merchantID, "evaluate")
			continue
		}
		batch = append(batch, evaluated{template: t, state: state})
	}

	s.runPass(ctx, merchantID, batch, "activation", s.processActivation)
	s.runPass(ctx, merchantID, batch, "expiration", s.processExpiration)
	s.runPass(ctx, merchantID, batch, "warning", s.processWarning)
	return nil
}

// runPass fans the pass out over the batch with bounded concurrency. Panics
// and errors are contained per template so one bad row or hung call never
// stalls the rest.
func (s *DefaultSchedulerUsecase) runPass(ctx context.Context, merchantID string, batch []evaluated, stage string, fn func(context.Context, evaluated) error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for _, e := range batch {
		e := e
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic processing template",
						"merchant_id", merchantID,
						"template_id", e.template.ID,
						"stage", stage,
						"panic", r,
					)
					s.countError(merchantID, stage)
				}
			}()
			if err := fn(gctx, e); err != nil {
				slog.Error("transition failed",
					"merchant_id", merchantID,
					"template_id", e.template.ID,
					"stage", stage,
					"error", err.Error(),
				)
				s.countError(merchantID, stage)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// processActivation emits the activation event once the activation date has
// passed. Activation strictly follows activation_date <= now; there is no
// minimum-age gate on top of it. The notified flag is persisted so restarts
// do not re-notify.
func (s *DefaultSchedulerUsecase) processActivation(ctx context.Context, e evaluated) error {
	t, state := e.template, e.state
	if state.ActivationStatus != domain.StatusActive || t.Value.ActivationNotified {
		return nil
	}

	if err := s.Repo.MergeValueFields(t.ID, map[string]interface{}{"activation_notified": true}); err != nil {
		return err
	}
	t.Value.ActivationNotified = true

	s.fanOut(ctx, &domain.RewardEvent{Kind: domain.KindRewardActivated, Template: t})
	s.publishTransition(t, "activated", 0)
	if s.Metrics != nil {
		s.Metrics.RewardsActivatedTotal.WithLabelValues(t.MerchantID, string(t.Tier), string(t.RewardType)).Inc()
	}

	// Activation is when the reward materializes on the commerce platform.
	if s.Sync != nil {
		if _, err := s.Sync.SyncTemplate(ctx, t.MerchantID, t.ID); err != nil {
			// Retryable on the next tick or manual re-sync.
			slog.Warn("commerce sync on activation failed",
				"template_id", t.ID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

// processExpiration flips the merchant switch off once the template expired.
// Only the scheduler writes this flip, so a plain check-then-write holds.
func (s *DefaultSchedulerUsecase) processExpiration(ctx context.Context, e evaluated) error {
	t, state := e.template, e.state
	if !state.IsExpired || !t.IsActive {
		return nil
	}

	if err := s.Repo.SetActive(t.ID, false); err != nil {
		return err
	}
	t.IsActive = false

	s.fanOut(ctx, &domain.RewardEvent{Kind: domain.KindRewardExpired, Template: t})
	s.publishTransition(t, "expired", 0)
	s.cache.forget(t.ID)
	if s.Metrics != nil {
		s.Metrics.RewardsExpiredTotal.WithLabelValues(t.MerchantID, string(t.Tier), string(t.RewardType)).Inc()
	}
	return nil
}

// processWarning emits an expiry warning when the expiration date falls
// within the warning window. The same days-left value is warned at most once.
func (s *DefaultSchedulerUsecase) processWarning(ctx context.Context, e evaluated) error {
	t, state := e.template, e.state
	if state.ActivationStatus != domain.StatusActive || state.DaysUntilExpiry == nil {
		return nil
	}
	window := s.WarningWindowDays
	if window <= 0 {
		window = defaultWarningWindowDays
	}
	days := *state.DaysUntilExpiry
	if days > window || !s.cache.shouldWarn(t.ID, days) {
		return nil
	}

	s.fanOut(ctx, &domain.RewardEvent{Kind: domain.KindExpiryWarning, Template: t, DaysUntilExpiry: days})
	s.publishTransition(t, "expiry_warning", days)
	if s.Metrics != nil {
		s.Metrics.ExpiryWarningsTotal.WithLabelValues(t.MerchantID, string(t.Tier), string(t.RewardType)).Inc()
	}
	return nil
}

// fanOut delivers the event to every recipient qualifying for the tier.
func (s *DefaultSchedulerUsecase) fanOut(ctx context.Context, event *domain.RewardEvent) {
	if s.Dispatcher == nil || s.Recipients == nil {
		return
	}
	recipients, err := s.Recipients.ListRecipients(ctx, event.Template.MerchantID, event.Template.Tier)
	if err != nil {
		slog.Error("failed to list recipients",
			"merchant_id", event.Template.MerchantID,
			"tier", event.Template.Tier,
			"error", err.Error(),
		)
		return
	}
	for _, r := range recipients {
		s.Dispatcher.Dispatch(ctx, event, r)
	}
}

func (s *DefaultSchedulerUsecase) publishTransition(t *domain.RewardTemplate, transition string, days int) {
	if s.Publisher == nil {
		return
	}
	event := RewardLifecycleEvent{
		TemplateID:      t.ID,
		MerchantID:      t.MerchantID,
		Tier:            string(t.Tier),
		RewardType:      string(t.RewardType),
		Transition:      transition,
		DaysUntilExpiry: days,
		OccurredAt:      s.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal lifecycle event", "template_id", t.ID, "error", err.Error())
		return
	}
	if err := s.Publisher.Publish(s.Topic, domain.Message{Key: []byte(t.MerchantID), Value: payload}); err != nil {
		slog.Error("failed to publish lifecycle event", "template_id", t.ID, "error", err.Error())
	}
}

// RewardLifecycleEvent is the message published for downstream consumers on
// every transition.
type RewardLifecycleEvent struct {
	TemplateID      string    `json:"template_id"`
	MerchantID      string    `json:"merchant_id"`
	Tier            string    `json:"tier"`
	RewardType      string    `json:"reward_type"`
	Transition      string    `json:"transition"`
	DaysUntilExpiry int       `json:"days_until_expiry,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
