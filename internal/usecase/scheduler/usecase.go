package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/metrics"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/commercesync"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/notify"
)

const defaultWarningWindowDays = 3

type SchedulerUsecase interface {
	// RunTick sweeps every merchant; merchants are processed concurrently.
	RunTick(ctx context.Context) error
	// RunMerchantTick sweeps one merchant's active templates.
	RunMerchantTick(ctx context.Context, merchantID string) error
}

type DefaultSchedulerUsecase struct {
	Repo       domain.RewardTemplateRepository
	Dispatcher *notify.Dispatcher
	Sync       commercesync.SyncUsecase
	Recipients domain.RecipientSource
	Publisher  domain.PublisherPort
	Metrics    *metrics.RewardMetrics

	Topic             string
	WarningWindowDays int
	Workers           int

	cache *statusCache
	// inFlight holds merchant ids with a tick currently running, so the
	// background ticker and the manual HTTP trigger never overlap.
	inFlight sync.Map
	now      func() time.Time
}

func NewDefaultSchedulerUsecase(
	repo domain.RewardTemplateRepository,
	dispatcher *notify.Dispatcher,
	syncUC commercesync.SyncUsecase,
	recipients domain.RecipientSource,
	pub domain.PublisherPort,
	m *metrics.RewardMetrics,
	topic string,
	workers int,
) *DefaultSchedulerUsecase {
	if workers <= 0 {
		workers = 4
	}
	return &DefaultSchedulerUsecase{
		Repo:              repo,
		Dispatcher:        dispatcher,
		Sync:              syncUC,
		Recipients:        recipients,
		Publisher:         pub,
		Metrics:           m,
		Topic:             topic,
		WarningWindowDays: defaultWarningWindowDays,
		Workers:           workers,
		cache:             newStatusCache(),
		now:               time.Now,
	}
}

func (s *DefaultSchedulerUsecase) countError(merchantID, stage string) {
	if s.Metrics != nil {
		s.Metrics.SchedulerTemplateErrsTotal.WithLabelValues(merchantID, stage).Inc()
	}
}
