package background

import (
	"context"
	"log"
	"time"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/scheduler"
)

// BackgroundTasks drives the lifecycle scheduler on a fixed interval. The
// scheduler itself owns no timer; this runner is the host-side cron
// equivalent, and the HTTP tick endpoints remain available for external
// triggering.
type BackgroundTasks struct {
	Scheduler    scheduler.SchedulerUsecase
	TickInterval time.Duration
}

func NewBackgroundTasks(sched scheduler.SchedulerUsecase, tickInterval time.Duration) *BackgroundTasks {
	if tickInterval <= 0 {
		tickInterval = time.Hour
	}
	return &BackgroundTasks{
		Scheduler:    sched,
		TickInterval: tickInterval,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	go bt.startLifecycleTicks(ctx)
}

func (bt *BackgroundTasks) startLifecycleTicks(ctx context.Context) {
	ticker := time.NewTicker(bt.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := bt.Scheduler.RunTick(ctx); err != nil {
				log.Printf("Scheduler tick error: %v\n", err)
			}
		}
	}
}
