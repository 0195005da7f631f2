package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/app/background"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/config"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/delivery/http/handlers"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
	publisher "github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/kafka"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/messaging"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/metrics"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/migrate"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/postgres"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/postgres/repository"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/shopify"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/commercesync"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/notify"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/usecase/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	// Init database
	db := postgres.MustInitDB(cfg)

	if err := migrate.RunMigrations(db, "migrations"); err != nil {
		log.Printf("migrations skipped: %v\n", err)
	}

	// Kafka lifecycle event publisher
	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	pub := publisher.NewDefaultKafkaPublisher(brokers)

	// Metrics
	rewardMetrics := metrics.NewRewardMetrics()

	// Repositories
	rewardRepo := repository.NewDefaultRewardTemplateRepository(db)
	recipientSource := repository.NewDefaultRecipientSource(db)

	// Commerce platform client
	commerceProvider := shopify.NewStaticClientProvider(cfg.Shopify)

	// Notification channels
	dispatcher := notify.NewDispatcher(
		[]domain.ChannelSender{
			messaging.NewEmailSender(cfg.Messaging.Email),
			messaging.NewSMSSender(cfg.Messaging.SMS),
			messaging.NewInAppSender(db),
		},
		notify.DefaultTemplates(),
		rewardMetrics,
		cfg.Scheduler.ExternalTimeout,
	)

	// Usecases
	rewardUsecase := usecase.NewDefaultRewardUsecase(rewardRepo, rewardMetrics)
	syncUsecase := commercesync.NewDefaultSyncUsecase(
		rewardRepo,
		commerceProvider,
		rewardMetrics,
		cfg.Shopify.Timeout,
		cfg.Scheduler.Workers,
	)
	schedulerUsecase := scheduler.NewDefaultSchedulerUsecase(
		rewardRepo,
		dispatcher,
		syncUsecase,
		recipientSource,
		pub,
		rewardMetrics,
		cfg.KafkaService.Topic,
		cfg.Scheduler.Workers,
	)
	schedulerUsecase.WarningWindowDays = cfg.Scheduler.WarningWindowDays

	// HTTP delivery
	rewardHandler := handlers.NewRewardHandler(rewardUsecase, syncUsecase, schedulerUsecase)
	router := chi.NewRouter()
	rewardHandler.Routes(router)
	router.Handle("/metrics", promhttp.Handler())

	// Periodic lifecycle sweep
	tasks := background.NewBackgroundTasks(schedulerUsecase, cfg.Scheduler.TickInterval)
	tasks.StartAll(context.Background())

	addr := fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
	log.Printf("reward service started on %s\n", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("failed to serve: %v\n", err)
	}
}
