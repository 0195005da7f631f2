package postgres

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/config"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/postgres/models"
)

func MustInitDB(cfg *config.RewardConfig) *gorm.DB {
	dsn := cfg.RewardDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(&models.RewardTemplateModel{}, &models.InAppNotificationModel{}, &models.LoyaltyCustomerModel{})

	return db
}
