package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/postgres/models"
)

// DefaultRecipientSource reads qualifying customers from the merchant's
// loyalty roster: a customer qualifies for a reward when their earned tier is
// at or above the reward's tier.
type DefaultRecipientSource struct {
	DB *gorm.DB
}

func NewDefaultRecipientSource(db *gorm.DB) *DefaultRecipientSource {
	return &DefaultRecipientSource{DB: db}
}

func (r *DefaultRecipientSource) ListRecipients(ctx context.Context, merchantID string, tier domain.Tier) ([]domain.Recipient, error) {
	var rows []*models.LoyaltyCustomerModel
	err := r.DB.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	minRank := tier.Rank()
	recipients := make([]domain.Recipient, 0, len(rows))
	for _, row := range rows {
		if domain.Tier(row.Tier).Rank() < minRank {
			continue
		}
		recipients = append(recipients, domain.Recipient{
			CustomerID: row.ID,
			Name:       row.Name,
			Email:      row.Email,
			Phone:      row.Phone,
		})
	}
	return recipients, nil
}
