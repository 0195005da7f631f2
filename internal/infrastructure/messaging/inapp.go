package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
	"github.com/Bernadoadk/qr-flow-reward-service/internal/infrastructure/postgres/models"
)

// InAppSender writes messages into the customer's in-app inbox table; the
// storefront reads and marks them from there.
type InAppSender struct {
	db *gorm.DB
}

func NewInAppSender(db *gorm.DB) *InAppSender {
	return &InAppSender{db: db}
}

func (s *InAppSender) Channel() domain.NotificationChannel {
	return domain.ChannelInApp
}

func (s *InAppSender) Send(ctx context.Context, recipient domain.Recipient, msg domain.RenderedMessage) error {
	row := &models.InAppNotificationModel{
		ID:         uuid.NewString(),
		MerchantID: msg.MerchantID,
		CustomerID: recipient.CustomerID,
		Kind:       string(msg.Kind),
		Subject:    msg.Subject,
		Body:       msg.Body,
		CreatedAt:  time.Now(),
	}
	return s.db.WithContext(ctx).Create(row).Error
}
