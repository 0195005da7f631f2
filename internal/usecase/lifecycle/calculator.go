package lifecycle

import (
	"math"
	"time"

	"github.com/Bernadoadk/qr-flow-reward-service/internal/domain"
)

// Day offsets are exact 24h multiples; no calendar arithmetic.
const day = 24 * time.Hour

// Calculate derives the lifecycle state of a template at the given instant.
// It is deterministic and side-effect-free: the scheduler calls it on every
// tick and API consumers call it ad hoc without touching storage. Malformed
// optional fields degrade to absent (permanent / unbounded); only missing
// identity fields produce an error.
func Calculate(t *domain.RewardTemplate, now time.Time) (*domain.LifecycleState, error) {
	if t == nil || t.ID == "" || t.MerchantID == "" || t.CreatedAt.IsZero() {
		return nil, domain.ErrMissingIdentity
	}

	v := &t.Value

	delay := v.ActivationDelayDays
	if delay < 0 {
		delay = 0
	}
	activationDate := t.CreatedAt.Add(time.Duration(delay) * day)

	var expirationDate *time.Time
	if v.DurationDays != nil && *v.DurationDays > 0 {
		ed := activationDate.Add(time.Duration(*v.DurationDays) * day)
		expirationDate = &ed
	}

	isExpired := expirationDate != nil && expirationDate.Before(now)
	isActive := t.IsActive && !isExpired && !activationDate.After(now)

	var remainingUses *int
	if v.MaxUses != nil && *v.MaxUses > 0 {
		r := *v.MaxUses - v.UsageCount
		if r < 0 {
			r = 0
		}
		remainingUses = &r
	}

	canBeUsed := isActive && (remainingUses == nil || *remainingUses > 0)

	// Strict precedence: disabled > expired > pending > active.
	var status domain.ActivationStatus
	switch {
	case !t.IsActive:
		status = domain.StatusDisabled
	case isExpired:
		status = domain.StatusExpired
	case activationDate.After(now):
		status = domain.StatusPending
	default:
		status = domain.StatusActive
	}

	var daysUntilExpiry *int
	if expirationDate != nil && expirationDate.After(now) {
		d := int(math.Ceil(expirationDate.Sub(now).Hours() / 24))
		daysUntilExpiry = &d
	}

	syncStatus := v.SyncStatus
	if syncStatus == "" {
		syncStatus = domain.SyncNotSynced
	}

	return &domain.LifecycleState{
		ActivationDate:   activationDate,
		ExpirationDate:   expirationDate,
		IsExpired:        isExpired,
		IsActive:         isActive,
		RemainingUses:    remainingUses,
		CanBeUsed:        canBeUsed,
		ActivationStatus: status,
		SyncStatus:       syncStatus,
		DaysUntilExpiry:  daysUntilExpiry,
	}, nil
}
