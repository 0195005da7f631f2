package domain

import "time"

type ActivationStatus string

const (
	StatusDisabled ActivationStatus = "disabled"
	StatusPending  ActivationStatus = "pending"
	StatusActive   ActivationStatus = "active"
	StatusExpired  ActivationStatus = "expired"
)

type SyncStatus string

const (
	SyncSynced    SyncStatus = "synced"
	SyncPending   SyncStatus = "pending"
	SyncErrored   SyncStatus = "error"
	SyncNotSynced SyncStatus = "not_synced"
)

// LifecycleState is the derived view of a template at a point in time. It is
// recomputed from the template and wall clock on every evaluation and never
// persisted.
type LifecycleState struct {
	ActivationDate   time.Time
	ExpirationDate   *time.Time
	IsExpired        bool
	IsActive         bool
	RemainingUses    *int
	CanBeUsed        bool
	ActivationStatus ActivationStatus
	SyncStatus       SyncStatus
	// DaysUntilExpiry is set only when an expiration date exists and lies in
	// the future.
	DaysUntilExpiry *int
}
