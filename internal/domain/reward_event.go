package domain

// Reward event statuses
const (
	RewardEventPending   = "pending"   // Intent recorded, distribution not finished
	RewardEventCompleted = "completed" // All referrer levels processed
)

// RewardEvent is the idempotency/intent row written before a referral
// distribution runs. The unique EventKey makes re-invocation a no-op.
type RewardEvent struct {
	ID           uint    `gorm:"primaryKey"`                   // Primary key
	EventKey     string  `gorm:"uniqueIndex;size:64;not null"` // Idempotency token (originating event id)
	UserID       uint    `gorm:"not null;index"`               // The earner the event originated from
	AmountEarned float64 `gorm:"not null"`                     // Original amount earned
	ActivityType string  `gorm:"size:64;not null"`             // Free-text audit label
	Status       string  `gorm:"size:16;not null;default:pending"` // pending or completed
	CreatedAt    int64   `gorm:"autoCreateTime:milli"`         // Timestamp of creation in milliseconds
}
