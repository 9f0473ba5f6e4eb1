package domain

// KCODE transaction types
const (
	TxTypeRitualReward   = "ritual_reward"   // Daily ritual completion
	TxTypeTaskReward     = "task_reward"     // Task completion
	TxTypeSocialReward   = "social_reward"   // Social account verification
	TxTypeWheelReward    = "wheel_reward"    // Wheel of fortune prize
	TxTypeReferralReward = "referral_reward" // Referral fan-out payout
)

// KcodeTransaction is an append-only ledger row, one per reward event
type KcodeTransaction struct {
	ID          uint    `gorm:"primaryKey"`                 // Primary key
	UserID      uint    `gorm:"not null;index"`             // Recipient user
	Amount      float64 `gorm:"not null"`                   // KCODE amount credited
	Type        string  `gorm:"size:32;not null;index"`     // One of the TxType constants
	Description string  `gorm:"size:255"`                   // Human-readable audit label
	TxHash      string  `gorm:"size:66"`                    // On-chain transaction hash
	Metadata    string  `gorm:"type:text"`                  // JSON blob (referral level, source event, etc.)
	CreatedAt   int64   `gorm:"autoCreateTime:milli;index"` // Timestamp of creation in milliseconds
}

// PointsTransaction records off-chain point movements (spins, purchases)
type PointsTransaction struct {
	ID          uint    `gorm:"primaryKey"`           // Primary key
	UserID      uint    `gorm:"not null;index"`       // User whose points moved
	Amount      float64 `gorm:"not null"`             // Signed point delta
	Type        string  `gorm:"size:32;not null"`     // e.g. ritual, spin_purchase
	Description string  `gorm:"size:255"`             // Audit label
	CreatedAt   int64   `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
}
