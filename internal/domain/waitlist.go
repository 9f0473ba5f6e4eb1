package domain

// WaitlistRegistration holds a pre-launch signup
type WaitlistRegistration struct {
	ID            uint   `gorm:"primaryKey"`                    // Primary key
	Email         string `gorm:"uniqueIndex;size:255;not null"` // Registrant email
	WalletAddress string `gorm:"size:42"`                       // Optional wallet address
	CreatedAt     int64  `gorm:"autoCreateTime:milli"`          // Timestamp of creation in milliseconds
}
