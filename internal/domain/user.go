package domain

// User Model
type User struct {
	ID             uint    `gorm:"primaryKey"`                   // Primary key
	WalletAddress  string  `gorm:"uniqueIndex;size:42;not null"` // Checksummed 0x address, unique key
	ReferralCode   string  `gorm:"uniqueIndex;size:12;not null"` // Code derived from wallet bytes
	ReferredByCode *string `gorm:"size:12;index"`                // Referrer's code, set at most once at signup
	TotalKcode     float64 `gorm:"not null;default:0"`           // Cumulative KCODE balance (cached)
	TotalPoints    float64 `gorm:"not null;default:0"`           // Off-chain points balance
	TokensMinted   float64 `gorm:"not null;default:0"`           // Mirrors on-chain mints
	SpinCredits    int     `gorm:"not null;default:0"`           // Purchased wheel spins not yet used
	Role           string  `gorm:"default:user"`                 // Role: user or admin
	CreatedAt      int64   `gorm:"autoCreateTime:milli"`         // Timestamp of creation in milliseconds
}
