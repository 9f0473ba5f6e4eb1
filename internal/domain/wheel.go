package domain

// SpinResult records one wheel-of-fortune spin outcome
type SpinResult struct {
	ID        uint    `gorm:"primaryKey"`           // Primary key
	UserID    uint    `gorm:"not null;index"`       // User who spun
	Prize     string  `gorm:"size:64;not null"`     // Prize label
	Amount    float64 `gorm:"not null"`             // KCODE amount won (0 for no prize)
	CreatedAt int64   `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
}
