package domain

// DailyRitual records one ritual completion per user per UTC day
type DailyRitual struct {
	ID        uint   `gorm:"primaryKey"`                          // Primary key
	UserID    uint   `gorm:"not null;uniqueIndex:idx_ritual_day"` // User who completed the ritual
	Day       string `gorm:"size:10;not null;uniqueIndex:idx_ritual_day"` // UTC day, YYYY-MM-DD
	Sephira   string `gorm:"size:32"`                             // Sephira the ritual was performed on
	Reward    float64 `gorm:"not null"`                           // KCODE awarded
	CreatedAt int64  `gorm:"autoCreateTime:milli"`                // Timestamp of creation in milliseconds
}
