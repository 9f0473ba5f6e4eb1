package domain

// Supported social platforms
const (
	PlatformDiscord  = "discord"
	PlatformTelegram = "telegram"
	PlatformTwitter  = "twitter"
)

// SocialLink records a verified social account, one per platform per user
type SocialLink struct {
	ID         uint   `gorm:"primaryKey"`                            // Primary key
	UserID     uint   `gorm:"not null;uniqueIndex:idx_social_user"`  // Owning user
	Platform   string `gorm:"size:16;not null;uniqueIndex:idx_social_user"` // discord, telegram or twitter
	ExternalID string `gorm:"size:64;not null"`                      // Platform-side account id
	Username   string `gorm:"size:255"`                              // Platform-side display name
	CreatedAt  int64  `gorm:"autoCreateTime:milli"`                  // Timestamp of creation in milliseconds
}

// OAuthState is a short-lived CSRF state token for OAuth flows
type OAuthState struct {
	ID        uint   `gorm:"primaryKey"`                   // Primary key
	State     string `gorm:"uniqueIndex;size:64;not null"` // Random state token
	UserID    uint   `gorm:"not null"`                     // User who started the flow
	Platform  string `gorm:"size:16;not null"`             // Target platform
	ExpiresAt int64  `gorm:"not null"`                     // Expiry in unix milliseconds
	CreatedAt int64  `gorm:"autoCreateTime:milli"`         // Timestamp of creation in milliseconds
}
