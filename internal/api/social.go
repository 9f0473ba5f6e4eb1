package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Payload parsing
	"time"     // State expiry

	"kcode_backend/internal/domain"  // Importing domain models
	"kcode_backend/internal/rewards" // KCODE credit service
	"kcode_backend/internal/social"  // Platform clients

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // OAuth state tokens
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// KCODE minted for each verified social account
const socialRewardKcode = 5.0

// OAuth states expire after ten minutes
const oauthStateTTL = 10 * time.Minute

// SocialClients bundles the three platform integrations
type SocialClients struct {
	Discord  *social.DiscordClient   // OAuth + guild membership
	Telegram *social.TelegramVerifier // Login widget + channel membership
	Twitter  *social.TwitterClient   // Public post verification
}

// StartVerifyRequest begins a verification flow
type StartVerifyRequest struct {
	Platform string `json:"platform" binding:"required"` // discord, telegram or twitter
}

// StartVerifyHandler hands the client what it needs to begin verification:
// an OAuth state for Discord, the channel to join for Telegram, or the
// verification code to post for Twitter.
func StartVerifyHandler(db *gorm.DB, clients SocialClients, telegramChannel string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			respondErr(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var req StartVerifyRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			respondErr(c, http.StatusBadRequest, "Invalid request")
			return
		}
		var user domain.User // Load the requesting user
		if err := db.First(&user, userID).Error; err != nil {
			respondErr(c, http.StatusNotFound, "User not found")
			return
		}
		switch req.Platform {
		case domain.PlatformDiscord:
			state := domain.OAuthState{
				State:     uuid.NewString(),                      // CSRF token
				UserID:    user.ID,                               // Flow owner
				Platform:  domain.PlatformDiscord,                // Target platform
				ExpiresAt: time.Now().Add(oauthStateTTL).UnixMilli(), // Expiry
			}
			// Persist the state for the completion step
			if err := db.Create(&state).Error; err != nil {
				respondErr(c, http.StatusInternalServerError, "Failed to create state")
				return
			}
			respondOK(c, http.StatusOK, gin.H{"state": state.State}) // Client builds the authorize URL
		case domain.PlatformTelegram:
			// The login widget needs no server-side state; tell the client where to go
			respondOK(c, http.StatusOK, gin.H{"channel": telegramChannel})
		case domain.PlatformTwitter:
			// The verification code the post must contain is the user's referral code
			respondOK(c, http.StatusOK, gin.H{
				"verification_code": user.ReferralCode,  // Must appear in the post
				"mention":           clients.Twitter.Handle, // Must be mentioned
			})
		default:
			respondErr(c, http.StatusBadRequest, "Unknown platform")
		}
	}
}

// CompleteVerifyRequest finishes a verification flow; fields depend on platform
type CompleteVerifyRequest struct {
	Platform string            `json:"platform" binding:"required"` // discord, telegram or twitter
	State    string            `json:"state"`                       // Discord: OAuth state
	Code     string            `json:"code"`                        // Discord: authorization code
	Fields   map[string]string `json:"fields"`                      // Telegram: login widget payload
	TweetURL string            `json:"tweet_url"`                   // Twitter: verification post URL
}

// CompleteVerifyHandler validates the platform proof, links the account
// (once per platform), and credits the verification reward.
func CompleteVerifyHandler(db *gorm.DB, rdb *redis.Client, clients SocialClients, svc *rewards.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			respondErr(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var req CompleteVerifyRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			respondErr(c, http.StatusBadRequest, "Invalid request")
			return
		}
		var user domain.User // Load the requesting user
		if err := db.First(&user, userID).Error; err != nil {
			respondErr(c, http.StatusNotFound, "User not found")
			return
		}
		var existing domain.SocialLink // One link per platform
		if err := db.Where("user_id = ? AND platform = ?", user.ID, req.Platform).First(&existing).Error; err == nil {
			// Already linked, return conflict
			respondErr(c, http.StatusBadRequest, "Account already linked")
			return
		}
		ctx := c.Request.Context() // Request-scoped context for platform calls
		var externalID, username string
		switch req.Platform {
		case domain.PlatformDiscord:
			// The completion must carry the state and the authorization code
			if req.State == "" || req.Code == "" {
				respondErr(c, http.StatusBadRequest, "Missing state or code")
				return
			}
			var state domain.OAuthState // Validate the pending state
			if err := db.Where("state = ? AND user_id = ? AND platform = ?", req.State, user.ID, domain.PlatformDiscord).First(&state).Error; err != nil {
				respondErr(c, http.StatusBadRequest, "Unknown or foreign state")
				return
			}
			// Reject expired flows
			if state.ExpiresAt < time.Now().UnixMilli() {
				respondErr(c, http.StatusBadRequest, "State expired")
				return
			}
			_ = db.Delete(&state).Error // States are single-use
			token, err := clients.Discord.ExchangeCode(ctx, req.Code)
			if err != nil {
				respondErr(c, http.StatusInternalServerError, "Discord code exchange failed")
				return
			}
			dUser, err := clients.Discord.FetchUser(ctx, token)
			if err != nil {
				respondErr(c, http.StatusInternalServerError, "Discord user lookup failed")
				return
			}
			member, err := clients.Discord.IsGuildMember(ctx, token)
			if err != nil {
				respondErr(c, http.StatusInternalServerError, "Discord guild check failed")
				return
			}
			// Membership is the thing being verified
			if !member {
				respondErr(c, http.StatusBadRequest, "Not a member of the Discord server")
				return
			}
			externalID, username = dUser.ID, dUser.Username
		case domain.PlatformTelegram:
			// The completion must carry the login widget payload
			if len(req.Fields) == 0 {
				respondErr(c, http.StatusBadRequest, "Missing login payload")
				return
			}
			// The widget hash proves the payload came from Telegram
			if err := clients.Telegram.VerifyLoginPayload(req.Fields); err != nil {
				respondErr(c, http.StatusBadRequest, "Invalid login payload")
				return
			}
			tgID, err := strconv.ParseInt(req.Fields["id"], 10, 64)
			if err != nil {
				respondErr(c, http.StatusBadRequest, "Invalid telegram id")
				return
			}
			member, err := clients.Telegram.IsChannelMember(ctx, tgID)
			if err != nil {
				respondErr(c, http.StatusInternalServerError, "Telegram membership check failed")
				return
			}
			// Membership is the thing being verified
			if !member {
				respondErr(c, http.StatusBadRequest, "Not a member of the Telegram channel")
				return
			}
			externalID, username = req.Fields["id"], req.Fields["username"]
		case domain.PlatformTwitter:
			// The completion must carry the post URL
			if req.TweetURL == "" {
				respondErr(c, http.StatusBadRequest, "Missing tweet url")
				return
			}
			tweetID, err := social.TweetIDFromURL(req.TweetURL)
			if err != nil {
				respondErr(c, http.StatusBadRequest, "Invalid tweet url")
				return
			}
			screenName, err := clients.Twitter.VerifyPost(ctx, tweetID, user.ReferralCode)
			if err != nil {
				respondErr(c, http.StatusBadRequest, "Post verification failed")
				return
			}
			externalID, username = screenName, screenName
		default:
			respondErr(c, http.StatusBadRequest, "Unknown platform")
			return
		}
		link := domain.SocialLink{
			UserID:     user.ID,      // Owning user
			Platform:   req.Platform, // Verified platform
			ExternalID: externalID,   // Platform-side id
			Username:   username,     // Platform-side name
		}
		// Record the link; the unique index rejects a concurrent double claim
		if err := db.Create(&link).Error; err != nil {
			respondErr(c, http.StatusBadRequest, "Account already linked")
			return
		}
		// Credit the verification reward; each platform is its own event
		eventKey := "social:" + strconv.Itoa(int(user.ID)) + ":" + req.Platform
		row, err := svc.Credit(ctx, &user, socialRewardKcode, domain.TxTypeSocialReward, "verified "+req.Platform, eventKey)
		if err != nil {
			// Roll back the link so the user can retry the claim
			if delErr := db.Delete(&link).Error; delErr != nil {
				logrus.WithFields(logrus.Fields{
					"user_id":  user.ID,        // Affected user
					"platform": req.Platform,   // Verified platform
					"error":    delErr.Error(), // Rollback failure
				}).Error("Social link rollback failed")
			}
			respondErr(c, http.StatusInternalServerError, "Reward credit failed")
			return
		}
		invalidateUserCaches(rdb, user.ID) // Balances changed
		// Return the link and its ledger row
		respondOK(c, http.StatusOK, gin.H{
			"link":        link, // Verified account
			"transaction": row,  // KCODE ledger row
		})
	}
}
