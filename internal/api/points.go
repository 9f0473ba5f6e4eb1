package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // Cache key building
	"time"     // UTC day derivation

	"kcode_backend/internal/domain"  // Importing domain models
	"kcode_backend/internal/rewards" // KCODE credit service
	"kcode_backend/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Daily ritual rewards
const (
	ritualRewardKcode  = 2.0  // KCODE minted per completed ritual
	ritualRewardPoints = 50.0 // Off-chain points per completed ritual
)

// The ten sephirot a ritual can be performed on
var validSephirot = map[string]bool{
	"keter": true, "chokhmah": true, "binah": true, "chesed": true, "gevurah": true,
	"tiferet": true, "netzach": true, "hod": true, "yesod": true, "malkuth": true,
}

// RitualRequest is the daily ritual completion payload
type RitualRequest struct {
	Sephira string `json:"sephira" binding:"required"` // Sephira the ritual targets
}

// RitualHandler completes the daily ritual: once per UTC day, credits
// KCODE and points, then fans out referral rewards.
func RitualHandler(db *gorm.DB, rdb *redis.Client, svc *rewards.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			respondErr(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var req RitualRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			respondErr(c, http.StatusBadRequest, "Invalid request")
			return
		}
		// Validate the sephira name
		if !validSephirot[req.Sephira] {
			respondErr(c, http.StatusNotFound, "Unknown sephira")
			return
		}
		var user domain.User // Load the earner
		if err := db.First(&user, userID).Error; err != nil {
			respondErr(c, http.StatusNotFound, "User not found")
			return
		}
		day := time.Now().UTC().Format("2006-01-02") // The UTC calendar day
		var existing domain.DailyRitual              // One completion per day
		if err := db.Where("user_id = ? AND day = ?", user.ID, day).First(&existing).Error; err == nil {
			// Already completed today, return conflict
			respondErr(c, http.StatusBadRequest, "Ritual already completed today")
			return
		}
		ritual := domain.DailyRitual{
			UserID:  user.ID,           // Who completed it
			Day:     day,               // UTC day
			Sephira: req.Sephira,       // Targeted sephira
			Reward:  ritualRewardKcode, // KCODE awarded
		}
		// Record the completion; the unique index rejects a concurrent double claim
		if err := db.Create(&ritual).Error; err != nil {
			respondErr(c, http.StatusBadRequest, "Ritual already completed today")
			return
		}
		// Primary effect: the earner's own KCODE credit
		eventKey := "ritual:" + strconv.Itoa(int(user.ID)) + ":" + day
		row, err := svc.Credit(c.Request.Context(), &user, ritualRewardKcode, domain.TxTypeRitualReward, "daily ritual ("+req.Sephira+")", eventKey)
		if err != nil {
			// Roll back the completion marker so the user can retry
			if delErr := db.Delete(&ritual).Error; delErr != nil {
				logrus.WithFields(logrus.Fields{
					"user_id": user.ID,        // Affected user
					"day":     day,            // Claimed day
					"error":   delErr.Error(), // Rollback failure
				}).Error("Ritual rollback failed")
			}
			respondErr(c, http.StatusInternalServerError, "Reward credit failed")
			return
		}
		// Secondary effect: off-chain points, best-effort
		if err := creditPoints(db, user.ID, ritualRewardPoints, "ritual", "daily ritual ("+req.Sephira+")"); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,     // Affected user
				"error":   err.Error(), // Store failure
			}).Error("Ritual points credit failed")
		}
		invalidateUserCaches(rdb, user.ID) // Balances changed
		// Return the completion and its ledger row
		respondOK(c, http.StatusOK, gin.H{
			"ritual":      ritual,             // Completion record
			"transaction": row,                // KCODE ledger row
			"points":      ritualRewardPoints, // Points credited
		})
	}
}

// creditPoints adds off-chain points and appends the points ledger row
func creditPoints(db *gorm.DB, userID uint, amount float64, ptype, description string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		// Increment the cached points balance
		if err := tx.Model(&domain.User{}).Where("id = ?", userID).
			Update("total_points", gorm.Expr("total_points + ?", amount)).Error; err != nil {
			return err // Return error to rollback
		}
		// Append the points ledger row
		row := domain.PointsTransaction{
			UserID:      userID,      // Affected user
			Amount:      amount,      // Signed delta
			Type:        ptype,       // Movement type
			Description: description, // Audit label
		}
		return tx.Create(&row).Error
	})
}

// invalidateUserCaches drops the profile and ledger caches after a balance change
func invalidateUserCaches(rdb *redis.Client, userID uint) {
	ctx := context.Background()                // Context for Redis operations
	id := strconv.Itoa(int(userID))            // Stringified user id
	_ = utils.DeleteCache(ctx, rdb, "profile:user:"+id) // Invalidate profile cache
	// Invalidate all paginated txhistory cache for this user (simple version: delete first 5 pages)
	for i := 1; i <= 5; i++ {
		// Delete cache entries
		_ = utils.DeleteCache(ctx, rdb, "txhistory:user:"+id+":page:"+strconv.Itoa(i)+":size:20")
	}
}
