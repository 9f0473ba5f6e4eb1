package api

import (
	"math/rand/v2" // Prize roll
	"net/http"     // HTTP status codes
	"strconv"      // Event key building

	"kcode_backend/internal/domain"  // Importing domain models
	"kcode_backend/internal/rewards" // KCODE credit service

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Each wheel spin costs this many points
const spinCostPoints = 100.0

// wheelPrize is one weighted segment of the wheel
type wheelPrize struct {
	Label  string  // Display label
	Amount float64 // KCODE won
	Weight int     // Relative probability
}

// The wheel segments; weights sum to 100
var wheelPrizes = []wheelPrize{
	{Label: "nothing", Amount: 0, Weight: 40},
	{Label: "1 KCODE", Amount: 1, Weight: 30},
	{Label: "2 KCODE", Amount: 2, Weight: 15},
	{Label: "5 KCODE", Amount: 5, Weight: 10},
	{Label: "10 KCODE", Amount: 10, Weight: 4},
	{Label: "50 KCODE", Amount: 50, Weight: 1},
}

// totalWheelWeight is the sum of all segment weights
func totalWheelWeight() int {
	total := 0
	for _, p := range wheelPrizes {
		total += p.Weight
	}
	return total
}

// drawPrize maps a roll in [0, totalWeight) onto a segment
func drawPrize(roll int) wheelPrize {
	for _, p := range wheelPrizes {
		if roll < p.Weight {
			return p // Landed on this segment
		}
		roll -= p.Weight // Move past it
	}
	return wheelPrizes[0] // Unreachable with a valid roll
}

// PurchaseSpinRequest buys spin credits with points
type PurchaseSpinRequest struct {
	Spins int `json:"spins" binding:"required,gt=0"` // Number of spins to buy
}

// PurchaseSpinHandler converts points into wheel spin credits
func PurchaseSpinHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			respondErr(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var req PurchaseSpinRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || req.Spins <= 0 {
			// If invalid, return bad request
			respondErr(c, http.StatusBadRequest, "Invalid request")
			return
		}
		var user domain.User // Load the buyer
		if err := db.First(&user, userID).Error; err != nil {
			respondErr(c, http.StatusNotFound, "User not found")
			return
		}
		cost := float64(req.Spins) * spinCostPoints // Total point cost
		// Check sufficient points
		if user.TotalPoints < cost {
			respondErr(c, http.StatusBadRequest, "Insufficient points")
			return
		}
		// Deduct points and grant credits atomically
		err := db.Transaction(func(tx *gorm.DB) error {
			// Deduct the points
			if err := tx.Model(&domain.User{}).Where("id = ? AND total_points >= ?", user.ID, cost).
				Updates(map[string]any{
					"total_points": gorm.Expr("total_points - ?", cost),
					"spin_credits": gorm.Expr("spin_credits + ?", req.Spins),
				}).Error; err != nil {
				return err // Return error to rollback
			}
			// Append the points ledger row
			row := domain.PointsTransaction{
				UserID:      user.ID,                                       // Buyer
				Amount:      -cost,                                         // Points spent
				Type:        "spin_purchase",                               // Movement type
				Description: "purchased " + strconv.Itoa(req.Spins) + " spins", // Audit label
			}
			return tx.Create(&row).Error
		})
		// Handle transaction result
		if err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,     // Buyer
				"spins":   req.Spins,   // Requested spins
				"error":   err.Error(), // Store failure
			}).Error("Spin purchase failed") // Log purchase failure
			respondErr(c, http.StatusInternalServerError, "Spin purchase failed")
			return
		}
		invalidateUserCaches(rdb, user.ID) // Balances changed
		// Return the purchase summary
		respondOK(c, http.StatusOK, gin.H{
			"spins_purchased": req.Spins, // Credits added
			"points_spent":    cost,      // Points deducted
		})
	}
}

// SpinHandler consumes one spin credit, rolls the wheel, and credits any prize
func SpinHandler(db *gorm.DB, rdb *redis.Client, svc *rewards.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			respondErr(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var user domain.User // Load the spinner
		if err := db.First(&user, userID).Error; err != nil {
			respondErr(c, http.StatusNotFound, "User not found")
			return
		}
		// A spin credit must be available
		if user.SpinCredits <= 0 {
			respondErr(c, http.StatusBadRequest, "No spin credits")
			return
		}
		// Consume the credit; the guard keeps a concurrent double spin out
		res := db.Model(&domain.User{}).Where("id = ? AND spin_credits > 0", user.ID).
			Update("spin_credits", gorm.Expr("spin_credits - 1"))
		if res.Error != nil || res.RowsAffected == 0 {
			respondErr(c, http.StatusBadRequest, "No spin credits")
			return
		}
		prize := drawPrize(rand.IntN(totalWheelWeight())) // Roll the wheel
		spin := domain.SpinResult{
			UserID: user.ID,      // Spinner
			Prize:  prize.Label,  // What the wheel landed on
			Amount: prize.Amount, // KCODE value
		}
		// Record the outcome
		if err := db.Create(&spin).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,     // Spinner
				"prize":   prize.Label, // Outcome
				"error":   err.Error(), // Store failure
			}).Error("Spin result write failed")
			respondErr(c, http.StatusInternalServerError, "Spin failed")
			return
		}
		var row *domain.KcodeTransaction // Ledger row when a prize was won
		if prize.Amount > 0 {
			// Credit the prize on-chain; each spin is its own reward event
			eventKey := "wheel:" + strconv.Itoa(int(spin.ID))
			credited, err := svc.Credit(c.Request.Context(), &user, prize.Amount, domain.TxTypeWheelReward, "wheel prize: "+prize.Label, eventKey)
			if err != nil {
				respondErr(c, http.StatusInternalServerError, "Prize credit failed")
				return
			}
			row = credited
		}
		invalidateUserCaches(rdb, user.ID) // Balances changed
		// Return the spin outcome
		respondOK(c, http.StatusOK, gin.H{
			"spin":        spin, // Outcome record
			"transaction": row,  // Ledger row, nil when nothing was won
		})
	}
}
