package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"kcode_backend/internal/domain" // Importing domain models
	"kcode_backend/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// ProfileHandler returns the authenticated user's record
func ProfileHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			respondErr(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := context.Background()                                    // Context for Redis operations
		cacheKey := "profile:user:" + strconv.Itoa(int(userID.(uint))) // Cache key for the profile
		var user domain.User                                           // User struct to hold data
		found, err := utils.GetCache(ctx, rdb, cacheKey, &user)        // Try to get from cache
		// If found in cache, return it
		if err == nil && found {
			respondOK(c, http.StatusOK, gin.H{"user": user, "cached": true})
			return
		}
		// If not in cache, fetch from DB
		if err := db.First(&user, userID).Error; err != nil {
			// Return not found if the user doesn't exist
			respondErr(c, http.StatusNotFound, "User not found")
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, user, 60*time.Second)     // Cache the profile for 60 seconds
		respondOK(c, http.StatusOK, gin.H{"user": user, "cached": false}) // Return profile
	}
}

// ReferralStats summarizes a user's referral performance
type ReferralStats struct {
	ReferralCode     string  `json:"referral_code"`     // Code to share
	DirectReferrals  int64   `json:"direct_referrals"`  // Users who signed up with the code
	ReferralEarnings float64 `json:"referral_earnings"` // Lifetime referral_reward total
}

// ReferralsHandler returns the authenticated user's referral stats
func ReferralsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			respondErr(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		var user domain.User // Load the user for their code
		if err := db.First(&user, userID).Error; err != nil {
			respondErr(c, http.StatusNotFound, "User not found")
			return
		}
		var direct int64 // Count of users who used this code
		if err := db.Model(&domain.User{}).Where("referred_by_code = ?", user.ReferralCode).Count(&direct).Error; err != nil {
			respondErr(c, http.StatusInternalServerError, "Failed to count referrals")
			return
		}
		var earnings float64 // Lifetime referral earnings from the ledger
		if err := db.Model(&domain.KcodeTransaction{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("user_id = ? AND type = ?", user.ID, domain.TxTypeReferralReward).
			Scan(&earnings).Error; err != nil {
			respondErr(c, http.StatusInternalServerError, "Failed to sum referral earnings")
			return
		}
		// Return the stats
		respondOK(c, http.StatusOK, ReferralStats{
			ReferralCode:     user.ReferralCode, // Code to share
			DirectReferrals:  direct,            // Signups attributed
			ReferralEarnings: earnings,          // KCODE earned from referrals
		})
	}
}

// TransactionHistoryHandler returns the user's KCODE ledger, paginated and cached
func TransactionHistoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, exists := c.Get("userID")
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			respondErr(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		page := 1      // Default page
		pageSize := 20 // Default page size
		// If page exists in query
		if p := c.Query("page"); p != "" {
			// Convert page to integer
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// If page_size exists in query
		if ps := c.Query("page_size"); ps != "" {
			// Convert page_size to integer
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size if valid
			}
		}
		offset := (page - 1) * pageSize // Calculate offset
		// Redis cache key
		cacheKey := "txhistory:user:" + strconv.Itoa(int(userID.(uint))) + ":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		ctx := context.Background() // Context for Redis operations
		var cached struct {
			Transactions []domain.KcodeTransaction `json:"transactions"` // List of ledger rows
			Page         int                       `json:"page"`         // Current page
			PageSize     int                       `json:"page_size"`    // Page size
			Total        int64                     `json:"total"`        // Total rows
			TotalPages   int                       `json:"total_pages"`  // Total pages
		}
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		// If found in cache, return it
		if err == nil && found {
			respondOK(c, http.StatusOK, gin.H{
				"transactions": cached.Transactions, // Cached rows
				"page":         cached.Page,         // Current page
				"page_size":    cached.PageSize,     // Page size
				"total":        cached.Total,        // Total rows
				"total_pages":  cached.TotalPages,   // Total pages
				"cached":       true,
			})
			return
		}
		var total int64 // Total count of ledger rows
		// Count total rows for pagination
		if err := db.Model(&domain.KcodeTransaction{}).
			Where("user_id = ?", userID).
			Count(&total).Error; err != nil {
			// If counting fails, return error
			respondErr(c, http.StatusInternalServerError, "Failed to count transactions")
			return
		}
		var transactions []domain.KcodeTransaction // Slice to hold rows
		// Fetch paginated rows
		if err := db.Where("user_id = ?", userID).
			Order("created_at desc").
			Offset(offset).
			Limit(pageSize).
			Find(&transactions).Error; err != nil {
			// If fetching fails, return error
			respondErr(c, http.StatusInternalServerError, "Failed to fetch transactions")
			return
		}
		// Calculate total pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"transactions": transactions, // List of ledger rows
			"page":         page,         // Current page
			"page_size":    pageSize,     // Page size
			"total":        total,        // Total rows
			"total_pages":  totalPages,   // Total pages
			"cached":       false,        // Not from cache
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		respondOK(c, http.StatusOK, resp) // Return ledger history
	}
}
