package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"regexp"   // Address shape validation
	"strings"  // String manipulation
	"time"     // Nonce TTL

	"kcode_backend/internal/chain"  // Signature verification
	"kcode_backend/internal/domain" // Importing domain models
	"kcode_backend/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // Nonce generation
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Challenge nonces expire after five minutes
const nonceTTL = 5 * time.Minute

// NonceRequest asks for a login challenge
type NonceRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"` // Wallet to authenticate
}

// VerifyRequest presents a signed challenge
type VerifyRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"` // Wallet to authenticate
	Signature     string `json:"signature" binding:"required"`      // personal_sign over the challenge
	ReferralCode  string `json:"referral_code"`                     // Optional referrer code, signup only
}

// AuthResponse carries the session token and the user record
type AuthResponse struct {
	Token string      `json:"token"` // JWT session token
	User  domain.User `json:"user"`  // Authenticated user
}

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// isValidAddress checks the 0x-hex shape of a wallet address
func isValidAddress(addr string) bool {
	return addressPattern.MatchString(addr)
}

// loginMessage is the exact text the wallet signs
func loginMessage(nonce string) string {
	return "Sign in to Kabbalah Code\nNonce: " + nonce
}

// NonceHandler issues a short-lived challenge for a wallet
func NonceHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NonceRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			respondErr(c, http.StatusBadRequest, "Invalid request")
			return
		}
		// Validate the address shape
		if !isValidAddress(req.WalletAddress) {
			respondErr(c, http.StatusBadRequest, "Invalid wallet address")
			return
		}
		nonce := uuid.NewString() // Fresh challenge
		ctx := context.Background()
		key := "auth:nonce:" + strings.ToLower(req.WalletAddress) // One pending nonce per wallet
		if err := rdb.Set(ctx, key, nonce, nonceTTL).Err(); err != nil {
			// Redis failure means no challenge can be issued
			respondErr(c, http.StatusInternalServerError, "Failed to issue nonce")
			return
		}
		// Return the message the wallet must sign
		respondOK(c, http.StatusOK, gin.H{"message": loginMessage(nonce)})
	}
}

// VerifyHandler checks the signed challenge, creates the user on first
// login (binding the referral code at most once), and returns a session.
func VerifyHandler(db *gorm.DB, rdb *redis.Client, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			respondErr(c, http.StatusBadRequest, "Invalid request")
			return
		}
		// Validate the address shape
		if !isValidAddress(req.WalletAddress) {
			respondErr(c, http.StatusBadRequest, "Invalid wallet address")
			return
		}
		wallet := strings.ToLower(req.WalletAddress) // Stored lowercased for uniqueness
		ctx := context.Background()
		key := "auth:nonce:" + wallet
		nonce, err := rdb.Get(ctx, key).Result() // Look up the pending challenge
		if err != nil {
			// Missing or expired challenge
			respondErr(c, http.StatusUnauthorized, "No pending challenge for this wallet")
			return
		}
		// Verify the signature over the exact challenge text
		if err := chain.VerifyPersonalSign(loginMessage(nonce), req.Signature, wallet); err != nil {
			respondErr(c, http.StatusUnauthorized, "Invalid signature")
			return
		}
		_ = rdb.Del(ctx, key).Err() // Challenge is single-use
		var user domain.User        // Find or create the user
		err = db.Where("wallet_address = ?", wallet).First(&user).Error
		if err == gorm.ErrRecordNotFound {
			user = domain.User{
				WalletAddress: wallet,                             // Unique key
				ReferralCode:  utils.GenerateReferralCode(wallet), // Derived from wallet bytes
			}
			// Bind the referrer at signup, at most once
			if req.ReferralCode != "" {
				code := strings.ToUpper(strings.TrimSpace(req.ReferralCode))
				var referrer domain.User // The code must belong to an existing user
				if err := db.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
					respondErr(c, http.StatusBadRequest, "Unknown referral code")
					return
				}
				// No self-referral
				if referrer.WalletAddress == wallet {
					respondErr(c, http.StatusBadRequest, "Cannot use your own referral code")
					return
				}
				user.ReferredByCode = &code // Set once, never updated
			}
			// Create the user record
			if err := db.Create(&user).Error; err != nil {
				logrus.WithFields(logrus.Fields{
					"wallet": wallet,      // New wallet
					"error":  err.Error(), // Store failure
				}).Error("Failed to create user") // Log failure
				respondErr(c, http.StatusInternalServerError, "Failed to create user")
				return
			}
			// Log the signup with context
			logrus.WithFields(logrus.Fields{
				"user_id":  user.ID,                     // New user
				"wallet":   wallet,                      // Their wallet
				"referred": user.ReferredByCode != nil,  // Whether a referrer was bound
			}).Info("User registered")
		} else if err != nil {
			// Unexpected store failure
			respondErr(c, http.StatusInternalServerError, "Failed to load user")
			return
		}
		// Generate the session token
		token, err := utils.GenerateJWT(user.ID, wallet, jwtSecret)
		if err != nil {
			// If token generation fails, return internal server error
			respondErr(c, http.StatusInternalServerError, "Failed to generate token")
			return
		}
		// Return the token and the user record
		respondOK(c, http.StatusOK, AuthResponse{Token: token, User: user})
	}
}
