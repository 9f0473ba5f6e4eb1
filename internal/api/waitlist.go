package api

import (
	"net/http" // HTTP status codes
	"regexp"   // Email shape validation
	"strings"  // Normalization

	"kcode_backend/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// WaitlistRequest is a pre-launch signup
type WaitlistRequest struct {
	Email         string `json:"email" binding:"required"` // Registrant email
	WalletAddress string `json:"wallet_address"`           // Optional wallet address
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// WaitlistHandler registers an email on the waitlist
func WaitlistHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WaitlistRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			respondErr(c, http.StatusBadRequest, "Invalid request")
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email)) // Stored lowercased for uniqueness
		// Validate the email shape
		if !emailPattern.MatchString(email) {
			respondErr(c, http.StatusBadRequest, "Invalid email")
			return
		}
		// Validate the optional wallet address
		if req.WalletAddress != "" && !isValidAddress(req.WalletAddress) {
			respondErr(c, http.StatusBadRequest, "Invalid wallet address")
			return
		}
		reg := domain.WaitlistRegistration{
			Email:         email,                              // Registrant email
			WalletAddress: strings.ToLower(req.WalletAddress), // Optional wallet
		}
		// Attempt to create the registration
		if err := db.Create(&reg).Error; err != nil {
			// If creation fails (e.g., duplicate email), return bad request
			respondErr(c, http.StatusBadRequest, "Email already registered")
			return
		}
		// Return success response
		respondOK(c, http.StatusCreated, gin.H{"registration": reg})
	}
}
