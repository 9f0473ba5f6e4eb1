package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // Address normalization

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminOnlyMiddleware restricts a route group to allowlisted admin wallets
func AdminOnlyMiddleware(adminWallets []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, exists := c.Get("walletAddress") // Get wallet from context
		// Check if the session carries a wallet
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		lowered := strings.ToLower(wallet.(string)) // Allowlist entries are lowercased
		for _, admin := range adminWallets {
			if admin == lowered {
				c.Next() // Allowlisted; proceed to the next handler
				return
			}
		}
		// Not on the allowlist, abort with forbidden status
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "Admin access required"})
	}
}
