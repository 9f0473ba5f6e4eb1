package api

import (
	"github.com/gin-gonic/gin" // Gin web framework
)

// respondOK writes the standard success envelope
func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondErr writes the standard error envelope
func respondErr(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}
